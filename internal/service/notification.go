package service

import (
	"context"

	"radar_backend/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const notificationLimit = 20

// NotificationService reads and clears a user's in-app notifications
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a NotificationService
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Inbox is the latest notifications plus the total unread count
type Inbox struct {
	Notifications []domain.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unreadCount"`
}

// List returns the 20 newest notifications of userID
func (s *NotificationService) List(ctx context.Context, userID uint) (*Inbox, error) {
	db := s.db.WithContext(ctx)
	inbox := &Inbox{Notifications: make([]domain.Notification, 0, notificationLimit)}
	if err := db.Where("user_id = ?", userID).
		Order("id desc").
		Limit(notificationLimit).
		Find(&inbox.Notifications).Error; err != nil {
		return nil, domain.Internal(err)
	}
	if err := db.Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&inbox.UnreadCount).Error; err != nil {
		return nil, domain.Internal(err)
	}
	return inbox, nil
}

// MarkAllRead marks every unread notification of userID as read and returns how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, domain.Internal(res.Error)
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"count":   res.RowsAffected,
	}).Debug("Notifications marked read")
	return res.RowsAffected, nil
}
