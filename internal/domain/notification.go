package domain

import "time" // Timestamps

// Notification types
const (
	NotificationCommission = "commission" // Referral commission credited
)

// Notification Model (in-app messages shown in the user's bell menu)
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                       // Primary key
	UserID    uint      `gorm:"not null;index" json:"userId"`               // Recipient
	Type      string    `gorm:"size:20;not null" json:"type"`               // Notification kind
	Title     string    `gorm:"size:120;not null" json:"title"`             // Short heading
	Message   string    `gorm:"size:255;not null" json:"message"`           // Body text
	IsRead    bool      `gorm:"not null;default:false;index" json:"isRead"` // Cleared by mark-all-read
	CreatedAt time.Time `gorm:"index" json:"createdAt"`                     // Creation time
}
