package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"radar_backend/internal/domain"
	"radar_backend/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Admin action names written to the audit log
const (
	ActionApprove = "approve"
	ActionRevoke  = "revoke_approval"
	ActionBlock   = "block"
	ActionUnblock = "unblock"
	ActionDelete  = "delete"
)

const adminListTTL = 60 * time.Second

// AdminService backs the admin console
type AdminService struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewAdminService creates an AdminService. rdb may be nil.
func NewAdminService(db *gorm.DB, rdb *redis.Client) *AdminService {
	return &AdminService{db: db, rdb: rdb}
}

// Page selects a slice of a listing
type Page struct {
	Page     int
	PageSize int
}

// Normalize clamps the page to sane bounds
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
	return p
}

func (p Page) offset() int { return (p.Page - 1) * p.PageSize }

// UserList is a page of users
type UserList struct {
	Users      []domain.User `json:"users"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"total_pages"`
	Cached     bool          `json:"cached"`
}

// ListUsers returns users newest first
func (s *AdminService) ListUsers(ctx context.Context, page Page) (*UserList, error) {
	page = page.Normalize()
	cacheKey := utils.AdminUsersPrefix + "page=" + strconv.Itoa(page.Page) + ":size=" + strconv.Itoa(page.PageSize)
	var cached UserList
	if found, err := utils.GetCache(ctx, s.rdb, cacheKey, &cached); err == nil && found {
		cached.Cached = true
		return &cached, nil
	}

	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, domain.Internal(err)
	}
	users := make([]domain.User, 0, page.PageSize)
	if err := db.Order("created_at desc").Order("id desc").
		Offset(page.offset()).Limit(page.PageSize).
		Find(&users).Error; err != nil {
		return nil, domain.Internal(err)
	}
	list := &UserList{
		Users:      users,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      total,
		TotalPages: totalPages(total, page.PageSize),
	}
	_ = utils.SetCache(ctx, s.rdb, cacheKey, list, adminListTTL)
	return list, nil
}

// SearchUser finds the first user whose email or name contains q
func (s *AdminService) SearchUser(ctx context.Context, q string) (*domain.User, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, domain.ErrMissingFields
	}
	like := "%" + strings.ToLower(q) + "%"
	var user domain.User
	err := s.db.WithContext(ctx).
		Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like).
		Order("id asc").
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, domain.Internal(err)
	}
	return &user, nil
}

// SetApproval approves or revokes a user
func (s *AdminService) SetApproval(ctx context.Context, adminID, userID uint, approved bool) (*domain.User, error) {
	action := ActionApprove
	if !approved {
		action = ActionRevoke
	}
	return s.mutate(ctx, adminID, userID, action, map[string]any{"is_approved": approved})
}

// SetBlocked blocks or unblocks a user
func (s *AdminService) SetBlocked(ctx context.Context, adminID, userID uint, blocked bool) (*domain.User, error) {
	action := ActionBlock
	if !blocked {
		action = ActionUnblock
	}
	return s.mutate(ctx, adminID, userID, action, map[string]any{"is_blocked": blocked})
}

// mutate updates a user and writes the audit entry in the same transaction
func (s *AdminService) mutate(ctx context.Context, adminID, userID uint, action string, fields map[string]any) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).Where("id = ?", userID).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		if err := tx.Create(&domain.AdminLog{AdminID: adminID, Action: action, TargetUserID: userID}).Error; err != nil {
			return err
		}
		return tx.First(&user, userID).Error
	})
	if err != nil {
		return nil, s.adminError(adminID, userID, action, err)
	}
	s.afterMutation(ctx, adminID, userID, action)
	return &user, nil
}

// DeleteUser removes an account together with its referral, ledger and notification rows
func (s *AdminService) DeleteUser(ctx context.Context, adminID, userID uint) error {
	if adminID == userID {
		return &domain.Error{Kind: domain.ErrValidation, Msg: "Cannot delete yourself"}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.User{}, userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		if err := tx.Where("referrer_id = ?", userID).Delete(&domain.Referral{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&domain.Transaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&domain.Notification{}).Error; err != nil {
			return err
		}
		return tx.Create(&domain.AdminLog{AdminID: adminID, Action: ActionDelete, TargetUserID: userID}).Error
	})
	if err != nil {
		return s.adminError(adminID, userID, ActionDelete, err)
	}
	s.afterMutation(ctx, adminID, userID, ActionDelete)
	return nil
}

func (s *AdminService) adminError(adminID, userID uint, action string, err error) error {
	var classified *domain.Error
	if errors.As(err, &classified) {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"admin_id": adminID,
		"user_id":  userID,
		"action":   action,
		"error":    err.Error(),
	}).Error("Admin action failed")
	return domain.Internal(err)
}

func (s *AdminService) afterMutation(ctx context.Context, adminID, userID uint, action string) {
	logrus.WithFields(logrus.Fields{
		"admin_id": adminID,
		"user_id":  userID,
		"action":   action,
	}).Info("Admin action")
	_ = utils.DeleteCache(ctx, s.rdb, utils.DashboardKey(userID))
	_ = utils.DeleteCachePrefix(ctx, s.rdb, utils.AdminUsersPrefix)
}

// Stats summarises the platform
type Stats struct {
	Users           int64           `json:"users"`
	Trainers        int64           `json:"trainers"`
	Blocked         int64           `json:"blocked"`
	Referrals       int64           `json:"referrals"`
	CommissionsPaid decimal.Decimal `json:"commissionsPaid"`
	Withdrawn       decimal.Decimal `json:"withdrawn"`
}

// Stats counts users and sums the ledger
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	var st Stats
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&st.Users, db.Model(&domain.User{})},
		{&st.Trainers, db.Model(&domain.User{}).Where("role = ?", domain.RoleTrainer)},
		{&st.Blocked, db.Model(&domain.User{}).Where("is_blocked = ?", true)},
		{&st.Referrals, db.Model(&domain.Referral{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, domain.Internal(err)
		}
	}
	var err error
	if st.CommissionsPaid, err = s.sumLedger(db, domain.TxTypeCommission); err != nil {
		return nil, err
	}
	if st.Withdrawn, err = s.sumLedger(db, domain.TxTypeWithdrawal); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *AdminService) sumLedger(db *gorm.DB, txType string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := db.Model(&domain.Transaction{}).
		Select("SUM(amount)").
		Where("type = ? AND status = ?", txType, domain.StatusCompleted).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, domain.Internal(fmt.Errorf("sum %s: %w", txType, err))
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// TransactionFilter narrows the ledger listing
type TransactionFilter struct {
	UserID uint
	Type   string
	Page   Page
}

// TransactionList is a page of ledger entries
type TransactionList struct {
	Transactions []domain.Transaction `json:"transactions"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
	Total        int64                `json:"total"`
	TotalPages   int                  `json:"total_pages"`
}

// ListTransactions returns ledger entries newest first
func (s *AdminService) ListTransactions(ctx context.Context, f TransactionFilter) (*TransactionList, error) {
	page := f.Page.Normalize()
	query := s.db.WithContext(ctx).Model(&domain.Transaction{})
	if f.UserID != 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, domain.Internal(err)
	}
	txs := make([]domain.Transaction, 0, page.PageSize)
	if err := query.Order("id desc").
		Offset(page.offset()).Limit(page.PageSize).
		Find(&txs).Error; err != nil {
		return nil, domain.Internal(err)
	}
	return &TransactionList{
		Transactions: txs,
		Page:         page.Page,
		PageSize:     page.PageSize,
		Total:        total,
		TotalPages:   totalPages(total, page.PageSize),
	}, nil
}

func totalPages(total int64, size int) int {
	return (int(total) + size - 1) / size
}
