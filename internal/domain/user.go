package domain

import (
	"time" // Timestamps and expiries

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// Account roles
const (
	RoleUser    = "user"    // Regular subscriber, approved on signup
	RoleTrainer = "trainer" // Institute trainer, needs manual approval
	RoleAdmin   = "admin"   // Back-office operator
)

// User Model
type User struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`                                       // Primary key
	Name               string          `gorm:"size:255;not null" json:"name"`                              // Display name
	Email              string          `gorm:"size:255;uniqueIndex;not null" json:"email"`                 // Unique login email
	PasswordHash       string          `gorm:"not null" json:"-"`                                          // Hashed password, never serialized
	Role               string          `gorm:"size:20;not null;default:user;index" json:"role"`            // Role: user, trainer or admin
	IsApproved         bool            `gorm:"not null;default:false" json:"isApproved"`                   // False only for trainers awaiting review
	IsBlocked          bool            `gorm:"not null;default:false" json:"isBlocked"`                    // Set by admins
	WalletBalance      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"walletBalance"` // Commission wallet
	ReferralCount      int             `gorm:"not null;default:0" json:"referralCount"`                    // Completed referrals
	ReferralLink       string          `gorm:"size:255" json:"referralLink"`                               // Shareable join link
	ActiveReferralCode *string         `gorm:"size:32;index" json:"activeReferralCode"`                    // Code others can sign up with
	ReferralCodeExpiry *time.Time      `json:"-"`                                                          // Expiry of the active code
	UsedReferralCode   *string         `gorm:"<-:create;size:32" json:"usedReferralCode,omitempty"`        // Written once at signup
	SubscriptionExpiry *time.Time      `json:"-"`                                                          // End of the paid or trial period
	InstituteName      *string         `gorm:"size:255" json:"instituteName,omitempty"`                    // Trainers only
	InstituteLocation  *string         `gorm:"size:255" json:"instituteLocation,omitempty"`                // Trainers only
	CreatedAt          time.Time       `json:"createdAt"`                                                  // Creation time
	UpdatedAt          time.Time       `json:"-"`                                                          // Last update
}

// Profile is the client-facing projection of a user. It never carries the password hash.
type Profile struct {
	ID                 uint            `json:"id"`
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	Role               string          `json:"role"`
	IsApproved         bool            `json:"isApproved"`
	WalletBalance      decimal.Decimal `json:"walletBalance"`
	ReferralCount      int             `json:"referralCount"`
	SubscriptionExpiry string          `json:"subscriptionExpiry"`
	ReferralLink       string          `json:"referralLink"`
	ActiveReferralCode *string         `json:"activeReferralCode"`
	ReferralCodeExpiry *int64          `json:"referralCodeExpiry,omitempty"`
	InstituteName      string          `json:"instituteName,omitempty"`
	InstituteLocation  string          `json:"instituteLocation,omitempty"`
}

// Profile builds the sanitized projection returned by login and /user/me
func (u *User) Profile() Profile {
	p := Profile{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Role:               u.Role,
		IsApproved:         u.IsApproved,
		WalletBalance:      u.WalletBalance,
		ReferralCount:      u.ReferralCount,
		ReferralLink:       u.ReferralLink,
		ActiveReferralCode: u.ActiveReferralCode,
		ReferralCodeExpiry: UnixMilli(u.ReferralCodeExpiry),
	}
	if u.SubscriptionExpiry != nil {
		p.SubscriptionExpiry = u.SubscriptionExpiry.UTC().Format(time.RFC3339) // ISO timestamp
	}
	if u.InstituteName != nil {
		p.InstituteName = *u.InstituteName
	}
	if u.InstituteLocation != nil {
		p.InstituteLocation = *u.InstituteLocation
	}
	return p
}

// UnixMilli renders an optional timestamp as epoch milliseconds
func UnixMilli(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
