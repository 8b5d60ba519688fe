package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in Password field; OAuth-only
// accounts have an empty hash.
type User struct {
	ID         string
	Email      string
	Password   string
	IsVerified bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Profile is the public face of a user, keyed by the user id.
type Profile struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	FullName       string     `json:"full_name"`
	AvatarURL      string     `json:"avatar_url"`
	Bio            string     `json:"bio"`
	Website        string     `json:"website"`
	Role           Role       `json:"role"`
	IBAN           string     `json:"iban,omitempty"`
	BankName       string     `json:"bank_name,omitempty"`
	DeveloperSince *time.Time `json:"developer_since,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DisplayName prefers the full name and falls back to the username.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.FullName != "" {
		return p.FullName
	}
	return p.Username
}

// Account joins a user with its profile.
type Account struct {
	User    User
	Profile Profile
}

// NotificationPrefs are the per-user email switches.
type NotificationPrefs struct {
	UserID              string `json:"-"`
	EmailPurchases      bool   `json:"email_purchases"`
	EmailSales          bool   `json:"email_sales"`
	EmailReviews        bool   `json:"email_reviews"`
	EmailProductUpdates bool   `json:"email_product_updates"`
	EmailMarketing      bool   `json:"email_marketing"`
}

// DefaultNotificationPrefs applies when a user has no stored row.
func DefaultNotificationPrefs(userID string) NotificationPrefs {
	return NotificationPrefs{
		UserID:              userID,
		EmailPurchases:      true,
		EmailSales:          true,
		EmailReviews:        true,
		EmailProductUpdates: true,
		EmailMarketing:      false,
	}
}

// AuditLog is an append-only record of security relevant actions.
type AuditLog struct {
	UserID    string
	Email     string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
}
