package entity

import "time"

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
	PurchaseRefunded  PurchaseStatus = "refunded"
	PurchaseExpired   PurchaseStatus = "expired"
)

// Purchase is one buyer/automation order line paid through a single PaymentIntent.
type Purchase struct {
	ID               string         `json:"id"`
	BuyerID          string         `json:"buyer_id"`
	AutomationID     string         `json:"automation_id"`
	DeveloperID      string         `json:"developer_id"`
	AmountCents      int64          `json:"amount_cents"`
	PlatformFeeCents int64          `json:"platform_fee_cents"`
	Currency         string         `json:"currency"`
	Status           PurchaseStatus `json:"status"`
	PaymentIntentID  *string        `json:"payment_intent_id,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`

	AutomationTitle string `json:"automation_title,omitempty"`
	AutomationSlug  string `json:"automation_slug,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
	BuyerUsername   string `json:"buyer_username,omitempty"`
}

// NetCents is what the developer receives after the platform fee.
func (p *Purchase) NetCents() int64 { return p.AmountCents - p.PlatformFeeCents }

// StripeAccount links a developer to a Stripe Connect account.
type StripeAccount struct {
	UserID           string    `json:"user_id"`
	AccountID        string    `json:"account_id"`
	ChargesEnabled   bool      `json:"charges_enabled"`
	PayoutsEnabled   bool      `json:"payouts_enabled"`
	DetailsSubmitted bool      `json:"details_submitted"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Ready reports whether the account can receive destination charges.
func (s *StripeAccount) Ready() bool {
	return s != nil && s.AccountID != "" && s.ChargesEnabled
}

type PlatformEarning struct {
	ID          string    `json:"id"`
	PurchaseID  string    `json:"purchase_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

// SalesSummary totals completed sales for a developer.
type SalesSummary struct {
	Count      int   `json:"count"`
	GrossCents int64 `json:"gross_cents"`
	FeeCents   int64 `json:"platform_fee_cents"`
	NetCents   int64 `json:"net_cents"`
}

// PlatformStats backs the admin dashboard.
type PlatformStats struct {
	Users               int   `json:"users"`
	Developers          int   `json:"developers"`
	ApprovedAutomations int   `json:"approved_automations"`
	PendingAutomations  int   `json:"pending_automations"`
	CompletedPurchases  int   `json:"completed_purchases"`
	GrossVolumeCents    int64 `json:"gross_volume_cents"`
	PlatformEarnings    int64 `json:"platform_earnings_cents"`
}
