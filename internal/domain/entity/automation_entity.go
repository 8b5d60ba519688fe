package entity

import "time"

type AutomationStatus string

const (
	StatusPending  AutomationStatus = "pending"
	StatusApproved AutomationStatus = "approved"
	StatusRejected AutomationStatus = "rejected"
)

func (s AutomationStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// MinPaidPrice is the smallest non-free price in kuruş.
const MinPaidPrice int64 = 100

// Automation is a sellable script or workflow listed by a developer.
type Automation struct {
	ID               string           `json:"id"`
	DeveloperID      string           `json:"developer_id"`
	CategoryID       *string          `json:"category_id"`
	Title            string           `json:"title"`
	Slug             string           `json:"slug"`
	ShortDescription string           `json:"short_description"`
	Description      string           `json:"description"`
	PriceCents       int64            `json:"price_cents"`
	Currency         string           `json:"currency"`
	Platform         string           `json:"platform"`
	Tags             []string         `json:"tags"`
	ImageURL         string           `json:"image_url"`
	FilePath         string           `json:"-"`
	DemoURL          string           `json:"demo_url"`
	Status           AutomationStatus `json:"status"`
	RejectionReason  string           `json:"rejection_reason,omitempty"`
	IsActive         bool             `json:"is_active"`
	TotalSales       int              `json:"total_sales"`
	RatingAvg        float64          `json:"rating_avg"`
	RatingCount      int              `json:"rating_count"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	ApprovedAt       *time.Time       `json:"approved_at,omitempty"`

	// Joined, read-only
	CategoryName      string `json:"category_name,omitempty"`
	CategorySlug      string `json:"category_slug,omitempty"`
	DeveloperUsername string `json:"developer_username,omitempty"`
	DeveloperName     string `json:"developer_name,omitempty"`
}

// Listed reports whether buyers can see and purchase the automation.
func (a *Automation) Listed() bool {
	return a.Status == StatusApproved && a.IsActive
}

func (a *Automation) Free() bool { return a.PriceCents == 0 }

// HasFile reports whether a deliverable has been uploaded.
func (a *Automation) HasFile() bool { return a.FilePath != "" }

type Category struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Description     string    `json:"description"`
	Icon            string    `json:"icon"`
	SortOrder       int       `json:"sort_order"`
	AutomationCount int       `json:"automation_count"`
	CreatedAt       time.Time `json:"created_at"`
}

type Review struct {
	ID           string    `json:"id"`
	AutomationID string    `json:"automation_id"`
	UserID       string    `json:"user_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Username  string `json:"username,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type Favorite struct {
	UserID       string    `json:"user_id"`
	AutomationID string    `json:"automation_id"`
	CreatedAt    time.Time `json:"created_at"`
}
