package repository

import (
	"context"
	"time"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
)

type CategoryRepository interface {
	// List returns all categories ordered by sort_order with counts of listed automations.
	List(ctx context.Context) ([]entity.Category, error)
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Category, error)
	Create(ctx context.Context, c *entity.Category) error
	Update(ctx context.Context, c *entity.Category) error
	Delete(ctx context.Context, id string) error
}

// Sort orders accepted by AutomationFilter.
const (
	SortNewest    = "newest"
	SortPopular   = "popular"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

// Cursor is a keyset position for the newest-first listing.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// AutomationFilter narrows the public listing. Only approved and active rows are returned.
type AutomationFilter struct {
	CategorySlug string
	Query        string
	MinPrice     *int64
	MaxPrice     *int64
	Platform     string
	DeveloperID  string
	Sort         string
	After        *Cursor
	Offset       int
	Limit        int
}

type AutomationRepository interface {
	Create(ctx context.Context, a *entity.Automation) error
	Update(ctx context.Context, a *entity.Automation) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.Automation, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Automation, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)

	List(ctx context.Context, f AutomationFilter) ([]entity.Automation, error)
	ListByDeveloper(ctx context.Context, developerID string) ([]entity.Automation, error)
	ListByStatus(ctx context.Context, status entity.AutomationStatus, limit, offset int) ([]entity.Automation, error)
	ListByIDs(ctx context.Context, ids []string) ([]entity.Automation, error)

	// SetStatus moves a row through moderation; approved rows get approved_at.
	SetStatus(ctx context.Context, id string, status entity.AutomationStatus, reason string) error
	SetFilePath(ctx context.Context, id, path string) error
	SetImageURL(ctx context.Context, id, url string) error
	RefreshRating(ctx context.Context, id string) error
}

type ReviewRepository interface {
	// Upsert keeps one review per (automation, user).
	Upsert(ctx context.Context, r *entity.Review) error
	ListByAutomation(ctx context.Context, automationID string, limit, offset int) ([]entity.Review, error)
}

type FavoriteRepository interface {
	// Toggle adds or removes the favorite and reports the resulting state.
	Toggle(ctx context.Context, userID, automationID string) (bool, error)
	List(ctx context.Context, userID string) ([]entity.Automation, error)
}
