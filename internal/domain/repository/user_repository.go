package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// UserRepository defines the interface for account and profile persistence.
type UserRepository interface {
	// Create inserts the user, its profile and default notification prefs atomically.
	Create(ctx context.Context, u *entity.User, p *entity.Profile) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	SetVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, hash string) error

	UsernameExists(ctx context.Context, username string) (bool, error)
	GetProfile(ctx context.Context, id string) (*entity.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, p *entity.Profile) error
	SetRole(ctx context.Context, id string, role entity.Role) error
	// PromoteDeveloper stores payout details and upgrades a plain user to developer.
	PromoteDeveloper(ctx context.Context, id, iban, bankName string) (*entity.Profile, error)
	ListAccounts(ctx context.Context, q string, role entity.Role, limit, offset int) ([]entity.Account, error)

	GetPrefs(ctx context.Context, userID string) (*entity.NotificationPrefs, error)
	UpsertPrefs(ctx context.Context, p *entity.NotificationPrefs) error
}

// AuditRepository records security relevant actions.
type AuditRepository interface {
	Insert(ctx context.Context, l entity.AuditLog) error
}
