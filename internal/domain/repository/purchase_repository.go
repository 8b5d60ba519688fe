package repository

import (
	"context"
	"time"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
)

type PurchaseRepository interface {
	Create(ctx context.Context, p *entity.Purchase) error
	GetByID(ctx context.Context, id string) (*entity.Purchase, error)
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*entity.Purchase, error)
	FindPending(ctx context.Context, buyerID, automationID string) (*entity.Purchase, error)
	HasCompleted(ctx context.Context, buyerID, automationID string) (bool, error)
	SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error

	// Complete moves a pending or expired purchase to completed, increments the
	// automation's sales counter and records the platform earning in one
	// transaction. It reports false when the purchase was in another state or
	// the buyer already completed a purchase of the same automation.
	Complete(ctx context.Context, id string) (bool, error)
	// Transition moves a purchase from one of from to status and reports whether a row changed.
	Transition(ctx context.Context, id string, to entity.PurchaseStatus, from ...entity.PurchaseStatus) (bool, error)
	// ExpirePending expires attempts created before olderThan and returns their
	// payment intent ids, one per row ("" when the attempt has none).
	ExpirePending(ctx context.Context, olderThan time.Time) ([]string, error)

	ListByBuyer(ctx context.Context, buyerID string) ([]entity.Purchase, error)
	ListSales(ctx context.Context, developerID string) ([]entity.Purchase, entity.SalesSummary, error)
	Stats(ctx context.Context) (entity.PlatformStats, error)
}

type StripeAccountRepository interface {
	Get(ctx context.Context, userID string) (*entity.StripeAccount, error)
	Upsert(ctx context.Context, a *entity.StripeAccount) error
	UpdateFlags(ctx context.Context, a *entity.StripeAccount) error
	ListIncomplete(ctx context.Context, limit int) ([]entity.StripeAccount, error)
}
