package application

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	repo "github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
)

const cartTTL = 30 * 24 * time.Hour

func cartKey(userID string) string { return "cart:" + userID }

// CartService keeps each buyer's cart as a Redis set of automation ids.
type CartService struct {
	Redis       *redis.Client
	Automations repo.AutomationRepository
	Purchases   repo.PurchaseRepository
	Logger      *logrus.Logger
}

func NewCartService(rdb *redis.Client, automations repo.AutomationRepository, purchases repo.PurchaseRepository, logger *logrus.Logger) *CartService {
	return &CartService{Redis: rdb, Automations: automations, Purchases: purchases, Logger: logger}
}

type Cart struct {
	Items      []entity.Automation `json:"items"`
	Count      int                 `json:"count"`
	TotalCents int64               `json:"total_cents"`
}

// Get resolves the cart. Items that are no longer listed are dropped.
func (s *CartService) Get(ctx context.Context, userID string) (*Cart, error) {
	ids, err := s.IDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.Automations.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	cart := &Cart{Items: make([]entity.Automation, 0, len(rows))}
	seen := make(map[string]bool, len(rows))
	for _, a := range rows {
		if !a.Listed() {
			continue
		}
		seen[a.ID] = true
		cart.Items = append(cart.Items, a)
		cart.TotalCents += a.PriceCents
	}
	cart.Count = len(cart.Items)

	var stale []any
	for _, id := range ids {
		if !seen[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := s.Redis.SRem(ctx, cartKey(userID), stale...).Err(); err != nil {
			helpers.LogWarn(s.Logger, "cart cleanup failed", err, logrus.Fields{"user_id": userID})
		}
	}
	return cart, nil
}

// IDs returns the raw automation ids in the cart.
func (s *CartService) IDs(ctx context.Context, userID string) ([]string, error) {
	if s.Redis == nil {
		return nil, ErrUnavailable
	}
	return s.Redis.SMembers(ctx, cartKey(userID)).Result()
}

// Add puts a purchasable automation in the cart.
func (s *CartService) Add(ctx context.Context, userID, automationID string) (*Cart, error) {
	if s.Redis == nil {
		return nil, ErrUnavailable
	}
	a, err := s.Automations.GetByID(ctx, automationID)
	if err != nil {
		return nil, orNotFound(err, ErrAutomationNotFound)
	}
	if !a.Listed() {
		return nil, ErrNotPurchasable
	}
	if a.DeveloperID == userID {
		return nil, ErrOwnAutomation
	}
	owned, err := s.Purchases.HasCompleted(ctx, userID, a.ID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, ErrAlreadyPurchased
	}
	key := cartKey(userID)
	pipe := s.Redis.TxPipeline()
	pipe.SAdd(ctx, key, a.ID)
	pipe.Expire(ctx, key, cartTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *CartService) Remove(ctx context.Context, userID, automationID string) (*Cart, error) {
	if s.Redis == nil {
		return nil, ErrUnavailable
	}
	if err := s.Redis.SRem(ctx, cartKey(userID), automationID).Err(); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return ErrUnavailable
	}
	return s.Redis.Del(ctx, cartKey(userID)).Err()
}
