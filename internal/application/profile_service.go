package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	repo "github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/storage"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
	"github.com/oksasatya/otomasyon-magazasi/pkg/validation"
)

type ProfileService struct {
	Users       repo.UserRepository
	Automations repo.AutomationRepository
	Store       storage.FileStore
	Redis       *redis.Client
	Logger      *logrus.Logger
}

func NewProfileService(users repo.UserRepository, automations repo.AutomationRepository, store storage.FileStore, rdb *redis.Client, logger *logrus.Logger) *ProfileService {
	return &ProfileService{Users: users, Automations: automations, Store: store, Redis: rdb, Logger: logger}
}

// Me is the signed-in view of an account.
type Me struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	IsVerified bool           `json:"is_verified"`
	Profile    entity.Profile `json:"profile"`
}

func (s *ProfileService) Me(ctx context.Context, userID string) (*Me, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, orNotFound(err, ErrUserNotFound)
	}
	p, err := s.Users.GetProfile(ctx, userID)
	if err != nil {
		return nil, orNotFound(err, ErrUserNotFound)
	}
	return &Me{ID: u.ID, Email: u.Email, IsVerified: u.IsVerified, Profile: *p}, nil
}

// UpdateProfileInput carries optional fields; nil leaves the stored value.
type UpdateProfileInput struct {
	Username *string
	FullName *string
	Bio      *string
	Website  *string
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.Profile, error) {
	p, err := s.Users.GetProfile(ctx, userID)
	if err != nil {
		return nil, orNotFound(err, ErrUserNotFound)
	}
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name != p.Username {
			if !validation.IsUsername(name) {
				return nil, ErrInvalidUsername
			}
			taken, err := s.Users.UsernameExists(ctx, name)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrUsernameTaken
			}
			p.Username = name
		}
	}
	if in.FullName != nil {
		p.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Bio != nil {
		p.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.Website != nil {
		p.Website = strings.TrimSpace(*in.Website)
	}
	if err := s.Users.UpdateProfile(ctx, p); err != nil {
		return nil, err
	}
	s.touchSession(ctx, p)
	return p, nil
}

// UploadAvatar stores an image of at most 5 MB and points the profile at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, up Upload) (string, error) {
	ct, err := checkImage(up)
	if err != nil {
		return "", err
	}
	p, err := s.Users.GetProfile(ctx, userID)
	if err != nil {
		return "", orNotFound(err, ErrUserNotFound)
	}
	objectPath := storage.ObjectPath(storage.PrefixAvatars, userID, up.Filename)
	if _, err := s.Store.Upload(ctx, objectPath, ct, up.Reader); err != nil {
		return "", storageErr(err)
	}
	p.AvatarURL = s.Store.PublicURL(objectPath)
	if err := s.Users.UpdateProfile(ctx, p); err != nil {
		return "", err
	}
	s.touchSession(ctx, p)
	return p.AvatarURL, nil
}

// touchSession refreshes the cached display fields while keeping the session TTL.
func (s *ProfileService) touchSession(ctx context.Context, p *entity.Profile) {
	if s.Redis == nil {
		return
	}
	key := sessionKey(p.ID)
	n, err := s.Redis.Exists(ctx, key).Result()
	if err != nil || n == 0 {
		return
	}
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"username":   p.Username,
		"name":       p.DisplayName(),
		"avatar_url": p.AvatarURL,
		"updated_at": nowRFC3339(),
	})
	if ttl, tErr := s.Redis.TTL(ctx, key).Result(); tErr == nil && ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, pErr := pipe.Exec(ctx); pErr != nil {
		helpers.LogWarn(s.Logger, "redis pipeline failed", pErr, logrus.Fields{"key": key})
	}
}

// PublicProfile is what other visitors see: no payout details.
type PublicProfile struct {
	Username       string              `json:"username"`
	FullName       string              `json:"full_name"`
	AvatarURL      string              `json:"avatar_url"`
	Bio            string              `json:"bio"`
	Website        string              `json:"website"`
	Role           entity.Role         `json:"role"`
	DeveloperSince *time.Time          `json:"developer_since,omitempty"`
	Automations    []entity.Automation `json:"automations"`
}

func (s *ProfileService) PublicProfile(ctx context.Context, username string) (*PublicProfile, error) {
	p, err := s.Users.GetProfileByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, orNotFound(err, ErrUserNotFound)
	}
	out := &PublicProfile{
		Username:       p.Username,
		FullName:       p.FullName,
		AvatarURL:      p.AvatarURL,
		Bio:            p.Bio,
		Website:        p.Website,
		Role:           p.Role,
		DeveloperSince: p.DeveloperSince,
		Automations:    []entity.Automation{},
	}
	if p.Role.CanSell() {
		list, err := s.Automations.List(ctx, repo.AutomationFilter{DeveloperID: p.ID, Sort: repo.SortNewest, Limit: 50})
		if err != nil {
			return nil, err
		}
		out.Automations = list
	}
	return out, nil
}

// Prefs returns the stored switches, or the defaults when none were saved.
func (s *ProfileService) Prefs(ctx context.Context, userID string) (entity.NotificationPrefs, error) {
	return loadPrefs(ctx, s.Users, userID)
}

func loadPrefs(ctx context.Context, users repo.UserRepository, userID string) (entity.NotificationPrefs, error) {
	p, err := users.GetPrefs(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return entity.DefaultNotificationPrefs(userID), nil
		}
		return entity.NotificationPrefs{}, err
	}
	return *p, nil
}

// PrefsPatch updates only the switches that are set.
type PrefsPatch struct {
	EmailPurchases      *bool `json:"email_purchases"`
	EmailSales          *bool `json:"email_sales"`
	EmailReviews        *bool `json:"email_reviews"`
	EmailProductUpdates *bool `json:"email_product_updates"`
	EmailMarketing      *bool `json:"email_marketing"`
}

func (s *ProfileService) UpdatePrefs(ctx context.Context, userID string, patch PrefsPatch) (entity.NotificationPrefs, error) {
	p, err := loadPrefs(ctx, s.Users, userID)
	if err != nil {
		return p, err
	}
	apply := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&p.EmailPurchases, patch.EmailPurchases)
	apply(&p.EmailSales, patch.EmailSales)
	apply(&p.EmailReviews, patch.EmailReviews)
	apply(&p.EmailProductUpdates, patch.EmailProductUpdates)
	apply(&p.EmailMarketing, patch.EmailMarketing)
	p.UserID = userID
	if err := s.Users.UpsertPrefs(ctx, &p); err != nil {
		return p, err
	}
	return p, nil
}

func storageErr(err error) error {
	if errors.Is(err, storage.ErrNotConfigured) {
		return ErrUnavailable
	}
	return err
}
