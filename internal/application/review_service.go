package application

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/config"
	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	repo "github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
	tpl "github.com/oksasatya/otomasyon-magazasi/pkg/mailer/templates"
)

const maxCommentLen = 1000

type ReviewService struct {
	Users       repo.UserRepository
	Automations repo.AutomationRepository
	Reviews     repo.ReviewRepository
	Purchases   repo.PurchaseRepository
	Mail        Mailer
	Cfg         *config.Config
	Logger      *logrus.Logger
}

// Submit creates or replaces the caller's review. Only buyers with a completed
// purchase may review.
func (s *ReviewService) Submit(ctx context.Context, userID, slug string, rating int, comment string) (*entity.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > maxCommentLen {
		return nil, ErrCommentTooLong
	}
	a, err := s.Automations.GetBySlug(ctx, slug)
	if err != nil {
		return nil, orNotFound(err, ErrAutomationNotFound)
	}
	if !a.Listed() {
		return nil, ErrAutomationNotFound
	}
	bought, err := s.Purchases.HasCompleted(ctx, userID, a.ID)
	if err != nil {
		return nil, err
	}
	if !bought {
		return nil, ErrPurchaseRequired
	}

	rv := &entity.Review{AutomationID: a.ID, UserID: userID, Rating: rating, Comment: comment}
	if err := s.Reviews.Upsert(ctx, rv); err != nil {
		return nil, err
	}
	if err := s.Automations.RefreshRating(ctx, a.ID); err != nil {
		return nil, err
	}
	s.notifyDeveloper(ctx, a, rv)
	return rv, nil
}

func (s *ReviewService) notifyDeveloper(ctx context.Context, a *entity.Automation, rv *entity.Review) {
	prefs, err := loadPrefs(ctx, s.Users, a.DeveloperID)
	if err != nil || !prefs.EmailReviews {
		return
	}
	dev, err := s.Users.GetByID(ctx, a.DeveloperID)
	if err != nil {
		helpers.LogWarn(s.Logger, "review notify: developer lookup failed", err, logrus.Fields{"automation_id": a.ID})
		return
	}
	devName := a.DeveloperName
	if devName == "" {
		devName = a.DeveloperUsername
	}
	reviewer := "Bir kullanıcı"
	if p, pErr := s.Users.GetProfile(ctx, rv.UserID); pErr == nil {
		reviewer = p.DisplayName()
	}
	data := tpl.NewReviewData(s.Cfg, devName, dev.Email, a.Title, a.Slug, reviewer, rv.Rating, rv.Comment)
	sendMail(ctx, s.Mail, s.Logger, dev.Email, data)
}

type FavoriteService struct {
	Automations repo.AutomationRepository
	Favorites   repo.FavoriteRepository
}

// Toggle flips the favorite and reports whether it is now set.
func (s *FavoriteService) Toggle(ctx context.Context, userID, automationID string) (bool, error) {
	if _, err := s.Automations.GetByID(ctx, automationID); err != nil {
		return false, orNotFound(err, ErrAutomationNotFound)
	}
	return s.Favorites.Toggle(ctx, userID, automationID)
}

func (s *FavoriteService) List(ctx context.Context, userID string) ([]entity.Automation, error) {
	return s.Favorites.List(ctx, userID)
}
