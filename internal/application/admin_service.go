package application

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/config"
	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	repo "github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/cache"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
	"github.com/oksasatya/otomasyon-magazasi/pkg/mailer"
	tpl "github.com/oksasatya/otomasyon-magazasi/pkg/mailer/templates"
)

type AdminService struct {
	Users       repo.UserRepository
	Automations repo.AutomationRepository
	Categories  repo.CategoryRepository
	Purchases   repo.PurchaseRepository
	Index       Searcher
	Cache       *cache.Cache
	Redis       *redis.Client
	Mail        Mailer
	Cfg         *config.Config
	Logger      *logrus.Logger
}

// ListAutomations returns the moderation queue; an empty status lists everything.
func (s *AdminService) ListAutomations(ctx context.Context, status string, limit, offset int) ([]entity.Automation, error) {
	st := entity.AutomationStatus(status)
	if status != "" && !st.Valid() {
		return nil, ErrInvalidStatus
	}
	if offset < 0 {
		offset = 0
	}
	return s.Automations.ListByStatus(ctx, st, clampLimit(limit), offset)
}

// Approve lists the automation, indexes it and tells the developer.
func (s *AdminService) Approve(ctx context.Context, adminID, id string) (*entity.Automation, error) {
	if err := s.Automations.SetStatus(ctx, id, entity.StatusApproved, ""); err != nil {
		return nil, orNotFound(err, ErrAutomationNotFound)
	}
	a, err := s.Automations.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrAutomationNotFound)
	}
	if s.Index != nil {
		if err := s.Index.Index(ctx, a); err != nil {
			helpers.LogWarn(s.Logger, "es index failed", err, logrus.Fields{"automation_id": a.ID})
		}
	}
	s.Cache.Invalidate(ctx, cache.KeyCategories)
	helpers.LogInfo(s.Logger, "automation approved", logrus.Fields{"automation_id": a.ID, "admin_id": adminID})

	s.notifyDeveloper(ctx, a, func(name, email string) map[string]any {
		return tpl.NewAutomationApprovedData(s.Cfg, name, email, a.Title, a.Slug)
	})
	return a, nil
}

// Reject takes the automation off the store with a reason the developer sees.
func (s *AdminService) Reject(ctx context.Context, adminID, id, reason string) (*entity.Automation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if err := s.Automations.SetStatus(ctx, id, entity.StatusRejected, reason); err != nil {
		return nil, orNotFound(err, ErrAutomationNotFound)
	}
	a, err := s.Automations.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrAutomationNotFound)
	}
	if s.Index != nil {
		if err := s.Index.Delete(ctx, a.ID); err != nil {
			helpers.LogWarn(s.Logger, "es delete failed", err, logrus.Fields{"automation_id": a.ID})
		}
	}
	s.Cache.Invalidate(ctx, cache.KeyCategories)
	helpers.LogInfo(s.Logger, "automation rejected", logrus.Fields{"automation_id": a.ID, "admin_id": adminID})

	s.notifyDeveloper(ctx, a, func(name, email string) map[string]any {
		return tpl.NewAutomationRejectedData(s.Cfg, name, email, a.Title, reason)
	})
	return a, nil
}

func (s *AdminService) notifyDeveloper(ctx context.Context, a *entity.Automation, build func(name, email string) map[string]any) {
	prefs, err := loadPrefs(ctx, s.Users, a.DeveloperID)
	if err != nil || !prefs.EmailProductUpdates {
		return
	}
	u, err := s.Users.GetByID(ctx, a.DeveloperID)
	if err != nil {
		return
	}
	name := a.DeveloperName
	if name == "" {
		name = a.DeveloperUsername
	}
	sendMail(ctx, s.Mail, s.Logger, u.Email, build(name, u.Email))
}

func (s *AdminService) ListUsers(ctx context.Context, q, role string, limit, offset int) ([]entity.Account, error) {
	r := entity.Role(role)
	if role != "" && !r.Valid() {
		return nil, ErrInvalidRole
	}
	if offset < 0 {
		offset = 0
	}
	return s.Users.ListAccounts(ctx, strings.TrimSpace(q), r, clampLimit(limit), offset)
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *AdminService) SetRole(ctx context.Context, adminID, userID, role string) error {
	r := entity.Role(role)
	if !r.Valid() {
		return ErrInvalidRole
	}
	if adminID == userID && r != entity.RoleAdmin {
		return ErrSelfDemotion
	}
	if err := s.Users.SetRole(ctx, userID, r); err != nil {
		return orNotFound(err, ErrUserNotFound)
	}
	setSessionRole(ctx, s.Redis, s.Logger, userID, r)
	helpers.LogInfo(s.Logger, "role changed", logrus.Fields{"user_id": userID, "role": r, "admin_id": adminID})
	return nil
}

func (s *AdminService) Stats(ctx context.Context) (entity.PlatformStats, error) {
	return s.Purchases.Stats(ctx)
}

type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	Icon        string
	SortOrder   int
}

func (in *CategoryInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return ErrNameRequired
	}
	in.Slug = helpers.Slugify(in.Slug)
	if in.Slug == "" {
		in.Slug = helpers.Slugify(in.Name)
	}
	return nil
}

func (s *AdminService) CreateCategory(ctx context.Context, in CategoryInput) (*entity.Category, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c := &entity.Category{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: strings.TrimSpace(in.Description),
		Icon:        strings.TrimSpace(in.Icon),
		SortOrder:   in.SortOrder,
	}
	if err := s.Categories.Create(ctx, c); err != nil {
		return nil, err
	}
	s.Cache.Invalidate(ctx, cache.KeyCategories)
	return c, nil
}

func (s *AdminService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*entity.Category, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c, err := s.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrCategoryNotFound)
	}
	c.Name = in.Name
	c.Slug = in.Slug
	c.Description = strings.TrimSpace(in.Description)
	c.Icon = strings.TrimSpace(in.Icon)
	c.SortOrder = in.SortOrder
	if err := s.Categories.Update(ctx, c); err != nil {
		return nil, orNotFound(err, ErrCategoryNotFound)
	}
	s.Cache.Invalidate(ctx, cache.KeyCategories)
	return c, nil
}

func (s *AdminService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.Categories.Delete(ctx, id); err != nil {
		return orNotFound(err, ErrCategoryNotFound)
	}
	s.Cache.Invalidate(ctx, cache.KeyCategories)
	return nil
}

// SendEmail enqueues a raw email or a templated one.
func (s *AdminService) SendEmail(ctx context.Context, job mailer.EmailJob) error {
	if job.Template == "" && (job.Subject == "" || (job.Text == "" && job.HTML == "")) {
		return ErrEmailContent
	}
	if s.Mail == nil {
		return ErrMailDisabled
	}
	if err := s.Mail.EnqueueJob(ctx, job); err != nil {
		if errors.Is(err, mailer.ErrDisabled) {
			return ErrMailDisabled
		}
		return err
	}
	return nil
}

// ContactService forwards the public contact form to the support inbox.
type ContactService struct {
	Mail   Mailer
	Cfg    *config.Config
	Logger *logrus.Logger
}

type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

func (s *ContactService) Send(ctx context.Context, in ContactInput) error {
	if s.Mail == nil {
		return ErrMailDisabled
	}
	data := tpl.NewContactData(s.Cfg, strings.TrimSpace(in.Name), strings.TrimSpace(in.Email),
		strings.TrimSpace(in.Subject), strings.TrimSpace(in.Message))
	if err := s.Mail.Enqueue(ctx, s.Cfg.SupportEmail, data); err != nil {
		if errors.Is(err, mailer.ErrDisabled) {
			return ErrMailDisabled
		}
		return err
	}
	helpers.LogInfo(s.Logger, "contact message queued", logrus.Fields{"from": in.Email})
	return nil
}
