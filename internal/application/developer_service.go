package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/config"
	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	repo "github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/cache"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/payment"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/storage"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
	"github.com/oksasatya/otomasyon-magazasi/pkg/iban"
)

type DeveloperService struct {
	Users       repo.UserRepository
	Automations repo.AutomationRepository
	Categories  repo.CategoryRepository
	Purchases   repo.PurchaseRepository
	Accounts    repo.StripeAccountRepository
	Payments    payment.Gateway
	Store       storage.FileStore
	Index       Searcher
	Cache       *cache.Cache
	Redis       *redis.Client
	Cfg         *config.Config
	Logger      *logrus.Logger
}

// IBANCheck is the answer of the onboarding form helper.
type IBANCheck struct {
	Valid    bool   `json:"valid"`
	IBAN     string `json:"iban"`
	BankName string `json:"bank_name,omitempty"`
	Error    string `json:"error,omitempty"`
}

func CheckIBAN(s string) IBANCheck {
	out := IBANCheck{IBAN: iban.Format(s)}
	if err := iban.Validate(s); err != nil {
		out.Error = err.Error()
		return out
	}
	out.Valid = true
	out.BankName = iban.BankName(s)
	return out
}

// Onboard stores payout details and promotes a plain user to developer.
// The bank name is resolved from the IBAN when not given.
func (s *DeveloperService) Onboard(ctx context.Context, userID, ibanStr, bankName string) (*entity.Profile, error) {
	if err := iban.Validate(ibanStr); err != nil {
		return nil, ErrInvalidIBAN
	}
	bankName = strings.TrimSpace(bankName)
	if bankName == "" {
		bankName = iban.BankName(ibanStr)
	}
	p, err := s.Users.PromoteDeveloper(ctx, userID, iban.Normalize(ibanStr), bankName)
	if err != nil {
		return nil, orNotFound(err, ErrUserNotFound)
	}
	setSessionRole(ctx, s.Redis, s.Logger, userID, p.Role)
	helpers.LogInfo(s.Logger, "developer onboarded", logrus.Fields{"user_id": userID, "role": p.Role})
	return p, nil
}

// AutomationInput is the editable part of a listing.
type AutomationInput struct {
	CategoryID       *string
	Title            string
	ShortDescription string
	Description      string
	PriceCents       int64
	Platform         string
	Tags             []string
	DemoURL          string
}

func ValidPrice(cents int64) bool {
	return cents == 0 || cents >= entity.MinPaidPrice
}

func (s *DeveloperService) validate(ctx context.Context, in *AutomationInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return ErrTitleRequired
	}
	if !ValidPrice(in.PriceCents) {
		return ErrInvalidPrice
	}
	if in.CategoryID != nil && *in.CategoryID == "" {
		in.CategoryID = nil
	}
	if in.CategoryID != nil {
		if _, err := s.Categories.GetByID(ctx, *in.CategoryID); err != nil {
			return orNotFound(err, ErrCategoryNotFound)
		}
	}
	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tags = append(tags, t)
		}
	}
	in.Tags = tags
	return nil
}

// uniqueSlug derives a slug from title and suffixes -2, -3 ... until unused.
func (s *DeveloperService) uniqueSlug(ctx context.Context, title, excludeID string) (string, error) {
	base := helpers.Slugify(title)
	if base == "" {
		base = "otomasyon"
	}
	candidate := base
	for i := 2; i <= 50; i++ {
		exists, err := s.Automations.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return base + "-" + uuid.NewString()[:8], nil
}

func (s *DeveloperService) MyAutomations(ctx context.Context, userID string) ([]entity.Automation, error) {
	return s.Automations.ListByDeveloper(ctx, userID)
}

// Create stores a new listing awaiting moderation.
func (s *DeveloperService) Create(ctx context.Context, userID string, in AutomationInput) (*entity.Automation, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	slug, err := s.uniqueSlug(ctx, in.Title, "")
	if err != nil {
		return nil, err
	}
	a := &entity.Automation{
		DeveloperID:      userID,
		CategoryID:       in.CategoryID,
		Title:            in.Title,
		Slug:             slug,
		ShortDescription: strings.TrimSpace(in.ShortDescription),
		Description:      strings.TrimSpace(in.Description),
		PriceCents:       in.PriceCents,
		Currency:         s.Cfg.Currency,
		Platform:         strings.TrimSpace(in.Platform),
		Tags:             in.Tags,
		DemoURL:          strings.TrimSpace(in.DemoURL),
		Status:           entity.StatusPending,
		IsActive:         true,
	}
	if err := s.Automations.Create(ctx, a); err != nil {
		return nil, err
	}
	helpers.LogInfo(s.Logger, "automation created", logrus.Fields{"automation_id": a.ID, "developer_id": userID})
	return a, nil
}

func (s *DeveloperService) owned(ctx context.Context, userID, id string) (*entity.Automation, error) {
	a, err := s.Automations.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, ErrAutomationNotFound)
	}
	if a.DeveloperID != userID {
		return nil, ErrNotOwner
	}
	return a, nil
}

// Update edits a listing and sends it back to moderation.
func (s *DeveloperService) Update(ctx context.Context, userID, id string, in AutomationInput) (*entity.Automation, error) {
	a, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	wasListed := a.Listed()
	if in.Title != a.Title {
		slug, err := s.uniqueSlug(ctx, in.Title, a.ID)
		if err != nil {
			return nil, err
		}
		a.Slug = slug
	}
	a.CategoryID = in.CategoryID
	a.Title = in.Title
	a.ShortDescription = strings.TrimSpace(in.ShortDescription)
	a.Description = strings.TrimSpace(in.Description)
	a.PriceCents = in.PriceCents
	a.Platform = strings.TrimSpace(in.Platform)
	a.Tags = in.Tags
	a.DemoURL = strings.TrimSpace(in.DemoURL)
	a.Status = entity.StatusPending
	a.RejectionReason = ""
	a.ApprovedAt = nil
	if err := s.Automations.Update(ctx, a); err != nil {
		return nil, err
	}
	if wasListed {
		s.unlist(ctx, a.ID)
	}
	return a, nil
}

func (s *DeveloperService) Delete(ctx context.Context, userID, id string) error {
	a, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.Automations.Delete(ctx, a.ID); err != nil {
		return orNotFound(err, ErrAutomationNotFound)
	}
	if a.HasFile() {
		s.removeObject(ctx, a.FilePath)
	}
	s.unlist(ctx, a.ID)
	return nil
}

// unlist drops a listing from search and the category counts.
func (s *DeveloperService) unlist(ctx context.Context, id string) {
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			helpers.LogWarn(s.Logger, "es delete failed", err, logrus.Fields{"automation_id": id})
		}
	}
	s.Cache.Invalidate(ctx, cache.KeyCategories)
}

func (s *DeveloperService) removeObject(ctx context.Context, objectPath string) {
	if err := s.Store.Delete(ctx, objectPath); err != nil {
		helpers.LogWarn(s.Logger, "object delete failed", err, logrus.Fields{"path": objectPath})
	}
}

// UploadFile stores the deliverable (json, zip, txt, js or py up to 50 MB).
func (s *DeveloperService) UploadFile(ctx context.Context, userID, id string, up Upload) (*entity.Automation, error) {
	ct, err := checkFile(up)
	if err != nil {
		return nil, err
	}
	a, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	objectPath := storage.ObjectPath(storage.PrefixFiles, a.ID, up.Filename)
	if _, err := s.Store.Upload(ctx, objectPath, ct, up.Reader); err != nil {
		return nil, storageErr(err)
	}
	if err := s.Automations.SetFilePath(ctx, a.ID, objectPath); err != nil {
		return nil, err
	}
	if a.HasFile() {
		s.removeObject(ctx, a.FilePath)
	}
	a.FilePath = objectPath

	// A new deliverable has not been reviewed.
	if a.Status == entity.StatusApproved {
		wasListed := a.Listed()
		if err := s.Automations.SetStatus(ctx, a.ID, entity.StatusPending, ""); err != nil {
			return nil, err
		}
		a.Status = entity.StatusPending
		a.ApprovedAt = nil
		if wasListed {
			s.unlist(ctx, a.ID)
		}
		helpers.LogInfo(s.Logger, "automation file replaced, back to moderation", logrus.Fields{"automation_id": a.ID})
	}
	return a, nil
}

// UploadImage stores the cover image (png, jpg or webp up to 5 MB).
func (s *DeveloperService) UploadImage(ctx context.Context, userID, id string, up Upload) (*entity.Automation, error) {
	ct, err := checkImage(up)
	if err != nil {
		return nil, err
	}
	a, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	objectPath := storage.ObjectPath(storage.PrefixImages, a.ID, up.Filename)
	if _, err := s.Store.Upload(ctx, objectPath, ct, up.Reader); err != nil {
		return nil, storageErr(err)
	}
	url := s.Store.PublicURL(objectPath)
	if err := s.Automations.SetImageURL(ctx, a.ID, url); err != nil {
		return nil, err
	}
	a.ImageURL = url
	if a.Listed() && s.Index != nil {
		if err := s.Index.Index(ctx, a); err != nil {
			helpers.LogWarn(s.Logger, "es index failed", err, logrus.Fields{"automation_id": a.ID})
		}
	}
	return a, nil
}

type SalesReport struct {
	Sales   []entity.Purchase   `json:"sales"`
	Summary entity.SalesSummary `json:"summary"`
}

func (s *DeveloperService) Sales(ctx context.Context, userID string) (*SalesReport, error) {
	sales, sum, err := s.Purchases.ListSales(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &SalesReport{Sales: sales, Summary: sum}, nil
}

func paymentErr(err error) error {
	if errors.Is(err, payment.ErrNotConfigured) {
		return ErrPaymentsDisabled
	}
	return err
}

// ConnectStripe returns an onboarding link for the developer's Express
// account, creating and storing the account on first use.
func (s *DeveloperService) ConnectStripe(ctx context.Context, userID string) (string, error) {
	acct, err := s.Accounts.Get(ctx, userID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		u, uErr := s.Users.GetByID(ctx, userID)
		if uErr != nil {
			return "", orNotFound(uErr, ErrUserNotFound)
		}
		id, cErr := s.Payments.CreateExpressAccount(ctx, u.Email, s.Cfg.StripeConnectCountry)
		if cErr != nil {
			return "", paymentErr(cErr)
		}
		acct = &entity.StripeAccount{UserID: userID, AccountID: id}
		if err := s.Accounts.Upsert(ctx, acct); err != nil {
			return "", err
		}
		helpers.LogInfo(s.Logger, "stripe account created", logrus.Fields{"user_id": userID, "account_id": id})
	case err != nil:
		return "", err
	}
	base := s.Cfg.FrontendURL + "/gelistirici/odeme"
	link, err := s.Payments.CreateAccountLink(ctx, acct.AccountID, base+"?refresh=1", base+"?connected=1")
	if err != nil {
		return "", paymentErr(err)
	}
	return link, nil
}

// StripeStatus fetches the account from Stripe and stores its capability flags.
// A developer without an account gets an empty, not connected status.
func (s *DeveloperService) StripeStatus(ctx context.Context, userID string) (*entity.StripeAccount, error) {
	acct, err := s.Accounts.Get(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return &entity.StripeAccount{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.syncAccount(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *DeveloperService) syncAccount(ctx context.Context, acct *entity.StripeAccount) error {
	st, err := s.Payments.GetAccount(ctx, acct.AccountID)
	if err != nil {
		return paymentErr(err)
	}
	acct.ChargesEnabled = st.ChargesEnabled
	acct.PayoutsEnabled = st.PayoutsEnabled
	acct.DetailsSubmitted = st.DetailsSubmitted
	return s.Accounts.UpdateFlags(ctx, acct)
}

// SyncIncompleteAccounts refreshes accounts that cannot take payments yet and
// returns how many were updated.
func (s *DeveloperService) SyncIncompleteAccounts(ctx context.Context) (int, error) {
	accts, err := s.Accounts.ListIncomplete(ctx, 100)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range accts {
		if err := s.syncAccount(ctx, &accts[i]); err != nil {
			if errors.Is(err, ErrPaymentsDisabled) {
				return n, err
			}
			helpers.LogWarn(s.Logger, "stripe account sync failed", err, logrus.Fields{"account_id": accts[i].AccountID})
			continue
		}
		n++
	}
	return n, nil
}
