package application

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/config"
	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	repo "github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/payment"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/storage"
	"github.com/oksasatya/otomasyon-magazasi/internal/metrics"
	"github.com/oksasatya/otomasyon-magazasi/pkg/apperror"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
	tpl "github.com/oksasatya/otomasyon-magazasi/pkg/mailer/templates"
)

const (
	eventClaimTTL  = 7 * 24 * time.Hour
	pendingMaxAge  = 24 * time.Hour
	webhookHandled = "processed"
	webhookIgnored = "ignored"
)

func keyStripeEvent(id string) string { return "stripe:event:" + id }

// CheckoutKey is the Stripe idempotency key of a purchase attempt.
func CheckoutKey(buyerID, automationID, purchaseID string) string {
	return fmt.Sprintf("checkout:%s:%s:%s", buyerID, automationID, purchaseID)
}

type CheckoutService struct {
	Users       repo.UserRepository
	Automations repo.AutomationRepository
	Purchases   repo.PurchaseRepository
	Accounts    repo.StripeAccountRepository
	Payments    payment.Gateway
	Cart        *CartService
	Store       storage.FileStore
	Redis       *redis.Client
	Mail        Mailer
	Cfg         *config.Config
	Logger      *logrus.Logger
}

type CheckoutResult struct {
	PurchaseID       string                `json:"purchase_id"`
	AutomationID     string                `json:"automation_id"`
	ClientSecret     string                `json:"client_secret,omitempty"`
	AmountCents      int64                 `json:"amount_cents"`
	PlatformFeeCents int64                 `json:"platform_fee_cents"`
	Currency         string                `json:"currency"`
	Status           entity.PurchaseStatus `json:"status"`
}

// Checkout starts a purchase of one automation. Paid automations get a
// destination-charge PaymentIntent; free ones complete immediately.
func (s *CheckoutService) Checkout(ctx context.Context, buyerID, automationID string) (*CheckoutResult, error) {
	res, err := s.checkout(ctx, buyerID, automationID)
	metrics.RecordCheckout(err)
	return res, err
}

func (s *CheckoutService) checkout(ctx context.Context, buyerID, automationID string) (*CheckoutResult, error) {
	a, err := s.Automations.GetByID(ctx, automationID)
	if err != nil {
		return nil, orNotFound(err, ErrAutomationNotFound)
	}
	if !a.Listed() {
		return nil, ErrNotPurchasable
	}
	if a.DeveloperID == buyerID {
		return nil, ErrOwnAutomation
	}
	owned, err := s.Purchases.HasCompleted(ctx, buyerID, a.ID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, ErrAlreadyPurchased
	}
	if a.Free() {
		return s.completeFree(ctx, buyerID, a)
	}

	acct, err := s.Accounts.Get(ctx, a.DeveloperID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if !acct.Ready() {
		return nil, ErrSellerNotReady
	}

	p, err := s.pendingPurchase(ctx, buyerID, a)
	if err != nil {
		return nil, err
	}
	intent, err := s.Payments.CreatePaymentIntent(ctx, payment.IntentInput{
		AmountCents:      p.AmountCents,
		PlatformFeeCents: p.PlatformFeeCents,
		Currency:         p.Currency,
		Destination:      acct.AccountID,
		Description:      a.Title,
		IdempotencyKey:   CheckoutKey(buyerID, a.ID, p.ID),
		Metadata: map[string]string{
			"purchase_id":   p.ID,
			"automation_id": a.ID,
			"buyer_id":      buyerID,
			"developer_id":  a.DeveloperID,
		},
	})
	if err != nil {
		return nil, paymentErr(err)
	}
	if p.PaymentIntentID == nil || *p.PaymentIntentID != intent.ID {
		if err := s.Purchases.SetPaymentIntent(ctx, p.ID, intent.ID); err != nil {
			return nil, err
		}
	}
	helpers.LogInfo(s.Logger, "checkout started", logrus.Fields{
		"purchase_id": p.ID, "automation_id": a.ID, "buyer_id": buyerID, "payment_intent": intent.ID,
	})
	return &CheckoutResult{
		PurchaseID:       p.ID,
		AutomationID:     a.ID,
		ClientSecret:     intent.ClientSecret,
		AmountCents:      p.AmountCents,
		PlatformFeeCents: p.PlatformFeeCents,
		Currency:         p.Currency,
		Status:           p.Status,
	}, nil
}

// pendingPurchase reuses the buyer's open attempt when its price still
// matches, otherwise expires it and opens a new one.
func (s *CheckoutService) pendingPurchase(ctx context.Context, buyerID string, a *entity.Automation) (*entity.Purchase, error) {
	fee := s.Cfg.PlatformFee(a.PriceCents)
	p, err := s.Purchases.FindPending(ctx, buyerID, a.ID)
	switch {
	case err == nil && p.AmountCents == a.PriceCents && p.PlatformFeeCents == fee:
		return p, nil
	case err == nil:
		if p.PaymentIntentID != nil {
			if cErr := s.Payments.CancelPaymentIntent(ctx, *p.PaymentIntentID); cErr != nil {
				helpers.LogWarn(s.Logger, "stale payment intent not canceled", cErr, logrus.Fields{
					"purchase_id": p.ID, "payment_intent": *p.PaymentIntentID,
				})
			}
		}
		if _, tErr := s.Purchases.Transition(ctx, p.ID, entity.PurchaseExpired, entity.PurchasePending); tErr != nil {
			return nil, tErr
		}
	case !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}
	p = &entity.Purchase{
		BuyerID:          buyerID,
		AutomationID:     a.ID,
		DeveloperID:      a.DeveloperID,
		AmountCents:      a.PriceCents,
		PlatformFeeCents: fee,
		Currency:         s.currency(a),
		Status:           entity.PurchasePending,
	}
	if err := s.Purchases.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CheckoutService) currency(a *entity.Automation) string {
	if a.Currency != "" {
		return a.Currency
	}
	return s.Cfg.Currency
}

func (s *CheckoutService) completeFree(ctx context.Context, buyerID string, a *entity.Automation) (*CheckoutResult, error) {
	p := &entity.Purchase{
		BuyerID:      buyerID,
		AutomationID: a.ID,
		DeveloperID:  a.DeveloperID,
		Currency:     s.currency(a),
		Status:       entity.PurchasePending,
	}
	if err := s.Purchases.Create(ctx, p); err != nil {
		return nil, err
	}
	if _, err := s.Purchases.Complete(ctx, p.ID); err != nil {
		return nil, err
	}
	s.notifyPurchase(ctx, p.ID)
	return &CheckoutResult{
		PurchaseID:   p.ID,
		AutomationID: a.ID,
		Currency:     p.Currency,
		Status:       entity.PurchaseCompleted,
	}, nil
}

type CartItemError struct {
	AutomationID string `json:"automation_id"`
	Message      string `json:"message"`
}

type CartCheckout struct {
	Items  []CheckoutResult `json:"items"`
	Failed []CartItemError  `json:"failed"`
}

// CheckoutCart starts one checkout per cart item. Completed or already owned
// items leave the cart.
func (s *CheckoutService) CheckoutCart(ctx context.Context, buyerID string) (*CartCheckout, error) {
	ids, err := s.Cart.IDs(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrCartEmpty
	}
	out := &CartCheckout{Items: []CheckoutResult{}, Failed: []CartItemError{}}
	var done []any
	for _, id := range ids {
		res, err := s.Checkout(ctx, buyerID, id)
		if err != nil {
			if errors.Is(err, ErrAlreadyPurchased) {
				done = append(done, id)
			}
			if apperror.Classify(err) == apperror.KindServer || apperror.Classify(err) == apperror.KindDatabase {
				helpers.LogError(s.Logger, "cart checkout item failed", err, logrus.Fields{"automation_id": id})
			}
			out.Failed = append(out.Failed, CartItemError{AutomationID: id, Message: apperror.UserMessage(err)})
			continue
		}
		if res.Status == entity.PurchaseCompleted {
			done = append(done, id)
		}
		out.Items = append(out.Items, *res)
	}
	if len(done) > 0 && s.Redis != nil {
		if err := s.Redis.SRem(ctx, cartKey(buyerID), done...).Err(); err != nil {
			helpers.LogWarn(s.Logger, "cart cleanup failed", err, logrus.Fields{"user_id": buyerID})
		}
	}
	return out, nil
}

// ParseWebhook verifies the Stripe-Signature header of a raw webhook body.
func (s *CheckoutService) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	return s.Payments.ParseEvent(payload, signature)
}

// HandleEvent applies a verified Stripe event once. Redelivered event ids are
// acknowledged without work; a failure releases the claim so Stripe's retry
// is processed.
func (s *CheckoutService) HandleEvent(ctx context.Context, ev *payment.Event) error {
	key := keyStripeEvent(ev.ID)
	claimed := false
	if s.Redis != nil && ev.ID != "" {
		won, err := helpers.RedisClaim(ctx, s.Redis, key, eventClaimTTL)
		if err != nil {
			helpers.LogWarn(s.Logger, "stripe event claim failed", err, logrus.Fields{"event_id": ev.ID})
		} else if !won {
			metrics.RecordWebhook(ev.Type, "duplicate")
			return nil
		} else {
			claimed = true
		}
	}

	outcome, err := s.dispatch(ctx, ev)
	if err != nil {
		if claimed {
			_ = s.Redis.Del(ctx, key).Err()
		}
		metrics.RecordWebhook(ev.Type, "error")
		helpers.LogError(s.Logger, "stripe event failed", err, logrus.Fields{"event_id": ev.ID, "type": ev.Type})
		return err
	}
	metrics.RecordWebhook(ev.Type, outcome)
	helpers.LogInfo(s.Logger, "stripe event handled", logrus.Fields{"event_id": ev.ID, "type": ev.Type, "outcome": outcome})
	return nil
}

func (s *CheckoutService) dispatch(ctx context.Context, ev *payment.Event) (string, error) {
	switch ev.Type {
	case payment.EventPaymentSucceeded:
		p, err := s.eventPurchase(ctx, ev)
		if err != nil || p == nil {
			return webhookIgnored, err
		}
		changed, err := s.Purchases.Complete(ctx, p.ID)
		if err != nil {
			return "", err
		}
		if !changed {
			return webhookIgnored, nil
		}
		s.notifyPurchase(ctx, p.ID)
		return webhookHandled, nil

	case payment.EventPaymentFailed, payment.EventPaymentCanceled:
		return s.transition(ctx, ev, entity.PurchaseFailed, entity.PurchasePending)

	case payment.EventChargeRefunded:
		return s.transition(ctx, ev, entity.PurchaseRefunded, entity.PurchaseCompleted)

	case payment.EventAccountUpdated:
		if ev.Account == nil || ev.Account.ID == "" {
			return webhookIgnored, nil
		}
		err := s.Accounts.UpdateFlags(ctx, &entity.StripeAccount{
			AccountID:        ev.Account.ID,
			ChargesEnabled:   ev.Account.ChargesEnabled,
			PayoutsEnabled:   ev.Account.PayoutsEnabled,
			DetailsSubmitted: ev.Account.DetailsSubmitted,
		})
		if errors.Is(err, repo.ErrNotFound) {
			return webhookIgnored, nil
		}
		if err != nil {
			return "", err
		}
		return webhookHandled, nil
	}
	return webhookIgnored, nil
}

func (s *CheckoutService) transition(ctx context.Context, ev *payment.Event, to entity.PurchaseStatus, from entity.PurchaseStatus) (string, error) {
	p, err := s.eventPurchase(ctx, ev)
	if err != nil || p == nil {
		return webhookIgnored, err
	}
	changed, err := s.Purchases.Transition(ctx, p.ID, to, from)
	if err != nil {
		return "", err
	}
	if !changed {
		return webhookIgnored, nil
	}
	return webhookHandled, nil
}

// eventPurchase finds the purchase by metadata id, then by intent id. A nil
// purchase with a nil error means the event is not ours.
func (s *CheckoutService) eventPurchase(ctx context.Context, ev *payment.Event) (*entity.Purchase, error) {
	var (
		p   *entity.Purchase
		err = repo.ErrNotFound
	)
	if id := ev.Metadata["purchase_id"]; id != "" {
		p, err = s.Purchases.GetByID(ctx, id)
	}
	if errors.Is(err, repo.ErrNotFound) && ev.PaymentIntentID != "" {
		p, err = s.Purchases.GetByPaymentIntent(ctx, ev.PaymentIntentID)
	}
	if errors.Is(err, repo.ErrNotFound) {
		helpers.LogWarn(s.Logger, "stripe event without purchase", nil, logrus.Fields{"event_id": ev.ID, "payment_intent": ev.PaymentIntentID})
		return nil, nil
	}
	return p, err
}

// notifyPurchase emails the buyer's receipt and the developer's sale notice,
// each subject to the recipient's preferences.
func (s *CheckoutService) notifyPurchase(ctx context.Context, purchaseID string) {
	p, err := s.Purchases.GetByID(ctx, purchaseID)
	if err != nil {
		helpers.LogWarn(s.Logger, "purchase email: reload failed", err, logrus.Fields{"purchase_id": purchaseID})
		return
	}
	completedAt := time.Now()
	if p.CompletedAt != nil {
		completedAt = *p.CompletedAt
	}
	buyerName, buyerEmail := s.contact(ctx, p.BuyerID)
	data := tpl.Purchase{
		ID:              p.ID,
		AutomationTitle: p.AutomationTitle,
		AutomationSlug:  p.AutomationSlug,
		BuyerName:       buyerName,
		AmountMinor:     p.AmountCents,
		FeeMinor:        p.PlatformFeeCents,
		Currency:        p.Currency,
		CompletedAt:     completedAt,
	}
	if prefs, err := loadPrefs(ctx, s.Users, p.BuyerID); err == nil && prefs.EmailPurchases {
		sendMail(ctx, s.Mail, s.Logger, buyerEmail, tpl.NewPurchaseReceiptData(s.Cfg, buyerName, buyerEmail, data))
	}
	if prefs, err := loadPrefs(ctx, s.Users, p.DeveloperID); err == nil && prefs.EmailSales {
		devName, devEmail := s.contact(ctx, p.DeveloperID)
		sendMail(ctx, s.Mail, s.Logger, devEmail, tpl.NewSaleNotificationData(s.Cfg, devName, devEmail, data))
	}
}

func (s *CheckoutService) contact(ctx context.Context, userID string) (name, email string) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return "", ""
	}
	name = u.Email
	if p, err := s.Users.GetProfile(ctx, userID); err == nil {
		name = p.DisplayName()
	}
	return name, u.Email
}

func (s *CheckoutService) MyPurchases(ctx context.Context, buyerID string) ([]entity.Purchase, error) {
	return s.Purchases.ListByBuyer(ctx, buyerID)
}

type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DownloadURL signs a short-lived link to the automation file for the buyer of
// a completed purchase or the automation's developer.
func (s *CheckoutService) DownloadURL(ctx context.Context, userID, purchaseID string) (*DownloadLink, error) {
	p, err := s.Purchases.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, orNotFound(err, ErrPurchaseNotFound)
	}
	switch {
	case p.DeveloperID == userID:
	case p.BuyerID == userID && p.Status == entity.PurchaseCompleted:
	case p.BuyerID == userID:
		return nil, ErrPurchaseRequired
	default:
		return nil, ErrPurchaseNotFound
	}
	a, err := s.Automations.GetByID(ctx, p.AutomationID)
	if err != nil {
		return nil, orNotFound(err, ErrAutomationNotFound)
	}
	if !a.HasFile() {
		return nil, ErrNoFile
	}
	ttl := s.Cfg.SignedURLTTL
	url, err := s.Store.SignedURL(a.FilePath, a.Slug+path.Ext(a.FilePath), ttl)
	if err != nil {
		return nil, storageErr(err)
	}
	return &DownloadLink{URL: url, ExpiresAt: time.Now().Add(ttl)}, nil
}

// ExpirePending closes purchase attempts left pending for more than a day and
// cancels their payment intents. A payment that still lands completes the
// expired purchase through the webhook.
func (s *CheckoutService) ExpirePending(ctx context.Context) (int64, error) {
	intents, err := s.Purchases.ExpirePending(ctx, time.Now().Add(-pendingMaxAge))
	if err != nil {
		return 0, err
	}
	for _, id := range intents {
		if id == "" {
			continue
		}
		if err := s.Payments.CancelPaymentIntent(ctx, id); err != nil {
			helpers.LogWarn(s.Logger, "expired payment intent not canceled", err, logrus.Fields{"payment_intent": id})
		}
	}
	return int64(len(intents)), nil
}
