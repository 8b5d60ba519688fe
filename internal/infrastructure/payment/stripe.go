// Package payment adapts Stripe Connect for destination charges and webhooks.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Event types handled by the webhook.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventPaymentCanceled  = "payment_intent.canceled"
	EventChargeRefunded   = "charge.refunded"
	EventAccountUpdated   = "account.updated"
)

var (
	ErrNotConfigured    = errors.New("stripe is not configured")
	ErrInvalidSignature = errors.New("invalid stripe signature")
)

// IntentInput describes a destination charge for a single automation.
type IntentInput struct {
	AmountCents      int64
	PlatformFeeCents int64
	Currency         string
	Destination      string
	Description      string
	IdempotencyKey   string
	Metadata         map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

type AccountStatus struct {
	ID               string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

// Event is the subset of a Stripe event the webhook acts on.
type Event struct {
	ID              string
	Type            string
	PaymentIntentID string
	Metadata        map[string]string
	Account         *AccountStatus
}

// Gateway is the Stripe surface used by checkout, onboarding and webhooks.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, in IntentInput) (*Intent, error)
	CancelPaymentIntent(ctx context.Context, id string) error
	CreateExpressAccount(ctx context.Context, email, country string) (string, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	GetAccount(ctx context.Context, accountID string) (*AccountStatus, error)
	ParseEvent(payload []byte, signature string) (*Event, error)
}

type Stripe struct {
	api           *client.API
	webhookSecret string
}

// NewStripe returns nil when secretKey is empty; callers treat a nil gateway as disabled.
func NewStripe(secretKey, webhookSecret string) *Stripe {
	if secretKey == "" {
		return nil
	}
	return &Stripe{api: client.New(secretKey, nil), webhookSecret: webhookSecret}
}

func (s *Stripe) CreatePaymentIntent(ctx context.Context, in IntentInput) (*Intent, error) {
	if s == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.PaymentIntentParams{
		Amount:               stripe.Int64(in.AmountCents),
		Currency:             stripe.String(in.Currency),
		ApplicationFeeAmount: stripe.Int64(in.PlatformFeeCents),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(in.Destination),
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if in.Description != "" {
		params.Description = stripe.String(in.Description)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

// CancelPaymentIntent voids an unpaid intent so its client secret can no
// longer be confirmed. Intents Stripe already canceled count as success.
func (s *Stripe) CancelPaymentIntent(ctx context.Context, id string) error {
	if s == nil {
		return ErrNotConfigured
	}
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Cancel(id, params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.PaymentIntent != nil && serr.PaymentIntent.Status == stripe.PaymentIntentStatusCanceled {
			return nil
		}
		return fmt.Errorf("stripe cancel payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusCanceled {
		return fmt.Errorf("stripe cancel payment intent: status %s", pi.Status)
	}
	return nil
}

func (s *Stripe) CreateExpressAccount(ctx context.Context, email, country string) (string, error) {
	if s == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.AccountParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Country: stripe.String(country),
		Email:   stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	params.Context = ctx
	acct, err := s.api.Accounts.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create account: %w", err)
	}
	return acct.ID, nil
}

func (s *Stripe) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	if s == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx
	link, err := s.api.AccountLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create account link: %w", err)
	}
	return link.URL, nil
}

func (s *Stripe) GetAccount(ctx context.Context, accountID string) (*AccountStatus, error) {
	if s == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.AccountParams{}
	params.Context = ctx
	acct, err := s.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get account: %w", err)
	}
	return accountStatus(acct), nil
}

// ParseEvent verifies the Stripe-Signature header and extracts the fields the webhook needs.
func (s *Stripe) ParseEvent(payload []byte, signature string) (*Event, error) {
	if s == nil || s.webhookSecret == "" {
		return nil, ErrNotConfigured
	}
	return ParseEvent(payload, signature, s.webhookSecret)
}

// ParseEvent verifies payload against secret and decodes the event object.
func ParseEvent(payload []byte, signature, secret string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventPaymentSucceeded, EventPaymentFailed, EventPaymentCanceled:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.PaymentIntentID = pi.ID
		out.Metadata = pi.Metadata
	case EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(ev.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		if ch.PaymentIntent != nil {
			out.PaymentIntentID = ch.PaymentIntent.ID
		}
		out.Metadata = ch.Metadata
	case EventAccountUpdated:
		var acct stripe.Account
		if err := json.Unmarshal(ev.Data.Raw, &acct); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		out.Account = accountStatus(&acct)
	}
	return out, nil
}

func accountStatus(acct *stripe.Account) *AccountStatus {
	return &AccountStatus{
		ID:               acct.ID,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}
}

var _ Gateway = (*Stripe)(nil)
