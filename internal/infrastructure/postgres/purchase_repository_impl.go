package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	"github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
)

type PurchaseRepository struct {
	db DBTX
}

func NewPurchaseRepository(db DBTX) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

const purchaseColumns = `pu.id, pu.buyer_id, pu.automation_id, pu.developer_id, pu.amount_cents,
	pu.platform_fee_cents, pu.currency, pu.status, pu.payment_intent_id, pu.created_at, pu.completed_at,
	a.title, a.slug, a.image_url, b.username`

const purchaseFrom = `
	FROM purchases pu
	JOIN automations a ON a.id = pu.automation_id
	JOIN user_profiles b ON b.id = pu.buyer_id`

func scanPurchase(row pgx.Row) (*entity.Purchase, error) {
	p := &entity.Purchase{}
	var (
		status      string
		intent      pgtype.Text
		completedAt pgtype.Timestamptz
	)
	err := row.Scan(&p.ID, &p.BuyerID, &p.AutomationID, &p.DeveloperID, &p.AmountCents,
		&p.PlatformFeeCents, &p.Currency, &status, &intent, &p.CreatedAt, &completedAt,
		&p.AutomationTitle, &p.AutomationSlug, &p.ImageURL, &p.BuyerUsername)
	if err != nil {
		return nil, notFound(err)
	}
	p.Status = entity.PurchaseStatus(status)
	p.PaymentIntentID = textPtr(intent)
	p.CompletedAt = timePtr(completedAt)
	return p, nil
}

func collectPurchases(rows pgx.Rows) ([]entity.Purchase, error) {
	defer rows.Close()
	out := []entity.Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PurchaseRepository) Create(ctx context.Context, p *entity.Purchase) error {
	if p.Status == "" {
		p.Status = entity.PurchasePending
	}
	var completedAt pgtype.Timestamptz
	if p.CompletedAt != nil {
		completedAt = pgtype.Timestamptz{Time: *p.CompletedAt, Valid: true}
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO purchases (buyer_id, automation_id, developer_id, amount_cents, platform_fee_cents,
			currency, status, payment_intent_id, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, p.BuyerID, p.AutomationID, p.DeveloperID, p.AmountCents, p.PlatformFeeCents,
		p.Currency, string(p.Status), p.PaymentIntentID, completedAt).Scan(&p.ID, &p.CreatedAt)
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id string) (*entity.Purchase, error) {
	return scanPurchase(r.db.QueryRow(ctx, `SELECT `+purchaseColumns+purchaseFrom+` WHERE pu.id = $1`, id))
}

func (r *PurchaseRepository) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*entity.Purchase, error) {
	return scanPurchase(r.db.QueryRow(ctx, `SELECT `+purchaseColumns+purchaseFrom+` WHERE pu.payment_intent_id = $1`, paymentIntentID))
}

func (r *PurchaseRepository) FindPending(ctx context.Context, buyerID, automationID string) (*entity.Purchase, error) {
	return scanPurchase(r.db.QueryRow(ctx, `SELECT `+purchaseColumns+purchaseFrom+`
		WHERE pu.buyer_id = $1 AND pu.automation_id = $2 AND pu.status = 'pending'
		ORDER BY pu.created_at DESC
		LIMIT 1`, buyerID, automationID))
}

func (r *PurchaseRepository) HasCompleted(ctx context.Context, buyerID, automationID string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM purchases
			WHERE buyer_id = $1 AND automation_id = $2 AND status = 'completed'
		)
	`, buyerID, automationID).Scan(&ok)
	return ok, err
}

func (r *PurchaseRepository) SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error {
	res, err := r.db.Exec(ctx, `UPDATE purchases SET payment_intent_id = $1 WHERE id = $2`, paymentIntentID, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PurchaseRepository) Complete(ctx context.Context, id string) (bool, error) {
	completed := false
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var (
			automationID string
			fee          int64
			currency     string
		)
		// Expired attempts still complete when Stripe reports a late payment,
		// unless the buyer already owns the automation through another purchase.
		err := tx.QueryRow(ctx, `
			UPDATE purchases pu
			SET status = 'completed', completed_at = NOW()
			WHERE pu.id = $1 AND pu.status IN ('pending', 'expired')
			  AND NOT EXISTS (
				SELECT 1 FROM purchases o
				WHERE o.buyer_id = pu.buyer_id AND o.automation_id = pu.automation_id
				  AND o.status = 'completed'
			  )
			RETURNING pu.automation_id, pu.platform_fee_cents, pu.currency
		`, id).Scan(&automationID, &fee, &currency)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `SELECT increment_automation_sales($1)`, automationID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO platform_earnings (purchase_id, amount_cents, currency)
			VALUES ($1, $2, $3)
			ON CONFLICT (purchase_id) DO NOTHING
		`, id, fee, currency); err != nil {
			return err
		}
		completed = true
		return nil
	})
	return completed, err
}

func (r *PurchaseRepository) Transition(ctx context.Context, id string, to entity.PurchaseStatus, from ...entity.PurchaseStatus) (bool, error) {
	states := make([]string, 0, len(from))
	for _, s := range from {
		states = append(states, string(s))
	}
	res, err := r.db.Exec(ctx, `
		UPDATE purchases SET status = $1
		WHERE id = $2 AND status = ANY($3)
	`, string(to), id, states)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *PurchaseRepository) ExpirePending(ctx context.Context, olderThan time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE purchases SET status = 'expired'
		WHERE status = 'pending' AND created_at < $1
		RETURNING COALESCE(payment_intent_id, '')
	`, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var intent string
		if err := rows.Scan(&intent); err != nil {
			return nil, err
		}
		out = append(out, intent)
	}
	return out, rows.Err()
}

func (r *PurchaseRepository) ListByBuyer(ctx context.Context, buyerID string) ([]entity.Purchase, error) {
	rows, err := r.db.Query(ctx, `SELECT `+purchaseColumns+purchaseFrom+`
		WHERE pu.buyer_id = $1 AND pu.status IN ('completed', 'refunded')
		ORDER BY pu.created_at DESC`, buyerID)
	if err != nil {
		return nil, err
	}
	return collectPurchases(rows)
}

func (r *PurchaseRepository) ListSales(ctx context.Context, developerID string) ([]entity.Purchase, entity.SalesSummary, error) {
	var sum entity.SalesSummary
	rows, err := r.db.Query(ctx, `SELECT `+purchaseColumns+purchaseFrom+`
		WHERE pu.developer_id = $1 AND pu.status = 'completed'
		ORDER BY pu.completed_at DESC`, developerID)
	if err != nil {
		return nil, sum, err
	}
	sales, err := collectPurchases(rows)
	if err != nil {
		return nil, sum, err
	}
	for _, p := range sales {
		sum.Count++
		sum.GrossCents += p.AmountCents
		sum.FeeCents += p.PlatformFeeCents
	}
	sum.NetCents = sum.GrossCents - sum.FeeCents
	return sales, sum, nil
}

func (r *PurchaseRepository) Stats(ctx context.Context) (entity.PlatformStats, error) {
	var s entity.PlatformStats
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM user_profiles),
			(SELECT COUNT(*) FROM user_profiles WHERE role = 'developer'),
			(SELECT COUNT(*) FROM automations WHERE status = 'approved'),
			(SELECT COUNT(*) FROM automations WHERE status = 'pending'),
			(SELECT COUNT(*) FROM purchases WHERE status = 'completed'),
			(SELECT COALESCE(SUM(amount_cents), 0)::bigint FROM purchases WHERE status = 'completed'),
			(SELECT COALESCE(SUM(e.amount_cents), 0)::bigint
			   FROM platform_earnings e
			   JOIN purchases p ON p.id = e.purchase_id
			  WHERE p.status = 'completed')
	`).Scan(&s.Users, &s.Developers, &s.ApprovedAutomations, &s.PendingAutomations,
		&s.CompletedPurchases, &s.GrossVolumeCents, &s.PlatformEarnings)
	return s, err
}

type StripeAccountRepository struct {
	db DBTX
}

func NewStripeAccountRepository(db DBTX) *StripeAccountRepository {
	return &StripeAccountRepository{db: db}
}

func (r *StripeAccountRepository) Get(ctx context.Context, userID string) (*entity.StripeAccount, error) {
	a := &entity.StripeAccount{}
	err := r.db.QueryRow(ctx, `
		SELECT user_id, account_id, charges_enabled, payouts_enabled, details_submitted, updated_at
		FROM stripe_accounts
		WHERE user_id = $1
	`, userID).Scan(&a.UserID, &a.AccountID, &a.ChargesEnabled, &a.PayoutsEnabled, &a.DetailsSubmitted, &a.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *StripeAccountRepository) Upsert(ctx context.Context, a *entity.StripeAccount) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO stripe_accounts (user_id, account_id, charges_enabled, payouts_enabled, details_submitted)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET account_id = EXCLUDED.account_id,
		    charges_enabled = EXCLUDED.charges_enabled,
		    payouts_enabled = EXCLUDED.payouts_enabled,
		    details_submitted = EXCLUDED.details_submitted,
		    updated_at = NOW()
		RETURNING updated_at
	`, a.UserID, a.AccountID, a.ChargesEnabled, a.PayoutsEnabled, a.DetailsSubmitted).Scan(&a.UpdatedAt)
}

// UpdateFlags updates the capability flags by Stripe account id.
func (r *StripeAccountRepository) UpdateFlags(ctx context.Context, a *entity.StripeAccount) error {
	res, err := r.db.Exec(ctx, `
		UPDATE stripe_accounts
		SET charges_enabled = $1, payouts_enabled = $2, details_submitted = $3, updated_at = NOW()
		WHERE account_id = $4
	`, a.ChargesEnabled, a.PayoutsEnabled, a.DetailsSubmitted, a.AccountID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *StripeAccountRepository) ListIncomplete(ctx context.Context, limit int) ([]entity.StripeAccount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, account_id, charges_enabled, payouts_enabled, details_submitted, updated_at
		FROM stripe_accounts
		WHERE NOT (charges_enabled AND payouts_enabled AND details_submitted)
		ORDER BY updated_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []entity.StripeAccount{}
	for rows.Next() {
		var a entity.StripeAccount
		if err := rows.Scan(&a.UserID, &a.AccountID, &a.ChargesEnabled, &a.PayoutsEnabled, &a.DetailsSubmitted, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var (
	_ repository.PurchaseRepository      = (*PurchaseRepository)(nil)
	_ repository.StripeAccountRepository = (*StripeAccountRepository)(nil)
)
