package postgres

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	"github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestUserRepositoryCreate(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("ayse@example.test", "hash", false).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("u-1", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO user_profiles")).
		WithArgs("u-1", "ayse", "Ayşe Yılmaz", "", "user").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_prefs")).
		WithArgs("u-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	u := &entity.User{Email: "Ayse@Example.test", Password: "hash"}
	p := &entity.Profile{Username: "ayse", FullName: "Ayşe Yılmaz"}
	require.NoError(t, repo.Create(context.Background(), u, p))

	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "u-1", p.ID)
	assert.Equal(t, entity.RoleUser, p.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &entity.User{Email: "a@example.test"}, &entity.Profile{Username: "abc"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGetByEmailNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("nobody@example.test").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), " Nobody@example.test ")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGetPrefs(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("FROM notification_prefs")).
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows([]string{"email_purchases", "email_sales", "email_reviews", "email_product_updates", "email_marketing"}).
			AddRow(true, false, true, true, false))

	p, err := repo.GetPrefs(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.UserID)
	assert.False(t, p.EmailSales)
	assert.True(t, p.EmailReviews)
}

func TestPurchaseRepositoryComplete(t *testing.T) {
	mock := newMock(t)
	repo := NewPurchaseRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE purchases")).
		WithArgs("p-1").
		WillReturnRows(pgxmock.NewRows([]string{"automation_id", "platform_fee_cents", "currency"}).AddRow("a-1", int64(1500), "try"))
	mock.ExpectExec(regexp.QuoteMeta("SELECT increment_automation_sales($1)")).
		WithArgs("a-1").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO platform_earnings")).
		WithArgs("p-1", int64(1500), "try").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	ok, err := repo.Complete(context.Background(), "p-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseRepositoryCompleteAcceptsExpired(t *testing.T) {
	mock := newMock(t)
	repo := NewPurchaseRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`status IN \('pending', 'expired'\)[\s\S]*NOT EXISTS`).
		WithArgs("p-1").
		WillReturnRows(pgxmock.NewRows([]string{"automation_id", "platform_fee_cents", "currency"}).AddRow("a-1", int64(735), "try"))
	mock.ExpectExec(regexp.QuoteMeta("SELECT increment_automation_sales($1)")).
		WithArgs("a-1").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO platform_earnings")).
		WithArgs("p-1", int64(735), "try").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	ok, err := repo.Complete(context.Background(), "p-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseRepositoryCompleteSkipsNonPending(t *testing.T) {
	mock := newMock(t)
	repo := NewPurchaseRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE purchases")).WithArgs("p-1").WillReturnError(pgx.ErrNoRows)
	mock.ExpectCommit()

	ok, err := repo.Complete(context.Background(), "p-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseRepositoryTransition(t *testing.T) {
	mock := newMock(t)
	repo := NewPurchaseRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE purchases SET status = $1")).
		WithArgs("failed", "p-1", []string{"pending"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.Transition(context.Background(), "p-1", entity.PurchaseFailed, entity.PurchasePending)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseRepositoryExpirePending(t *testing.T) {
	mock := newMock(t)
	repo := NewPurchaseRepository(mock)
	cutoff := time.Now().Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SET status = 'expired'")).
		WithArgs(cutoff).
		WillReturnRows(pgxmock.NewRows([]string{"payment_intent_id"}).AddRow("pi_1").AddRow("").AddRow("pi_3"))

	intents, err := repo.ExpirePending(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, []string{"pi_1", "", "pi_3"}, intents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFavoriteRepositoryToggle(t *testing.T) {
	mock := newMock(t)
	repo := NewFavoriteRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites")).
		WithArgs("u-1", "a-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites")).
		WithArgs("u-1", "a-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	on, err := repo.Toggle(context.Background(), "u-1", "a-1")
	require.NoError(t, err)
	assert.True(t, on)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites")).
		WithArgs("u-1", "a-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	on, err = repo.Toggle(context.Background(), "u-1", "a-1")
	require.NoError(t, err)
	assert.False(t, on)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeAccountUpdateFlagsUnknownAccount(t *testing.T) {
	mock := newMock(t)
	repo := NewStripeAccountRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE stripe_accounts")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateFlags(context.Background(), &entity.StripeAccount{AccountID: "acct_x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAuditRepositoryInsert(t *testing.T) {
	mock := newMock(t)
	repo := NewAuditRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Insert(context.Background(), entity.AuditLog{Action: "login", Email: "a@example.test"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildListQuery(t *testing.T) {
	minPrice := int64(100)
	tests := []struct {
		name     string
		filter   repository.AutomationFilter
		contains []string
		absent   []string
		nargs    int
	}{
		{
			name:     "defaults to newest",
			filter:   repository.AutomationFilter{},
			contains: []string{"a.status = 'approved'", "a.is_active", "ORDER BY a.created_at DESC, a.id DESC", "LIMIT $1"},
			absent:   []string{"OFFSET"},
			nargs:    1,
		},
		{
			name: "filters and keyset cursor",
			filter: repository.AutomationFilter{
				CategorySlug: "e-ticaret",
				Query:        "fatura",
				MinPrice:     &minPrice,
				Platform:     "zapier",
				After:        &repository.Cursor{CreatedAt: time.Unix(100, 0), ID: "a-1"},
				Offset:       24,
				Limit:        12,
			},
			contains: []string{"c.slug = $1", "a.title ILIKE $2 OR a.short_description ILIKE $2", "a.price_cents >= $3", "a.platform = $4", "(a.created_at, a.id) < ($5, $6::uuid)", "LIMIT $7"},
			absent:   []string{"OFFSET"},
			nargs:    7,
		},
		{
			name:     "price sort pages by offset",
			filter:   repository.AutomationFilter{Sort: repository.SortPriceAsc, Offset: 12, Limit: 12},
			contains: []string{"ORDER BY a.price_cents ASC", "LIMIT $1", "OFFSET $2"},
			nargs:    2,
		},
		{
			name:     "popular ignores cursor",
			filter:   repository.AutomationFilter{Sort: repository.SortPopular, After: &repository.Cursor{ID: "x"}},
			contains: []string{"ORDER BY a.total_sales DESC"},
			absent:   []string{"(a.created_at, a.id) <"},
			nargs:    1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildListQuery(tt.filter)
			for _, s := range tt.contains {
				assert.Contains(t, sql, s)
			}
			for _, s := range tt.absent {
				assert.False(t, strings.Contains(sql, s), "unexpected %q", s)
			}
			assert.Len(t, args, tt.nargs)
		})
	}
}

func TestPurchaseRepositoryStatsExcludesRefundedEarnings(t *testing.T) {
	mock := newMock(t)
	repo := NewPurchaseRepository(mock)

	mock.ExpectQuery(`FROM platform_earnings e\s+JOIN purchases p ON p.id = e.purchase_id\s+WHERE p.status = 'completed'`).
		WillReturnRows(pgxmock.NewRows([]string{"users", "developers", "approved", "pending", "completed", "gross", "earnings"}).
			AddRow(10, 3, 7, 2, 4, int64(19600), int64(2940)))

	s, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, s.CompletedPurchases)
	assert.Equal(t, int64(2940), s.PlatformEarnings)
	assert.NoError(t, mock.ExpectationsWereMet())
}
