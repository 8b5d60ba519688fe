package postgres

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	"github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const profileColumns = `p.id, p.username, p.full_name, p.avatar_url, p.bio, p.website, p.role,
	p.iban, p.bank_name, p.developer_since, p.created_at, p.updated_at`

func scanProfile(row pgx.Row, extra ...any) (*entity.Profile, error) {
	p := &entity.Profile{}
	var (
		role             string
		ibanTxt, bankTxt pgtype.Text
		devSince         pgtype.Timestamptz
	)
	dest := append([]any{&p.ID, &p.Username, &p.FullName, &p.AvatarURL, &p.Bio, &p.Website, &role,
		&ibanTxt, &bankTxt, &devSince, &p.CreatedAt, &p.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, notFound(err)
	}
	p.Role = entity.Role(role)
	p.IBAN = ibanTxt.String
	p.BankName = bankTxt.String
	p.DeveloperSince = timePtr(devSince)
	return p, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User, p *entity.Profile) error {
	if p.Role == "" {
		p.Role = entity.RoleUser
	}
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO users (email, password_hash, is_verified)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at
		`, strings.ToLower(u.Email), u.Password, u.IsVerified)
		if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		p.ID = u.ID
		row = tx.QueryRow(ctx, `
			INSERT INTO user_profiles (id, username, full_name, avatar_url, role)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at
		`, p.ID, p.Username, p.FullName, p.AvatarURL, string(p.Role))
		if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO notification_prefs (user_id) VALUES ($1) ON CONFLICT DO NOTHING`, u.ID)
		return err
	})
}

func (r *UserRepository) getUser(ctx context.Context, where string, arg any) (*entity.User, error) {
	u := &entity.User{}
	row := r.db.QueryRow(ctx, `
		SELECT id, email, password_hash, is_verified, created_at, updated_at
		FROM users
		WHERE `+where+` = $1
	`, arg)
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getUser(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getUser(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) SetVerified(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM user_profiles WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (r *UserRepository) GetProfile(ctx context.Context, id string) (*entity.Profile, error) {
	return scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles p WHERE p.id = $1`, id))
}

func (r *UserRepository) GetProfileByUsername(ctx context.Context, username string) (*entity.Profile, error) {
	return scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles p WHERE p.username = $1`, username))
}

func (r *UserRepository) UpdateProfile(ctx context.Context, p *entity.Profile) error {
	row := r.db.QueryRow(ctx, `
		UPDATE user_profiles
		SET username = $1, full_name = $2, avatar_url = $3, bio = $4, website = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`, p.Username, p.FullName, p.AvatarURL, p.Bio, p.Website, p.ID)
	return notFound(row.Scan(&p.UpdatedAt))
}

func (r *UserRepository) SetRole(ctx context.Context, id string, role entity.Role) error {
	res, err := r.db.Exec(ctx, `
		UPDATE user_profiles
		SET role = $1,
		    developer_since = CASE WHEN $1 = 'developer' THEN COALESCE(developer_since, NOW()) ELSE developer_since END,
		    updated_at = NOW()
		WHERE id = $2
	`, string(role), id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) PromoteDeveloper(ctx context.Context, id, iban, bankName string) (*entity.Profile, error) {
	return scanProfile(r.db.QueryRow(ctx, `
		UPDATE user_profiles p
		SET iban = $1,
		    bank_name = $2,
		    role = CASE WHEN p.role = 'user' THEN 'developer' ELSE p.role END,
		    developer_since = COALESCE(p.developer_since, NOW()),
		    updated_at = NOW()
		WHERE p.id = $3
		RETURNING `+profileColumns, iban, nullText(bankName), id))
}

func (r *UserRepository) ListAccounts(ctx context.Context, q string, role entity.Role, limit, offset int) ([]entity.Account, error) {
	var (
		conds []string
		args  []any
	)
	if q = strings.TrimSpace(q); q != "" {
		args = append(args, "%"+q+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, "(u.email ILIKE $"+n+" OR p.username ILIKE $"+n+" OR p.full_name ILIKE $"+n+")")
	}
	if role != "" {
		args = append(args, string(role))
		conds = append(conds, "p.role = $"+strconv.Itoa(len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit, offset)
	rows, err := r.db.Query(ctx, `
		SELECT `+profileColumns+`, u.email, u.is_verified
		FROM user_profiles p
		JOIN users u ON u.id = p.id
		`+where+`
		ORDER BY p.created_at DESC
		LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Account
	for rows.Next() {
		var a entity.Account
		p, err := scanProfile(rows, &a.User.Email, &a.User.IsVerified)
		if err != nil {
			return nil, err
		}
		a.Profile = *p
		a.User.ID = p.ID
		a.User.CreatedAt = p.CreatedAt
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *UserRepository) GetPrefs(ctx context.Context, userID string) (*entity.NotificationPrefs, error) {
	p := &entity.NotificationPrefs{UserID: userID}
	err := r.db.QueryRow(ctx, `
		SELECT email_purchases, email_sales, email_reviews, email_product_updates, email_marketing
		FROM notification_prefs
		WHERE user_id = $1
	`, userID).Scan(&p.EmailPurchases, &p.EmailSales, &p.EmailReviews, &p.EmailProductUpdates, &p.EmailMarketing)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *UserRepository) UpsertPrefs(ctx context.Context, p *entity.NotificationPrefs) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO notification_prefs (user_id, email_purchases, email_sales, email_reviews, email_product_updates, email_marketing)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET email_purchases = EXCLUDED.email_purchases,
		    email_sales = EXCLUDED.email_sales,
		    email_reviews = EXCLUDED.email_reviews,
		    email_product_updates = EXCLUDED.email_product_updates,
		    email_marketing = EXCLUDED.email_marketing,
		    updated_at = NOW()
	`, p.UserID, p.EmailPurchases, p.EmailSales, p.EmailReviews, p.EmailProductUpdates, p.EmailMarketing)
	return err
}

type AuditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, l entity.AuditLog) error {
	md, err := json.Marshal(l.Metadata)
	if err != nil || l.Metadata == nil {
		md = []byte("{}")
	}
	var uid pgtype.UUID
	if l.UserID != "" {
		_ = uid.Scan(l.UserID)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO audit_logs (user_id, email, action, ip, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uid, nullText(l.Email), l.Action, nullText(l.IP), nullText(l.UserAgent), md)
	return err
}

var (
	_ repository.UserRepository  = (*UserRepository)(nil)
	_ repository.AuditRepository = (*AuditRepository)(nil)
)
