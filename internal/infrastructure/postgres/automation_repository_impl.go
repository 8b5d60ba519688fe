package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	"github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
)

type AutomationRepository struct {
	db DBTX
}

func NewAutomationRepository(db DBTX) *AutomationRepository {
	return &AutomationRepository{db: db}
}

const automationColumns = `a.id, a.developer_id, a.category_id::text, a.title, a.slug, a.short_description,
	a.description, a.price_cents, a.currency, a.platform, a.tags, a.image_url, a.file_path, a.demo_url,
	a.status, a.rejection_reason, a.is_active, a.total_sales, a.rating_avg::float8, a.rating_count,
	a.created_at, a.updated_at, a.approved_at,
	COALESCE(c.name, ''), COALESCE(c.slug, ''), p.username, p.full_name`

const automationFrom = `
	FROM automations a
	LEFT JOIN categories c ON c.id = a.category_id
	JOIN user_profiles p ON p.id = a.developer_id`

func scanAutomation(row pgx.Row) (*entity.Automation, error) {
	a := &entity.Automation{}
	var (
		categoryID pgtype.Text
		status     string
		approvedAt pgtype.Timestamptz
	)
	err := row.Scan(&a.ID, &a.DeveloperID, &categoryID, &a.Title, &a.Slug, &a.ShortDescription,
		&a.Description, &a.PriceCents, &a.Currency, &a.Platform, &a.Tags, &a.ImageURL, &a.FilePath, &a.DemoURL,
		&status, &a.RejectionReason, &a.IsActive, &a.TotalSales, &a.RatingAvg, &a.RatingCount,
		&a.CreatedAt, &a.UpdatedAt, &approvedAt,
		&a.CategoryName, &a.CategorySlug, &a.DeveloperUsername, &a.DeveloperName)
	if err != nil {
		return nil, notFound(err)
	}
	a.CategoryID = textPtr(categoryID)
	a.Status = entity.AutomationStatus(status)
	a.ApprovedAt = timePtr(approvedAt)
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return a, nil
}

func collectAutomations(rows pgx.Rows) ([]entity.Automation, error) {
	defer rows.Close()
	out := []entity.Automation{}
	for rows.Next() {
		a, err := scanAutomation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AutomationRepository) Create(ctx context.Context, a *entity.Automation) error {
	if a.Tags == nil {
		a.Tags = []string{}
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO automations (developer_id, category_id, title, slug, short_description, description,
			price_cents, currency, platform, tags, demo_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'pending')
		RETURNING id, status, is_active, created_at, updated_at
	`, a.DeveloperID, a.CategoryID, a.Title, a.Slug, a.ShortDescription, a.Description,
		a.PriceCents, a.Currency, a.Platform, a.Tags, a.DemoURL)
	var status string
	if err := row.Scan(&a.ID, &status, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return err
	}
	a.Status = entity.AutomationStatus(status)
	return nil
}

// Update writes editable fields and sends the row back to moderation.
func (r *AutomationRepository) Update(ctx context.Context, a *entity.Automation) error {
	if a.Tags == nil {
		a.Tags = []string{}
	}
	row := r.db.QueryRow(ctx, `
		UPDATE automations
		SET category_id = $1, title = $2, slug = $3, short_description = $4, description = $5,
		    price_cents = $6, platform = $7, tags = $8, demo_url = $9, is_active = $10,
		    status = 'pending', rejection_reason = '', approved_at = NULL, updated_at = NOW()
		WHERE id = $11
		RETURNING updated_at
	`, a.CategoryID, a.Title, a.Slug, a.ShortDescription, a.Description,
		a.PriceCents, a.Platform, a.Tags, a.DemoURL, a.IsActive, a.ID)
	if err := row.Scan(&a.UpdatedAt); err != nil {
		return notFound(err)
	}
	a.Status = entity.StatusPending
	a.RejectionReason = ""
	a.ApprovedAt = nil
	return nil
}

func (r *AutomationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM automations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AutomationRepository) GetByID(ctx context.Context, id string) (*entity.Automation, error) {
	return scanAutomation(r.db.QueryRow(ctx, `SELECT `+automationColumns+automationFrom+` WHERE a.id = $1`, id))
}

func (r *AutomationRepository) GetBySlug(ctx context.Context, slug string) (*entity.Automation, error) {
	return scanAutomation(r.db.QueryRow(ctx, `SELECT `+automationColumns+automationFrom+` WHERE a.slug = $1`, slug))
}

func (r *AutomationRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM automations WHERE slug = $1 AND ($2 = '' OR id::text <> $2))
	`, slug, excludeID).Scan(&exists)
	return exists, err
}

// buildListQuery renders the public listing query for f.
func buildListQuery(f repository.AutomationFilter) (string, []any) {
	conds := []string{"a.status = 'approved'", "a.is_active"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.CategorySlug != "" {
		conds = append(conds, "c.slug = "+arg(f.CategorySlug))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		n := arg("%" + q + "%")
		conds = append(conds, "(a.title ILIKE "+n+" OR a.short_description ILIKE "+n+")")
	}
	if f.MinPrice != nil {
		conds = append(conds, "a.price_cents >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, "a.price_cents <= "+arg(*f.MaxPrice))
	}
	if f.Platform != "" {
		conds = append(conds, "a.platform = "+arg(f.Platform))
	}
	if f.DeveloperID != "" {
		conds = append(conds, "a.developer_id = "+arg(f.DeveloperID))
	}

	var (
		order  string
		keyset bool
	)
	switch f.Sort {
	case repository.SortPopular:
		order = "a.total_sales DESC, a.created_at DESC, a.id DESC"
	case repository.SortPriceAsc:
		order = "a.price_cents ASC, a.created_at DESC, a.id DESC"
	case repository.SortPriceDesc:
		order = "a.price_cents DESC, a.created_at DESC, a.id DESC"
	case repository.SortRating:
		order = "a.rating_avg DESC, a.rating_count DESC, a.id DESC"
	default:
		order = "a.created_at DESC, a.id DESC"
		if f.After != nil {
			keyset = true
			conds = append(conds, "(a.created_at, a.id) < ("+arg(f.After.CreatedAt)+", "+arg(f.After.ID)+"::uuid)")
		}
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 12
	}
	sql := `SELECT ` + automationColumns + automationFrom +
		"\n\tWHERE " + strings.Join(conds, " AND ") +
		"\n\tORDER BY " + order +
		"\n\tLIMIT " + arg(limit)
	if f.Offset > 0 && !keyset {
		sql += " OFFSET " + arg(f.Offset)
	}
	return sql, args
}

func (r *AutomationRepository) List(ctx context.Context, f repository.AutomationFilter) ([]entity.Automation, error) {
	sql, args := buildListQuery(f)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collectAutomations(rows)
}

func (r *AutomationRepository) ListByDeveloper(ctx context.Context, developerID string) ([]entity.Automation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+automationColumns+automationFrom+`
		WHERE a.developer_id = $1
		ORDER BY a.created_at DESC`, developerID)
	if err != nil {
		return nil, err
	}
	return collectAutomations(rows)
}

func (r *AutomationRepository) ListByStatus(ctx context.Context, status entity.AutomationStatus, limit, offset int) ([]entity.Automation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+automationColumns+automationFrom+`
		WHERE ($1 = '' OR a.status = $1)
		ORDER BY a.created_at ASC
		LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	return collectAutomations(rows)
}

func (r *AutomationRepository) ListByIDs(ctx context.Context, ids []string) ([]entity.Automation, error) {
	if len(ids) == 0 {
		return []entity.Automation{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+automationColumns+automationFrom+`
		WHERE a.id::text = ANY($1)
		ORDER BY a.created_at DESC`, ids)
	if err != nil {
		return nil, err
	}
	return collectAutomations(rows)
}

func (r *AutomationRepository) SetStatus(ctx context.Context, id string, status entity.AutomationStatus, reason string) error {
	res, err := r.db.Exec(ctx, `
		UPDATE automations
		SET status = $1,
		    rejection_reason = $2,
		    approved_at = CASE WHEN $1 = 'approved' THEN NOW() ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $3
	`, string(status), reason, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AutomationRepository) SetFilePath(ctx context.Context, id, path string) error {
	return r.setColumn(ctx, "file_path", id, path)
}

func (r *AutomationRepository) SetImageURL(ctx context.Context, id, url string) error {
	return r.setColumn(ctx, "image_url", id, url)
}

func (r *AutomationRepository) setColumn(ctx context.Context, column, id, value string) error {
	res, err := r.db.Exec(ctx, `UPDATE automations SET `+column+` = $1, updated_at = NOW() WHERE id = $2`, value, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AutomationRepository) RefreshRating(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `SELECT refresh_automation_rating($1)`, id)
	return err
}

var _ repository.AutomationRepository = (*AutomationRepository)(nil)
