package postgres

import (
	"context"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	"github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
)

type CategoryRepository struct {
	db DBTX
}

func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context) ([]entity.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.icon, c.sort_order, c.created_at,
		       COUNT(a.id) FILTER (WHERE a.status = 'approved' AND a.is_active)
		FROM categories c
		LEFT JOIN automations a ON a.category_id = c.id
		GROUP BY c.id
		ORDER BY c.sort_order, c.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.Category{}
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.SortOrder, &c.CreatedAt, &c.AutomationCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepository) get(ctx context.Context, column, value string) (*entity.Category, error) {
	c := &entity.Category{}
	err := r.db.QueryRow(ctx, `
		SELECT id, name, slug, description, icon, sort_order, created_at
		FROM categories
		WHERE `+column+` = $1
	`, value).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.SortOrder, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	return r.get(ctx, "id", id)
}

func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	return r.get(ctx, "slug", slug)
}

func (r *CategoryRepository) Create(ctx context.Context, c *entity.Category) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO categories (name, slug, description, icon, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, c.Name, c.Slug, c.Description, c.Icon, c.SortOrder).Scan(&c.ID, &c.CreatedAt)
}

func (r *CategoryRepository) Update(ctx context.Context, c *entity.Category) error {
	res, err := r.db.Exec(ctx, `
		UPDATE categories
		SET name = $1, slug = $2, description = $3, icon = $4, sort_order = $5
		WHERE id = $6
	`, c.Name, c.Slug, c.Description, c.Icon, c.SortOrder, c.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.CategoryRepository = (*CategoryRepository)(nil)
