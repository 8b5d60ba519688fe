package postgres

import (
	"context"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	"github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
)

type ReviewRepository struct {
	db DBTX
}

func NewReviewRepository(db DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Upsert(ctx context.Context, rv *entity.Review) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO reviews (automation_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (automation_id, user_id) DO UPDATE
		SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, rv.AutomationID, rv.UserID, rv.Rating, rv.Comment).Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt)
}

func (r *ReviewRepository) ListByAutomation(ctx context.Context, automationID string, limit, offset int) ([]entity.Review, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.automation_id, r.user_id, r.rating, r.comment, r.created_at, r.updated_at,
		       p.username, p.full_name, p.avatar_url
		FROM reviews r
		JOIN user_profiles p ON p.id = r.user_id
		WHERE r.automation_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3
	`, automationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.Review{}
	for rows.Next() {
		var rv entity.Review
		if err := rows.Scan(&rv.ID, &rv.AutomationID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt,
			&rv.Username, &rv.FullName, &rv.AvatarURL); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

type FavoriteRepository struct {
	db DBTX
}

func NewFavoriteRepository(db DBTX) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) Toggle(ctx context.Context, userID, automationID string) (bool, error) {
	res, err := r.db.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND automation_id = $2`, userID, automationID)
	if err != nil {
		return false, err
	}
	if res.RowsAffected() > 0 {
		return false, nil
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO favorites (user_id, automation_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, automationID)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *FavoriteRepository) List(ctx context.Context, userID string) ([]entity.Automation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+automationColumns+automationFrom+`
		JOIN favorites f ON f.automation_id = a.id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectAutomations(rows)
}

var (
	_ repository.ReviewRepository   = (*ReviewRepository)(nil)
	_ repository.FavoriteRepository = (*FavoriteRepository)(nil)
)
