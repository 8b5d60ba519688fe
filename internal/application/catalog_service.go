package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	repo "github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/cache"
	"github.com/oksasatya/otomasyon-magazasi/internal/infrastructure/search"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
)

const (
	categoriesTTL = 10 * time.Minute

	defaultPageSize = 12
	maxPageSize     = 50
)

// Searcher is the full text index of listed automations.
type Searcher interface {
	Enabled() bool
	Index(ctx context.Context, a *entity.Automation) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]search.Hit, error)
}

type CatalogService struct {
	Categories  repo.CategoryRepository
	Automations repo.AutomationRepository
	Reviews     repo.ReviewRepository
	Index       Searcher
	Cache       *cache.Cache
	Logger      *logrus.Logger
}

func NewCatalogService(categories repo.CategoryRepository, automations repo.AutomationRepository, reviews repo.ReviewRepository, index Searcher, c *cache.Cache, logger *logrus.Logger) *CatalogService {
	return &CatalogService{Categories: categories, Automations: automations, Reviews: reviews, Index: index, Cache: c, Logger: logger}
}

// ListCategories serves the category list with listed-automation counts from cache.
func (s *CatalogService) ListCategories(ctx context.Context) ([]entity.Category, error) {
	return cache.GetOrLoad(ctx, s.Cache, cache.KeyCategories, categoriesTTL, s.Categories.List)
}

// RefreshCategories reloads the category cache from the database.
func (s *CatalogService) RefreshCategories(ctx context.Context) error {
	list, err := s.Categories.List(ctx)
	if err != nil {
		return err
	}
	return cache.Set(ctx, s.Cache, cache.KeyCategories, list, categoriesTTL)
}

// EncodeCursor renders a keyset position as "<unix-nanos>:<id>".
func EncodeCursor(createdAt time.Time, id string) string {
	return strconv.FormatInt(createdAt.UnixNano(), 10) + ":" + id
}

func DecodeCursor(s string) (*repo.Cursor, error) {
	ts, id, ok := strings.Cut(s, ":")
	if !ok {
		return nil, ErrInvalidCursor
	}
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || nanos <= 0 {
		return nil, ErrInvalidCursor
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidCursor
	}
	return &repo.Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: id}, nil
}

type ListQuery struct {
	Category string
	Query    string
	MinPrice *int64
	MaxPrice *int64
	Platform string
	Sort     string
	Cursor   string
	Page     int
	Limit    int
}

type ListResult struct {
	Items      []entity.Automation `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
	Page       int                 `json:"page,omitempty"`
	Limit      int                 `json:"limit"`
	HasMore    bool                `json:"has_more"`
}

func normalizeSort(s string) string {
	switch s {
	case repo.SortNewest, repo.SortPopular, repo.SortPriceAsc, repo.SortPriceDesc, repo.SortRating:
		return s
	}
	return repo.SortNewest
}

func clampLimit(n int) int {
	if n <= 0 {
		return defaultPageSize
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

// List returns one page of listed automations. The newest order pages by
// cursor; the other orders page by number.
func (s *CatalogService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	limit := clampLimit(q.Limit)
	f := repo.AutomationFilter{
		CategorySlug: strings.TrimSpace(q.Category),
		Query:        strings.TrimSpace(q.Query),
		MinPrice:     q.MinPrice,
		MaxPrice:     q.MaxPrice,
		Platform:     strings.TrimSpace(q.Platform),
		Sort:         normalizeSort(q.Sort),
		Limit:        limit + 1,
	}
	res := &ListResult{Limit: limit}
	if f.Sort == repo.SortNewest && q.Cursor != "" {
		cur, err := DecodeCursor(q.Cursor)
		if err != nil {
			return nil, err
		}
		f.After = cur
	} else if q.Page > 1 {
		f.Offset = (q.Page - 1) * limit
		res.Page = q.Page
	}

	items, err := s.Automations.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(items) > limit {
		items = items[:limit]
		res.HasMore = true
	}
	res.Items = items
	if res.HasMore && f.Sort == repo.SortNewest {
		last := items[len(items)-1]
		res.NextCursor = EncodeCursor(last.CreatedAt, last.ID)
	}
	return res, nil
}

type SearchResult struct {
	Items  []entity.Automation `json:"items"`
	Source string              `json:"source"`
}

// Search queries the full text index and falls back to the SQL filter when the
// index is unavailable.
func (s *CatalogService) Search(ctx context.Context, q string, size int) (*SearchResult, error) {
	q = strings.TrimSpace(q)
	size = clampLimit(size)
	if q == "" {
		return &SearchResult{Items: []entity.Automation{}, Source: "none"}, nil
	}
	if s.Index != nil && s.Index.Enabled() {
		items, err := s.searchIndex(ctx, q, size)
		if err == nil {
			return &SearchResult{Items: items, Source: "elasticsearch"}, nil
		}
		helpers.LogWarn(s.Logger, "es search failed, falling back to sql", err, logrus.Fields{"q": q})
	}
	items, err := s.Automations.List(ctx, repo.AutomationFilter{Query: q, Sort: repo.SortPopular, Limit: size})
	if err != nil {
		return nil, err
	}
	return &SearchResult{Items: items, Source: "sql"}, nil
}

func (s *CatalogService) searchIndex(ctx context.Context, q string, size int) ([]entity.Automation, error) {
	hits, err := s.Index.Search(ctx, q, size)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	rows, err := s.Automations.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load search hits: %w", err)
	}
	byID := make(map[string]entity.Automation, len(rows))
	for _, a := range rows {
		byID[a.ID] = a
	}
	out := make([]entity.Automation, 0, len(ids))
	for _, id := range ids {
		// The index can lag behind moderation.
		if a, ok := byID[id]; ok && a.Listed() {
			out = append(out, a)
		}
	}
	return out, nil
}

// Detail returns a listed automation, or an unlisted one to its owner or an admin.
func (s *CatalogService) Detail(ctx context.Context, slug string, viewer Viewer) (*entity.Automation, error) {
	a, err := s.Automations.GetBySlug(ctx, slug)
	if err != nil {
		return nil, orNotFound(err, ErrAutomationNotFound)
	}
	if !a.Listed() && a.DeveloperID != viewer.UserID && !viewer.IsAdmin() {
		return nil, ErrAutomationNotFound
	}
	return a, nil
}

func (s *CatalogService) ListReviews(ctx context.Context, slug string, limit, offset int) ([]entity.Review, error) {
	a, err := s.Automations.GetBySlug(ctx, slug)
	if err != nil {
		return nil, orNotFound(err, ErrAutomationNotFound)
	}
	if !a.Listed() {
		return nil, ErrAutomationNotFound
	}
	if offset < 0 {
		offset = 0
	}
	return s.Reviews.ListByAutomation(ctx, a.ID, clampLimit(limit), offset)
}
