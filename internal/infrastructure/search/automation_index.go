// Package search keeps approved automations in Elasticsearch for full text search.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/tidwall/gjson"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
)

// Hit is one search result, ordered by relevance.
type Hit struct {
	ID    string  `json:"id"`
	Slug  string  `json:"slug"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

type AutomationIndex struct {
	es    *elasticsearch.Client
	index string
}

// NewAutomationIndex returns nil when es is nil so callers can fall back to SQL.
func NewAutomationIndex(es *elasticsearch.Client, index string) *AutomationIndex {
	if es == nil || index == "" {
		return nil
	}
	return &AutomationIndex{es: es, index: index}
}

// Enabled reports whether the index is backed by a live client.
func (x *AutomationIndex) Enabled() bool { return x != nil }

func document(a *entity.Automation) map[string]any {
	return map[string]any{
		"id":                a.ID,
		"slug":              a.Slug,
		"title":             a.Title,
		"short_description": a.ShortDescription,
		"description":       a.Description,
		"tags":              a.Tags,
		"platform":          a.Platform,
		"category_slug":     a.CategorySlug,
		"price_cents":       a.PriceCents,
		"rating_avg":        a.RatingAvg,
		"total_sales":       a.TotalSales,
		"created_at":        a.CreatedAt.Format(time.RFC3339Nano),
	}
}

// Index upserts a listed automation; unlisted ones are removed from the index.
func (x *AutomationIndex) Index(ctx context.Context, a *entity.Automation) error {
	if x == nil {
		return nil
	}
	if !a.Listed() {
		return x.Delete(ctx, a.ID)
	}
	b, err := json.Marshal(document(a))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: a.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index %s: %s", a.ID, res.Status())
	}
	return nil
}

func (x *AutomationIndex) Delete(ctx context.Context, id string) error {
	if x == nil {
		return nil
	}
	req := esapi.DeleteRequest{Index: x.index, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("es delete %s: %s", id, res.Status())
	}
	return nil
}

// Search runs a multi_match over title, descriptions and tags.
func (x *AutomationIndex) Search(ctx context.Context, q string, size int) ([]Hit, error) {
	if x == nil {
		return []Hit{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^3", "short_description^2", "description", "tags"},
				"fuzziness": "AUTO",
			},
		},
		"size":    size,
		"_source": []string{"id", "slug", "title"},
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s: %s", res.Status(), gjson.GetBytes(body, "error.reason").String())
	}
	return parseHits(body), nil
}

func parseHits(body []byte) []Hit {
	hits := gjson.GetBytes(body, "hits.hits").Array()
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		id := h.Get("_source.id").String()
		if id == "" {
			id = h.Get("_id").String()
		}
		out = append(out, Hit{
			ID:    id,
			Slug:  h.Get("_source.slug").String(),
			Title: h.Get("_source.title").String(),
			Score: h.Get("_score").Float(),
		})
	}
	return out
}
