package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
)

func newTestIndex(t *testing.T, handler http.HandlerFunc) *AutomationIndex {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewAutomationIndex(es, "automations")
}

func TestSearchParsesHits(t *testing.T) {
	var gotBody []byte
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_id":"a-1","_score":3.2,"_source":{"id":"a-1","slug":"fatura-botu","title":"Fatura Botu"}},
			{"_id":"a-2","_score":1.1,"_source":{"slug":"stok-takip","title":"Stok Takip"}}
		]}}`))
	})

	hits, err := idx.Search(context.Background(), "fatura", 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a-1", hits[0].ID)
	assert.Equal(t, "fatura-botu", hits[0].Slug)
	assert.InDelta(t, 3.2, hits[0].Score, 0.001)
	assert.Equal(t, "a-2", hits[1].ID)

	assert.Equal(t, "fatura", gjson.GetBytes(gotBody, "query.multi_match.query").String())
	assert.Equal(t, int64(10), gjson.GetBytes(gotBody, "size").Int())
	assert.Equal(t, "title^3", gjson.GetBytes(gotBody, "query.multi_match.fields.0").String())
}

func TestSearchErrorResponse(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"reason":"bad query"}}`))
	})
	_, err := idx.Search(context.Background(), "x", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad query")
}

func TestIndexSendsListedDocument(t *testing.T) {
	var (
		method string
		doc    map[string]any
	)
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		_ = json.NewDecoder(r.Body).Decode(&doc)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	a := &entity.Automation{ID: "a-1", Slug: "s", Title: "T", Status: entity.StatusApproved, IsActive: true, Tags: []string{"excel"}}
	require.NoError(t, idx.Index(context.Background(), a))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "T", doc["title"])
}

func TestIndexRemovesUnlisted(t *testing.T) {
	var method string
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})

	a := &entity.Automation{ID: "a-1", Status: entity.StatusRejected}
	require.NoError(t, idx.Index(context.Background(), a))
	assert.Equal(t, http.MethodDelete, method)
}

func TestNilIndexIsNoop(t *testing.T) {
	var idx *AutomationIndex
	assert.False(t, idx.Enabled())
	assert.NoError(t, idx.Index(context.Background(), &entity.Automation{}))
	hits, err := idx.Search(context.Background(), "x", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
