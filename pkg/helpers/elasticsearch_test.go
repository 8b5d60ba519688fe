package helpers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewESClientNotConfigured(t *testing.T) {
	c, err := NewESClient(context.Background(), nil, "", "")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestNewESClientPing(t *testing.T) {
	var user string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, _ = r.BasicAuth()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewESClient(context.Background(), []string{srv.URL}, "elastic", "pw")
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, "elastic", user)
}

func TestNewESClientPingFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewESClient(context.Background(), []string{srv.URL}, "", "")
	assert.Error(t, err)
	assert.Nil(t, c)
}
