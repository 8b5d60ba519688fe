package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/otomasyon-magazasi/pkg/apperror"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("request_id", "req-1")
	return c, rec
}

func TestSuccessWritesEnvelope(t *testing.T) {
	c, rec := newContext()

	Success(c, http.StatusCreated, gin.H{"id": "a1"}, "created", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "req-1", body["request_id"])
	assert.Equal(t, "created", body["message"])
}

func TestFailUsesKindStatusAndMessage(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "typed not found keeps message",
			err:        apperror.New(apperror.KindNotFound, "Otomasyon bulunamadı."),
			wantStatus: http.StatusNotFound,
			wantMsg:    "Otomasyon bulunamadı.",
		},
		{
			name:       "untyped error is generic",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    apperror.Message(apperror.KindServer),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext()
			Fail(c, nil, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}
