package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingModule struct{ path string }

func (m pingModule) Name() string { return "ping" + m.path }

func (m pingModule) Register(rg *gin.RouterGroup) {
	rg.GET(m.path, func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func TestRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := test.NewNullLogger()
	logger.SetOutput(io.Discard)

	reg := NewRegistry(gin.New(), logger)
	reg.Use(func(c *gin.Context) { c.Header("X-Api", "1"); c.Next() })
	reg.Add(pingModule{"/a"})
	reg.AddIf(false, pingModule{"/b"})
	reg.AddIf(true, pingModule{"/c"})
	reg.RegisterAll()

	assert.Equal(t, []string{"ping/a", "ping/c"}, reg.Modules())

	w := httptest.NewRecorder()
	reg.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/a", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Api"))

	w = httptest.NewRecorder()
	reg.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/b", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, 2, entry.Data["routes"])
}
