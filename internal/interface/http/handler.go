package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/otomasyon-magazasi/internal/application"
	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/pkg/response"
	"github.com/oksasatya/otomasyon-magazasi/pkg/validation"
)

const msgInvalidPayload = "Gönderilen veriler geçersiz."

// bindJSON decodes the body into req and answers 400 with field details on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error[any](c, http.StatusBadRequest, msgInvalidPayload, validation.ToDetails(err))
		return false
	}
	return true
}

func requestMeta(c *gin.Context) application.RequestMeta {
	ip := c.GetString("real_ip")
	if ip == "" {
		ip = c.ClientIP()
	}
	return application.RequestMeta{IP: ip, UserAgent: c.Request.UserAgent()}
}

func viewer(c *gin.Context) application.Viewer {
	return application.Viewer{UserID: middleware.UserID(c), Role: middleware.Role(c)}
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

func queryInt64(c *gin.Context, key string) *int64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// formUpload reads one multipart file. The request body is capped slightly
// above limit so oversized uploads fail before they are buffered to disk.
func formUpload(c *gin.Context, field string, limit int64) (application.Upload, func(), bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)
	fh, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, nil, application.ErrFileTooLarge)
			return application.Upload{}, nil, false
		}
		response.Error[any](c, http.StatusBadRequest, "Dosya bulunamadı.", map[string]string{field: "zorunlu"})
		return application.Upload{}, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "Dosya okunamadı.", nil)
		return application.Upload{}, nil, false
	}
	up := application.Upload{Reader: f, Filename: fh.Filename, Size: fh.Size}
	return up, func() { _ = f.Close() }, true
}

type accountView struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	IsVerified bool           `json:"is_verified"`
	CreatedAt  time.Time      `json:"created_at"`
	Profile    entity.Profile `json:"profile"`
}

// toAccountView strips the password hash.
func toAccountView(a *entity.Account) accountView {
	return accountView{
		ID:         a.User.ID,
		Email:      a.User.Email,
		IsVerified: a.User.IsVerified,
		CreatedAt:  a.User.CreatedAt,
		Profile:    a.Profile,
	}
}

func sessionMeta(pair application.TokenPair) map[string]any {
	return map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry}
}
