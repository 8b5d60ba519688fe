package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/internal/application"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
	"github.com/oksasatya/otomasyon-magazasi/pkg/response"
)

type AuthHandler struct {
	Svc     *application.AuthService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,strongpwd"`
	Username string `json:"username" binding:"required,username"`
	FullName string `json:"full_name" binding:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type resetInitRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,strongpwd"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	acct, pair, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
		FullName: req.FullName,
	}, requestMeta(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusCreated, toAccountView(acct), "Kayıt başarılı. Lütfen e-postanızı doğrulayın.", sessionMeta(pair))
}

func (h *AuthHandler) UsernameAvailable(c *gin.Context) {
	ok, err := h.Svc.UsernameAvailable(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"available": ok}, "", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	acct, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password, requestMeta(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, toAccountView(acct), "Giriş başarılı.", sessionMeta(pair))
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "Oturum bulunamadı.", nil)
		return
	}
	pair, uid, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		h.Cookies.Clear(c)
		response.Fail(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{"refreshed": true, "user_id": uid}, "Oturum yenilendi.", sessionMeta(pair))
}

// Logout clears cookies even for callers whose session already expired.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Svc.Logout(c.Request.Context(), middleware.UserID(c), requestMeta(c))
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, "Çıkış yapıldı.", nil)
}

func (h *AuthHandler) VerifyInit(c *gin.Context) {
	already, err := h.Svc.VerifyInit(c.Request.Context(), middleware.UserID(c), requestMeta(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	if already {
		response.Success(c, http.StatusOK, gin.H{"already_verified": true}, "E-posta adresiniz zaten doğrulanmış.", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": true}, "Doğrulama bağlantısı gönderildi.", nil)
}

func (h *AuthHandler) VerifyConfirm(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.VerifyConfirm(c.Request.Context(), req.Token, requestMeta(c)); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"verified": true}, "E-posta adresiniz doğrulandı.", nil)
}

// ResetInit answers the same way whether or not the email is registered.
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req resetInitRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.ResetInit(c.Request.Context(), req.Email, requestMeta(c)); err != nil {
		helpers.LogWarn(h.Logger, "reset init failed", err, nil)
	}
	response.Success(c, http.StatusOK, gin.H{"sent": true}, "Hesap mevcutsa şifre sıfırlama bağlantısı gönderildi.", nil)
}

func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req resetConfirmRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.ResetConfirm(c.Request.Context(), req.Token, req.NewPassword, requestMeta(c)); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"reset": true}, "Şifreniz güncellendi. Lütfen tekrar giriş yapın.", nil)
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	u, err := h.Svc.OAuthURL(c.Request.Context())
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	c.Redirect(http.StatusFound, u)
}

// Callback always ends in a redirect to the frontend.
func (h *AuthHandler) Callback(c *gin.Context) {
	res := h.Svc.HandleCallback(c.Request.Context(), application.CallbackParams{
		Error: c.Query("error"),
		Type:  c.Query("type"),
		Token: c.Query("token"),
		Code:  c.Query("code"),
		State: c.Query("state"),
	}, requestMeta(c))
	if res.Tokens != nil {
		t := res.Tokens
		h.Cookies.SetPair(c, t.AccessToken, t.AccessTokenExpiry, t.RefreshToken, t.RefreshTokenExpiry)
	}
	c.Redirect(http.StatusFound, res.Redirect)
}
