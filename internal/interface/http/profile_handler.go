package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/internal/application"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/pkg/response"
)

type ProfileHandler struct {
	Svc    *application.ProfileService
	Logger *logrus.Logger
}

func NewProfileHandler(svc *application.ProfileService, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	Username *string `json:"username"`
	FullName *string `json:"full_name" binding:"omitempty,max=100"`
	Bio      *string `json:"bio" binding:"omitempty,max=500"`
	Website  *string `json:"website" binding:"omitempty,url"`
}

func (h *ProfileHandler) Me(c *gin.Context) {
	me, err := h.Svc.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, me, "", nil)
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Svc.UpdateProfile(c.Request.Context(), middleware.UserID(c), application.UpdateProfileInput{
		Username: req.Username,
		FullName: req.FullName,
		Bio:      req.Bio,
		Website:  req.Website,
	})
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "Profil güncellendi.", nil)
}

func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	up, done, ok := formUpload(c, "avatar", application.MaxImageSize)
	if !ok {
		return
	}
	defer done()
	u, err := h.Svc.UploadAvatar(c.Request.Context(), middleware.UserID(c), up)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar_url": u}, "Profil fotoğrafı güncellendi.", nil)
}

func (h *ProfileHandler) Public(c *gin.Context) {
	p, err := h.Svc.PublicProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "", nil)
}

func (h *ProfileHandler) Prefs(c *gin.Context) {
	p, err := h.Svc.Prefs(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "", nil)
}

func (h *ProfileHandler) UpdatePrefs(c *gin.Context) {
	var req application.PrefsPatch
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Svc.UpdatePrefs(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "Bildirim tercihleri kaydedildi.", nil)
}
