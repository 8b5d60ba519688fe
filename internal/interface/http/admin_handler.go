package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/internal/application"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/pkg/mailer"
	"github.com/oksasatya/otomasyon-magazasi/pkg/response"
)

type AdminHandler struct {
	Svc    *application.AdminService
	Logger *logrus.Logger
}

func NewAdminHandler(svc *application.AdminService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

type roleRequest struct {
	Role string `json:"role" binding:"required,oneof=user developer admin"`
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required,max=80"`
	Slug        string `json:"slug" binding:"omitempty,slug"`
	Description string `json:"description" binding:"max=500"`
	Icon        string `json:"icon" binding:"max=50"`
	SortOrder   int    `json:"sort_order"`
}

func (r categoryRequest) input() application.CategoryInput {
	return application.CategoryInput{Name: r.Name, Slug: r.Slug, Description: r.Description, Icon: r.Icon, SortOrder: r.SortOrder}
}

type sendEmailRequest struct {
	To       string         `json:"to" binding:"required,email"`
	Template string         `json:"template"` // one of the typed names, e.g. "purchase_receipt"
	Data     map[string]any `json:"data"`
	Subject  string         `json:"subject"` // required without a template
	Text     string         `json:"text"`
	HTML     string         `json:"html"`
}

func (h *AdminHandler) ListAutomations(c *gin.Context) {
	list, err := h.Svc.ListAutomations(c.Request.Context(), c.Query("status"), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, list, "", nil)
}

func (h *AdminHandler) Approve(c *gin.Context) {
	a, err := h.Svc.Approve(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, a, "Otomasyon onaylandı.", nil)
}

func (h *AdminHandler) Reject(c *gin.Context) {
	var req rejectRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.Svc.Reject(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Reason)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, a, "Otomasyon reddedildi.", nil)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	accts, err := h.Svc.ListUsers(c.Request.Context(), c.Query("q"), c.Query("role"), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	out := make([]accountView, 0, len(accts))
	for i := range accts {
		out = append(out, toAccountView(&accts[i]))
	}
	response.Success(c, http.StatusOK, out, "", nil)
}

func (h *AdminHandler) SetRole(c *gin.Context) {
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.SetRole(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Role); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": c.Param("id"), "role": req.Role}, "Rol güncellendi.", nil)
}

func (h *AdminHandler) Stats(c *gin.Context) {
	st, err := h.Svc.Stats(c.Request.Context())
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, st, "", nil)
}

func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	cat, err := h.Svc.CreateCategory(c.Request.Context(), req.input())
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, cat, "Kategori oluşturuldu.", nil)
}

func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	cat, err := h.Svc.UpdateCategory(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, cat, "Kategori güncellendi.", nil)
}

func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	if err := h.Svc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "Kategori silindi.", nil)
}

// SendEmail enqueues an email job to RabbitMQ.
func (h *AdminHandler) SendEmail(c *gin.Context) {
	var req sendEmailRequest
	if !bindJSON(c, &req) {
		return
	}
	job := mailer.EmailJob{To: req.To}
	if req.Template != "" {
		job.Template = req.Template
		job.Data = req.Data
	} else {
		job.Subject = req.Subject
		job.Text = req.Text
		job.HTML = req.HTML
	}
	err := h.Svc.SendEmail(c.Request.Context(), job)
	switch {
	case errors.Is(err, application.ErrMailDisabled):
		response.Success(c, http.StatusAccepted, gin.H{"enqueued": false, "disabled": true}, "E-posta gönderimi kapalı.", nil)
	case err != nil:
		response.Fail(c, h.Logger, err)
	default:
		response.Success(c, http.StatusAccepted, gin.H{"enqueued": true}, "E-posta kuyruğa alındı.", nil)
	}
}

type ContactHandler struct {
	Svc    *application.ContactService
	Logger *logrus.Logger
}

func NewContactHandler(svc *application.ContactService, logger *logrus.Logger) *ContactHandler {
	return &ContactHandler{Svc: svc, Logger: logger}
}

type contactRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

func (h *ContactHandler) Send(c *gin.Context) {
	var req contactRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.Svc.Send(c.Request.Context(), application.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"sent": true}, "Mesajınız iletildi. En kısa sürede dönüş yapacağız.", nil)
}
