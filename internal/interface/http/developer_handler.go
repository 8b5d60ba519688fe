package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/internal/application"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/pkg/response"
)

type DeveloperHandler struct {
	Svc    *application.DeveloperService
	Logger *logrus.Logger
}

func NewDeveloperHandler(svc *application.DeveloperService, logger *logrus.Logger) *DeveloperHandler {
	return &DeveloperHandler{Svc: svc, Logger: logger}
}

type onboardRequest struct {
	IBAN     string `json:"iban" binding:"required,iban"`
	BankName string `json:"bank_name" binding:"max=100"`
}

type automationRequest struct {
	CategoryID       *string  `json:"category_id" binding:"omitempty,uuid"`
	Title            string   `json:"title" binding:"required,max=120"`
	ShortDescription string   `json:"short_description" binding:"max=200"`
	Description      string   `json:"description" binding:"max=20000"`
	PriceCents       int64    `json:"price_cents" binding:"min=0"`
	Platform         string   `json:"platform" binding:"max=50"`
	Tags             []string `json:"tags" binding:"max=10,dive,max=30"`
	DemoURL          string   `json:"demo_url" binding:"omitempty,url"`
}

func (r automationRequest) input() application.AutomationInput {
	return application.AutomationInput{
		CategoryID:       r.CategoryID,
		Title:            r.Title,
		ShortDescription: r.ShortDescription,
		Description:      r.Description,
		PriceCents:       r.PriceCents,
		Platform:         r.Platform,
		Tags:             r.Tags,
		DemoURL:          r.DemoURL,
	}
}

func (h *DeveloperHandler) CheckIBAN(c *gin.Context) {
	response.Success(c, http.StatusOK, application.CheckIBAN(c.Param("iban")), "", nil)
}

func (h *DeveloperHandler) Onboard(c *gin.Context) {
	var req onboardRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Svc.Onboard(c.Request.Context(), middleware.UserID(c), req.IBAN, req.BankName)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "Geliştirici hesabınız etkinleştirildi.", nil)
}

func (h *DeveloperHandler) List(c *gin.Context) {
	list, err := h.Svc.MyAutomations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, list, "", nil)
}

func (h *DeveloperHandler) Create(c *gin.Context) {
	var req automationRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.Svc.Create(c.Request.Context(), middleware.UserID(c), req.input())
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, a, "Otomasyon oluşturuldu ve onaya gönderildi.", nil)
}

func (h *DeveloperHandler) Update(c *gin.Context) {
	var req automationRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.Svc.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.input())
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, a, "Otomasyon güncellendi ve yeniden onaya gönderildi.", nil)
}

func (h *DeveloperHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "Otomasyon silindi.", nil)
}

func (h *DeveloperHandler) UploadFile(c *gin.Context) {
	up, done, ok := formUpload(c, "file", application.MaxFileSize)
	if !ok {
		return
	}
	defer done()
	a, err := h.Svc.UploadFile(c.Request.Context(), middleware.UserID(c), c.Param("id"), up)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, a, "Dosya yüklendi.", nil)
}

func (h *DeveloperHandler) UploadImage(c *gin.Context) {
	up, done, ok := formUpload(c, "image", application.MaxImageSize)
	if !ok {
		return
	}
	defer done()
	a, err := h.Svc.UploadImage(c.Request.Context(), middleware.UserID(c), c.Param("id"), up)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, a, "Görsel yüklendi.", nil)
}

func (h *DeveloperHandler) Sales(c *gin.Context) {
	rep, err := h.Svc.Sales(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, rep.Sales, "", rep.Summary)
}

func (h *DeveloperHandler) ConnectStripe(c *gin.Context) {
	u, err := h.Svc.ConnectStripe(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"url": u}, "", nil)
}

func (h *DeveloperHandler) StripeStatus(c *gin.Context) {
	acct, err := h.Svc.StripeStatus(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, acct, "", gin.H{"ready": acct.Ready()})
}
