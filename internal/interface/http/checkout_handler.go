package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/internal/application"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
	"github.com/oksasatya/otomasyon-magazasi/pkg/response"
)

const maxWebhookBody = 64 << 10

type CheckoutHandler struct {
	Svc    *application.CheckoutService
	Logger *logrus.Logger
}

func NewCheckoutHandler(svc *application.CheckoutService, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{Svc: svc, Logger: logger}
}

type checkoutRequest struct {
	AutomationID string `json:"automation_id" binding:"required,uuid"`
}

func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Svc.Checkout(c.Request.Context(), middleware.UserID(c), req.AutomationID)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, res, "", nil)
}

func (h *CheckoutHandler) CheckoutCart(c *gin.Context) {
	res, err := h.Svc.CheckoutCart(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, res, "", nil)
}

// Webhook answers 400 for an unverifiable payload and 500 when processing
// fails, so Stripe retries only the latter.
func (h *CheckoutHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "İstek gövdesi okunamadı.", nil)
		return
	}
	ev, err := h.Svc.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		helpers.LogWarn(h.Logger, "stripe webhook rejected", err, logrus.Fields{"ip": c.GetString("real_ip")})
		response.Error[any](c, http.StatusBadRequest, "Geçersiz imza.", nil)
		return
	}
	if err := h.Svc.HandleEvent(c.Request.Context(), ev); err != nil {
		response.Error[any](c, http.StatusInternalServerError, "Olay işlenemedi.", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"received": true}, "", nil)
}

func (h *CheckoutHandler) Purchases(c *gin.Context) {
	list, err := h.Svc.MyPurchases(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, list, "", nil)
}

func (h *CheckoutHandler) Download(c *gin.Context) {
	link, err := h.Svc.DownloadURL(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, link, "", nil)
}
