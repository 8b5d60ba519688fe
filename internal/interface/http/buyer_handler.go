package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/internal/application"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/pkg/response"
)

// BuyerHandler serves the cart, favorites and reviews of a signed-in buyer.
type BuyerHandler struct {
	Cart      *application.CartService
	Favorites *application.FavoriteService
	Reviews   *application.ReviewService
	Logger    *logrus.Logger
}

func NewBuyerHandler(cart *application.CartService, favorites *application.FavoriteService, reviews *application.ReviewService, logger *logrus.Logger) *BuyerHandler {
	return &BuyerHandler{Cart: cart, Favorites: favorites, Reviews: reviews, Logger: logger}
}

type cartItemRequest struct {
	AutomationID string `json:"automation_id" binding:"required,uuid"`
}

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func (h *BuyerHandler) GetCart(c *gin.Context) {
	cart, err := h.Cart.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, cart, "", nil)
}

func (h *BuyerHandler) AddToCart(c *gin.Context) {
	var req cartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	cart, err := h.Cart.Add(c.Request.Context(), middleware.UserID(c), req.AutomationID)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, cart, "Sepete eklendi.", nil)
}

func (h *BuyerHandler) RemoveFromCart(c *gin.Context) {
	cart, err := h.Cart.Remove(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, cart, "Sepetten çıkarıldı.", nil)
}

func (h *BuyerHandler) ClearCart(c *gin.Context) {
	if err := h.Cart.Clear(c.Request.Context(), middleware.UserID(c)); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cleared": true}, "Sepet boşaltıldı.", nil)
}

func (h *BuyerHandler) ToggleFavorite(c *gin.Context) {
	on, err := h.Favorites.Toggle(c.Request.Context(), middleware.UserID(c), c.Param("automation_id"))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	msg := "Favorilerden çıkarıldı."
	if on {
		msg = "Favorilere eklendi."
	}
	response.Success(c, http.StatusOK, gin.H{"favorited": on}, msg, nil)
}

func (h *BuyerHandler) ListFavorites(c *gin.Context) {
	list, err := h.Favorites.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, list, "", nil)
}

func (h *BuyerHandler) SubmitReview(c *gin.Context) {
	var req reviewRequest
	if !bindJSON(c, &req) {
		return
	}
	rv, err := h.Reviews.Submit(c.Request.Context(), middleware.UserID(c), c.Param("slug"), req.Rating, req.Comment)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, rv, "Değerlendirmeniz kaydedildi.", nil)
}
