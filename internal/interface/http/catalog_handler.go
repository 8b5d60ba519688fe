package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/internal/application"
	"github.com/oksasatya/otomasyon-magazasi/pkg/response"
)

type CatalogHandler struct {
	Svc    *application.CatalogService
	Logger *logrus.Logger
}

func NewCatalogHandler(svc *application.CatalogService, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{Svc: svc, Logger: logger}
}

func (h *CatalogHandler) Categories(c *gin.Context) {
	list, err := h.Svc.ListCategories(c.Request.Context())
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, list, "", nil)
}

func (h *CatalogHandler) List(c *gin.Context) {
	res, err := h.Svc.List(c.Request.Context(), application.ListQuery{
		Category: c.Query("category"),
		Query:    c.Query("q"),
		MinPrice: queryInt64(c, "min_price"),
		MaxPrice: queryInt64(c, "max_price"),
		Platform: c.Query("platform"),
		Sort:     c.Query("sort"),
		Cursor:   c.Query("cursor"),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 0),
	})
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	meta := gin.H{"limit": res.Limit, "has_more": res.HasMore}
	if res.NextCursor != "" {
		meta["next_cursor"] = res.NextCursor
	}
	if res.Page > 0 {
		meta["page"] = res.Page
	}
	response.Success(c, http.StatusOK, res.Items, "", meta)
}

func (h *CatalogHandler) Search(c *gin.Context) {
	res, err := h.Svc.Search(c.Request.Context(), c.Query("q"), queryInt(c, "size", 0))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, res.Items, "", gin.H{"source": res.Source})
}

// Detail runs behind OptionalAuth so owners and admins can preview unlisted rows.
func (h *CatalogHandler) Detail(c *gin.Context) {
	a, err := h.Svc.Detail(c.Request.Context(), c.Param("slug"), viewer(c))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, a, "", nil)
}

func (h *CatalogHandler) Reviews(c *gin.Context) {
	list, err := h.Svc.ListReviews(c.Request.Context(), c.Param("slug"), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, list, "", nil)
}
