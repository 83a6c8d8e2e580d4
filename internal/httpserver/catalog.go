package httpserver

import (
	"net/http"

	"tailorshop/internal/domain"
	catalogsvc "tailorshop/internal/service/catalog"

	"github.com/gin-gonic/gin"
)

func (h *handlers) listCatalog(kind domain.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := h.deps.Catalog.List(c.Request.Context(), kind)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func (h *handlers) catalogCategories(kind domain.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := h.deps.Catalog.Categories(c.Request.Context(), kind)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

func (h *handlers) createCatalogItem(kind domain.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalogsvc.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid json body")
			return
		}
		item, err := h.deps.Catalog.Create(c.Request.Context(), kind, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func (h *handlers) updateCatalogItem(kind domain.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalogsvc.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid json body")
			return
		}
		item, err := h.deps.Catalog.Update(c.Request.Context(), kind, c.Param("id"), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func (h *handlers) deleteCatalogItem(kind domain.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.deps.Catalog.Delete(c.Request.Context(), kind, c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
