package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tierimage/internal/middleware"
)

func (h HandlerSet) ListTiers(c *gin.Context) {
	items, err := h.tiers.List(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h HandlerSet) GetTier(c *gin.Context) {
	doc, err := h.tiers.Get(c.Request.Context(), middleware.Identity(c), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h HandlerSet) CreateTier(c *gin.Context) {
	payload, err := bindPayload(c)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	doc, err := h.tiers.Create(c.Request.Context(), middleware.Identity(c), payload)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h HandlerSet) UpdateTier(c *gin.Context) {
	payload, err := bindPayload(c)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	doc, err := h.tiers.Update(c.Request.Context(), middleware.Identity(c), c.Param("id"), updateAction(c), payload)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h HandlerSet) DeleteTier(c *gin.Context) {
	if err := h.tiers.Delete(c.Request.Context(), middleware.Identity(c), c.Param("id")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
