package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tierimage/internal/middleware"
)

func (h HandlerSet) AdminListAccounts(c *gin.Context) {
	limit := 50
	offset := 0

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}

	items, err := h.accounts.ListAccounts(c.Request.Context(), middleware.Identity(c), limit, offset)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
	})
}

func (h HandlerSet) AdminUpdateAccount(c *gin.Context) {
	payload, err := bindPayload(c)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	doc, err := h.accounts.UpdateAccount(c.Request.Context(), middleware.Identity(c), c.Param("id"), payload)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}
