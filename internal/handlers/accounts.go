package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tierimage/internal/apperrors"
	"tierimage/internal/middleware"
	"tierimage/internal/service"
)

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) RegisterAccount(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.Validation("request body must be a JSON object", nil))
		return
	}

	doc, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h HandlerSet) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.Validation("request body must be a JSON object", nil))
		return
	}

	result, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HandlerSet) Me(c *gin.Context) {
	doc, err := h.accounts.Me(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h HandlerSet) UpdateMe(c *gin.Context) {
	payload, err := bindPayload(c)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	doc, err := h.accounts.UpdateMe(c.Request.Context(), middleware.Identity(c), updateAction(c), payload)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h HandlerSet) DeleteMe(c *gin.Context) {
	if err := h.accounts.DeleteMe(c.Request.Context(), middleware.Identity(c)); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
