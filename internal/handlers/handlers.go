package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tierimage/internal/apperrors"
	"tierimage/internal/config"
	"tierimage/internal/middleware"
	"tierimage/internal/service"
	"tierimage/internal/views"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	accounts *service.AccountService
	tiers    *service.TierService
	images   *service.CustomImageService
	health   []HealthCheck
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	accounts *service.AccountService,
	tiers *service.TierService,
	images *service.CustomImageService,
	health ...HealthCheck,
) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		accounts: accounts,
		tiers:    tiers,
		images:   images,
		health:   health,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.Use(middleware.Auth(h.accounts))

	user := v1.Group("/user")
	user.POST("/create", h.RegisterAccount)
	user.POST("/token", h.IssueToken)
	user.GET("/me", h.Me)
	user.PUT("/me", h.UpdateMe)
	user.PATCH("/me", h.UpdateMe)
	user.DELETE("/me", h.DeleteMe)

	tiers := v1.Group("/tiers")
	tiers.GET("", h.ListTiers)
	tiers.POST("", h.CreateTier)
	tiers.GET("/:id", h.GetTier)
	tiers.PUT("/:id", h.UpdateTier)
	tiers.PATCH("/:id", h.UpdateTier)
	tiers.DELETE("/:id", h.DeleteTier)

	images := v1.Group("/custom-images")
	images.GET("", h.ListCustomImages)
	images.POST("", h.CreateCustomImage)
	images.GET("/:id", h.GetCustomImage)
	images.PUT("/:id", h.UpdateCustomImage)
	images.PATCH("/:id", h.UpdateCustomImage)
	images.DELETE("/:id", h.DeleteCustomImage)
	images.POST("/:id/upload-image", h.UploadCustomImage)

	admin := v1.Group("/admin")
	admin.Use(middleware.RequireStaff())
	admin.GET("/accounts", h.AdminListAccounts)
	admin.PATCH("/accounts/:id", h.AdminUpdateAccount)
}

// bindPayload reads a JSON object body. An empty body is an empty payload.
func bindPayload(c *gin.Context) (views.Payload, error) {
	payload := views.Payload{}
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.Validation("request body must be a JSON object", nil)
	}
	return payload, nil
}

// updateAction maps the HTTP method onto a full or partial update.
func updateAction(c *gin.Context) views.Action {
	if c.Request.Method == http.MethodPatch {
		return views.ActionPartialUpdate
	}
	return views.ActionUpdate
}
