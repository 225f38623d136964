package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tierimage/internal/apperrors"
	"tierimage/internal/middleware"
	"tierimage/internal/service"
)

const uploadField = "image"

func (h HandlerSet) ListCustomImages(c *gin.Context) {
	items, err := h.images.List(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h HandlerSet) GetCustomImage(c *gin.Context) {
	doc, err := h.images.Get(c.Request.Context(), middleware.Identity(c), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h HandlerSet) CreateCustomImage(c *gin.Context) {
	payload, err := bindPayload(c)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	doc, err := h.images.Create(c.Request.Context(), middleware.Identity(c), payload)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h HandlerSet) UpdateCustomImage(c *gin.Context) {
	payload, err := bindPayload(c)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	doc, err := h.images.Update(c.Request.Context(), middleware.Identity(c), c.Param("id"), updateAction(c), payload)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h HandlerSet) DeleteCustomImage(c *gin.Context) {
	if err := h.images.Delete(c.Request.Context(), middleware.Identity(c), c.Param("id")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) UploadCustomImage(c *gin.Context) {
	upload, err := h.readUpload(c)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	doc, err := h.images.UploadImage(c.Request.Context(), middleware.Identity(c), c.Param("id"), upload)
	if err != nil {
		h.log.Warn().Err(err).Str("custom_image_id", c.Param("id")).Msg("upload image failed")
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// readUpload returns nil when the request carries no file so the service
// can report the missing field.
func (h HandlerSet) readUpload(c *gin.Context) (*service.Upload, error) {
	limit := h.cfg.Upload.MaxBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, apperrors.FieldError(uploadField, "file is too large")
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, nil
		}
		return nil, apperrors.FieldError(uploadField, "the submitted data was not a file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.FieldError(uploadField, "could not read the submitted file")
	}
	return &service.Upload{Filename: header.Filename, Data: data}, nil
}
