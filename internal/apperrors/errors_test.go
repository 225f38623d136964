package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierimage/internal/media/derivative"
	"tierimage/internal/plans"
	"tierimage/internal/policy"
	"tierimage/internal/repository"
	"tierimage/internal/storage"
)

func TestFromMapsDomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   Code
		status int
	}{
		{"unauthenticated", policy.ErrUnauthenticated, CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", policy.ErrForbidden, CodeForbidden, http.StatusForbidden},
		{"out of scope looks missing", policy.ErrOutOfScope, CodeNotFound, http.StatusNotFound},
		{"missing", fmt.Errorf("load tier: %w", repository.ErrNotFound), CodeNotFound, http.StatusNotFound},
		{"blank plan", plans.ErrBlankPlan, CodeConfigurationError, http.StatusInternalServerError},
		{"unknown plan", plans.ErrUnknownPlan, CodeConfigurationError, http.StatusInternalServerError},
		{"extension", storage.ErrUnsupportedExtension, CodeValidationFailed, http.StatusBadRequest},
		{"undecodable", derivative.ErrUnsupportedFormat, CodeValidationFailed, http.StatusBadRequest},
		{"dimensions", derivative.ErrInvalidDimensions, CodeValidationFailed, http.StatusBadRequest},
		{"other", errors.New("disk on fire"), CodeInternalError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := From(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, appErr.HTTPCode)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}

func TestFromKeepsExistingAppError(t *testing.T) {
	original := FieldError("image", "this field is required")
	wrapped := fmt.Errorf("upload: %w", original)
	assert.Same(t, original, From(wrapped))
	assert.Nil(t, From(nil))
}

func TestMarshalJSONHidesCause(t *testing.T) {
	appErr := Wrap(errors.New("secret"), CodeForbidden, "nope", http.StatusForbidden)
	raw, err := json.Marshal(appErr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"FORBIDDEN","message":"nope"}`, string(raw))
	assert.True(t, IsKind(appErr, CodeForbidden))
}
