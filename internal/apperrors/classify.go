package apperrors

import (
	"errors"
	"net/http"

	"tierimage/internal/media/derivative"
	"tierimage/internal/media/sniffer"
	"tierimage/internal/plans"
	"tierimage/internal/policy"
	"tierimage/internal/repository"
	"tierimage/internal/storage"
)

// From maps domain errors onto the taxonomy. An AppError already in the
// chain wins; anything unrecognised is internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, policy.ErrUnauthenticated):
		return Unauthenticated(err)
	case errors.Is(err, policy.ErrForbidden):
		return Forbidden(err)
	case errors.Is(err, policy.ErrOutOfScope), errors.Is(err, repository.ErrNotFound):
		return NotFound("record", err)
	case errors.Is(err, plans.ErrBlankPlan), errors.Is(err, plans.ErrUnknownPlan):
		return Configuration(err)
	case errors.Is(err, storage.ErrUnsupportedExtension):
		return Wrap(err, CodeValidationFailed, "validation failed", http.StatusBadRequest).withDetails("image", err.Error())
	case errors.Is(err, derivative.ErrUnsupportedFormat),
		errors.Is(err, sniffer.ErrUnknownType),
		errors.Is(err, sniffer.ErrMismatch):
		return Wrap(err, CodeValidationFailed, "validation failed", http.StatusBadRequest).withDetails("image", "upload a valid jpg or png image")
	case errors.Is(err, derivative.ErrInvalidDimensions):
		return Wrap(err, CodeValidationFailed, "validation failed", http.StatusBadRequest).withDetails("custom_link_height", "dimensions must be positive")
	case errors.Is(err, repository.ErrConflict):
		return Wrap(err, CodeValidationFailed, "record already exists", http.StatusBadRequest)
	}
	return Internal(err)
}

func (e *AppError) withDetails(field, problem string) *AppError {
	e.Details = map[string]string{field: problem}
	return e
}
