package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"tierimage/internal/apperrors"
	"tierimage/internal/views"
)

const (
	maxNameLength      = 255
	minLinkSeconds     = 300
	maxLinkSeconds     = 30000
	maxCustomDimension = 4096
)

// problems collects per-field validation failures.
type problems map[string]string

func (p problems) add(field views.Field, format string, args ...any) {
	if _, ok := p[string(field)]; !ok {
		p[string(field)] = fmt.Sprintf(format, args...)
	}
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return apperrors.Validation("validation failed", map[string]string(p))
}

func (p problems) name(field views.Field, value *string, required bool) {
	if value == nil {
		if required {
			p.add(field, "this field is required")
		}
		return
	}
	*value = strings.TrimSpace(*value)
	switch {
	case *value == "":
		p.add(field, "this field may not be blank")
	case utf8.RuneCountInString(*value) > maxNameLength:
		p.add(field, "ensure this field has no more than %d characters", maxNameLength)
	}
}

// seconds accepts 0 (unset) or a lifetime within the link bounds.
func (p problems) seconds(field views.Field, value *int) {
	if value == nil || *value == 0 {
		return
	}
	if *value < minLinkSeconds || *value > maxLinkSeconds {
		p.add(field, "must be between %d and %d seconds", minLinkSeconds, maxLinkSeconds)
	}
}

func (p problems) dimension(field views.Field, value *int) {
	if value == nil || *value == 0 {
		return
	}
	if *value < 0 || *value > maxCustomDimension {
		p.add(field, "must be between 1 and %d", maxCustomDimension)
	}
}

// decode filters payload through schema and unmarshals what is left.
func decode(schema views.Schema, payload views.Payload, out any) error {
	if err := schema.Filter(payload).Decode(out); err != nil {
		var fieldErr *views.FieldError
		if errors.As(err, &fieldErr) {
			return apperrors.FieldError(string(fieldErr.Field), fieldErr.Err.Error())
		}
		return apperrors.Validation("malformed request body", nil)
	}
	return nil
}
