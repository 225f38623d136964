package views

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Payload is a request body keyed by field name. Keeping fields raw lets
// callers tell an absent field from an empty one.
type Payload map[string]json.RawMessage

// FieldError reports a writable field whose value has the wrong type.
type FieldError struct {
	Field Field
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Filter keeps only the fields s lets the caller write. Everything else
// is dropped without error.
func (s Schema) Filter(p Payload) Payload {
	out := make(Payload, len(p))
	for name, raw := range p {
		if s.CanWrite(Field(name)) {
			out[name] = raw
		}
	}
	return out
}

// Missing lists the required fields absent from p.
func (s Schema) Missing(p Payload) []Field {
	var missing []Field
	for _, f := range s.Required {
		if raw, ok := p[string(f)]; !ok || string(raw) == "null" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Decode unmarshals p into out, a struct with json tags.
func (p Payload) Decode(out any) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &FieldError{Field: Field(typeErr.Field), Err: fmt.Errorf("expected %s", typeErr.Type)}
		}
		return err
	}
	return nil
}

// Has reports whether field f is present in p.
func (p Payload) Has(f Field) bool {
	_, ok := p[string(f)]
	return ok
}
