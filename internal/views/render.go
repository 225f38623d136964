package views

import "fmt"

// Resolver produces the value of one field. It is only called for fields
// in the schema, so expensive values (presigned links) are computed lazily.
type Resolver func(Field) (any, error)

// Render builds the output document for s.
func (s Schema) Render(resolve Resolver) (map[string]any, error) {
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		v, err := resolve(f)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", f, err)
		}
		out[string(f)] = v
	}
	return out, nil
}

// Link returns nil for an empty link so that missing derivatives render as
// null rather than "".
func Link(url string) any {
	if url == "" {
		return nil
	}
	return url
}
