// Package views decides which shape of a record a caller gets to see.
//
// A custom image has one output schema per capability tier plus a minimal
// schema used by the upload action. Selection is a table lookup, never a
// chain of conditionals.
package views

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"tierimage/internal/plans"
)

type Field string

const (
	FieldID   Field = "id"
	FieldName Field = "name"

	FieldImage              Field = "image"
	FieldLink200            Field = "link_200px"
	FieldLink400            Field = "link_400px"
	FieldExpiringLinkVal    Field = "expiring_link_val"
	FieldExpiringLink       Field = "expiring_link"
	FieldCustomExpiringLink Field = "custom_expiring_link"
	FieldCustomLink         Field = "custom_link"
	FieldCustomLinkHeight   Field = "custom_link_height"
	FieldCustomLinkWidth    Field = "custom_link_width"

	FieldTitle        Field = "title"
	FieldDescription  Field = "description"
	FieldCustomImages Field = "custom_images"

	FieldEmail       Field = "email"
	FieldPassword    Field = "password"
	FieldAccountPlan Field = "account_plan"
	FieldIsStaff     Field = "is_staff"
)

// Schema is a field set: what is rendered, and what a caller may write.
type Schema struct {
	Name     string
	Fields   []Field
	Writable []Field
	Required []Field
}

func (s Schema) Has(f Field) bool {
	return slices.Contains(s.Fields, f)
}

func (s Schema) CanWrite(f Field) bool {
	return slices.Contains(s.Writable, f)
}

// ReadOnly lists rendered fields the caller cannot write.
func (s Schema) ReadOnly() []Field {
	return lo.Filter(s.Fields, func(f Field, _ int) bool {
		return !s.CanWrite(f)
	})
}

var common = []Field{FieldID, FieldName}

func withCommon(fields ...Field) []Field {
	return append(slices.Clone(common), fields...)
}

var customImageSchemas = [...]Schema{
	plans.Basic: {
		Name:     "basic",
		Fields:   withCommon(FieldLink200),
		Writable: []Field{FieldName},
	},
	plans.Premium: {
		Name:     "premium",
		Fields:   withCommon(FieldImage, FieldLink200, FieldLink400),
		Writable: []Field{FieldName},
	},
	plans.Enterprise: {
		Name:     "enterprise",
		Fields:   withCommon(FieldLink200, FieldLink400, FieldExpiringLinkVal, FieldExpiringLink),
		Writable: []Field{FieldName, FieldExpiringLinkVal},
	},
	plans.Admin: {
		Name:   "admin",
		Fields: withCommon(FieldCustomExpiringLink, FieldCustomLink, FieldImage),
		// Dimensions are write-only: they configure custom_link and are
		// never rendered.
		Writable: []Field{FieldName, FieldCustomExpiringLink, FieldCustomLinkHeight, FieldCustomLinkWidth},
	},
}

// Fails to compile when a capability is added without a schema.
var _ = [1]struct{}{}[len(customImageSchemas)-plans.Count]

var uploadSchema = Schema{
	Name:     "upload",
	Fields:   []Field{FieldID, FieldImage},
	Writable: []Field{FieldImage},
	Required: []Field{FieldImage},
}

// Select returns the custom image schema for a capability and action.
func Select(c plans.Capability, a Action) (Schema, error) {
	if !c.Valid() {
		return Schema{}, fmt.Errorf("select schema: invalid capability %d", c)
	}
	if _, err := ParseAction(string(a)); err != nil {
		return Schema{}, fmt.Errorf("select schema: %w", err)
	}
	if a == ActionUploadImage {
		return clone(uploadSchema), nil
	}
	return clone(customImageSchemas[c]), nil
}

// TierSchema is the same for every capability and action.
func TierSchema() Schema {
	return Schema{
		Name:     "tier",
		Fields:   []Field{FieldID, FieldTitle, FieldDescription, FieldCustomImages},
		Writable: []Field{FieldTitle, FieldDescription, FieldCustomImages},
		Required: []Field{FieldTitle},
	}
}

// AccountSchema is the account shape. Only privileged callers see and
// write the plan tag and staff flag.
func AccountSchema(privileged bool) Schema {
	s := Schema{
		Name:     "account",
		Fields:   []Field{FieldID, FieldEmail, FieldName},
		Writable: []Field{FieldEmail, FieldPassword, FieldName},
	}
	if privileged {
		s.Name = "staff_account"
		s.Fields = append(s.Fields, FieldAccountPlan, FieldIsStaff)
		s.Writable = append(s.Writable, FieldAccountPlan, FieldIsStaff)
	}
	return s
}

func clone(s Schema) Schema {
	s.Fields = slices.Clone(s.Fields)
	s.Writable = slices.Clone(s.Writable)
	s.Required = slices.Clone(s.Required)
	return s
}
