package views

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierimage/internal/plans"
)

var allActions = []Action{
	ActionList, ActionRetrieve, ActionCreate, ActionUpdate, ActionPartialUpdate, ActionDestroy,
}

func TestSelectFieldSets(t *testing.T) {
	tests := []struct {
		capability plans.Capability
		want       []Field
	}{
		{plans.Basic, []Field{"id", "name", "link_200px"}},
		{plans.Premium, []Field{"id", "name", "image", "link_200px", "link_400px"}},
		{plans.Enterprise, []Field{"id", "name", "link_200px", "link_400px", "expiring_link_val", "expiring_link"}},
		{plans.Admin, []Field{"id", "name", "custom_expiring_link", "custom_link", "image"}},
	}
	for _, tt := range tests {
		for _, action := range allActions {
			t.Run(tt.capability.String()+"/"+string(action), func(t *testing.T) {
				schema, err := Select(tt.capability, action)
				require.NoError(t, err)
				assert.ElementsMatch(t, tt.want, schema.Fields)
			})
		}
	}
}

func TestSelectUploadIgnoresCapability(t *testing.T) {
	for c := plans.Basic; c < plans.Capability(plans.Count); c++ {
		schema, err := Select(c, ActionUploadImage)
		require.NoError(t, err)
		assert.Equal(t, []Field{FieldID, FieldImage}, schema.Fields)
		assert.Equal(t, []Field{FieldImage}, schema.Required)
	}
}

func TestSelectRejectsBadInput(t *testing.T) {
	_, err := Select(plans.Capability(42), ActionList)
	assert.Error(t, err)

	_, err = Select(plans.Basic, Action("publish"))
	assert.Error(t, err)
}

func TestSelectReturnsIndependentCopies(t *testing.T) {
	a, err := Select(plans.Basic, ActionList)
	require.NoError(t, err)
	a.Fields[0] = "tampered"

	b, err := Select(plans.Basic, ActionList)
	require.NoError(t, err)
	assert.Equal(t, FieldID, b.Fields[0])
}

func TestWritableFields(t *testing.T) {
	enterprise, _ := Select(plans.Enterprise, ActionPartialUpdate)
	assert.True(t, enterprise.CanWrite(FieldExpiringLinkVal))
	assert.False(t, enterprise.CanWrite(FieldExpiringLink))
	assert.Contains(t, enterprise.ReadOnly(), FieldExpiringLink)

	basic, _ := Select(plans.Basic, ActionUpdate)
	assert.False(t, basic.CanWrite(FieldExpiringLinkVal))
	assert.False(t, basic.CanWrite(FieldLink200))

	admin, _ := Select(plans.Admin, ActionUpdate)
	assert.True(t, admin.CanWrite(FieldCustomLinkHeight))
	assert.False(t, admin.Has(FieldCustomLinkHeight))
}

func TestRenderOnlyResolvesSchemaFields(t *testing.T) {
	schema, _ := Select(plans.Basic, ActionRetrieve)

	var asked []Field
	out, err := schema.Render(func(f Field) (any, error) {
		asked = append(asked, f)
		if f == FieldLink200 {
			return Link(""), nil
		}
		return "v-" + string(f), nil
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []Field{FieldID, FieldName, FieldLink200}, asked)
	assert.Len(t, out, 3)
	v, ok := out["link_200px"]
	assert.True(t, ok, "uncomputed derivative keeps its key")
	assert.Nil(t, v)
}

func TestRenderPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	schema, _ := Select(plans.Enterprise, ActionRetrieve)

	_, err := schema.Render(func(f Field) (any, error) {
		if f == FieldExpiringLink {
			return nil, boom
		}
		return nil, nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("partial_update")
	require.NoError(t, err)
	assert.True(t, a.Partial())
	assert.True(t, a.Mutates())
	assert.False(t, ActionList.Mutates())

	_, err = ParseAction("")
	assert.Error(t, err)
}

func TestTierSchema(t *testing.T) {
	s := TierSchema()
	assert.Equal(t, []Field{FieldID, FieldTitle, FieldDescription, FieldCustomImages}, s.Fields)
	assert.True(t, s.CanWrite(FieldCustomImages))
	assert.False(t, s.CanWrite(FieldID))
}

func TestFilterDropsUnwritableFields(t *testing.T) {
	basic, _ := Select(plans.Basic, ActionPartialUpdate)
	in := Payload{
		"name":               json.RawMessage(`"renamed"`),
		"custom_link_height": json.RawMessage(`"not a number"`),
		"link_200px":         json.RawMessage(`"http://evil"`),
	}

	out := basic.Filter(in)
	assert.Equal(t, Payload{"name": json.RawMessage(`"renamed"`)}, out)
}

func TestPayloadDecode(t *testing.T) {
	var dst struct {
		Height *int    `json:"custom_link_height"`
		Name   *string `json:"name"`
	}
	require.NoError(t, Payload{"custom_link_height": json.RawMessage(`120`)}.Decode(&dst))
	require.NotNil(t, dst.Height)
	assert.Equal(t, 120, *dst.Height)
	assert.Nil(t, dst.Name)

	err := Payload{"custom_link_height": json.RawMessage(`"tall"`)}.Decode(&dst)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, FieldCustomLinkHeight, fieldErr.Field)
}

func TestMissingRequiredFields(t *testing.T) {
	upload, _ := Select(plans.Premium, ActionUploadImage)
	assert.Equal(t, []Field{FieldImage}, upload.Missing(Payload{}))
	assert.Equal(t, []Field{FieldImage}, upload.Missing(Payload{"image": json.RawMessage(`null`)}))
	assert.Empty(t, upload.Missing(Payload{"image": json.RawMessage(`"x"`)}))
}

func TestAccountSchema(t *testing.T) {
	assert.Equal(t, []Field{FieldID, FieldEmail, FieldName}, AccountSchema(false).Fields)
	assert.True(t, AccountSchema(true).Has(FieldAccountPlan))
	assert.False(t, AccountSchema(false).CanWrite(FieldIsStaff))
}
