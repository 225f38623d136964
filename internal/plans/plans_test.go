package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierimage/internal/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		tag  string
		want Capability
	}{
		{"basic", Basic},
		{"premium", Premium},
		{"enterprise", Enterprise},
		{"admin", Admin},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := Resolve(tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, models.Plan(tt.tag), got.Plan())
		})
	}
}

func TestResolveBlank(t *testing.T) {
	for _, tag := range []string{"", "   "} {
		_, err := Resolve(tag)
		assert.ErrorIs(t, err, ErrBlankPlan)
	}

	var unset models.Plan
	_, err := ResolvePlan(unset)
	assert.ErrorIs(t, err, ErrBlankPlan)
}

func TestResolveUnknown(t *testing.T) {
	for _, tag := range []string{"bp", "Basic", "gold"} {
		_, err := Resolve(tag)
		assert.ErrorIs(t, err, ErrUnknownPlan)
		assert.NotErrorIs(t, err, ErrBlankPlan)
	}
}

func TestCapabilityOrdering(t *testing.T) {
	assert.True(t, Admin.AtLeast(Enterprise))
	assert.True(t, Enterprise.AtLeast(Premium))
	assert.True(t, Premium.AtLeast(Basic))
	assert.True(t, Basic.AtLeast(Basic))
	assert.False(t, Basic.AtLeast(Premium))

	assert.Equal(t, 4, Count)
	assert.False(t, Capability(Count).Valid())
	assert.Equal(t, "unknown", Capability(-1).String())
}
