package emissions

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewActivity(t *testing.T) {
	projectID := uuid.New()
	qty := decimal.NewFromInt(100)

	t.Run("creates pending activity", func(t *testing.T) {
		a, err := NewActivity(projectID, Scope1, "diesel_combustion", qty, "liter", Tier1)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, a.Status)
		assert.Nil(t, a.TotalEmissions)
		assert.Equal(t, projectID, a.ProjectID)
	})

	t.Run("defaults empty tier to tier1", func(t *testing.T) {
		a, err := NewActivity(projectID, Scope2, "electricity", qty, "kwh", "")
		require.NoError(t, err)
		assert.Equal(t, Tier1, a.Tier)
	})

	t.Run("rejects invalid inputs", func(t *testing.T) {
		cases := []struct {
			name      string
			projectID uuid.UUID
			scope     Scope
			atype     string
			unit      string
			tier      TierLevel
		}{
			{"nil project", uuid.Nil, Scope1, "diesel", "liter", Tier1},
			{"bad scope", projectID, "scope4", "diesel", "liter", Tier1},
			{"empty activity type", projectID, Scope1, "", "liter", Tier1},
			{"empty unit", projectID, Scope1, "diesel", "", Tier1},
			{"bad tier", projectID, Scope1, "diesel", "liter", "tier9"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewActivity(tc.projectID, tc.scope, tc.atype, qty, tc.unit, tc.tier)
				assert.Error(t, err)
			})
		}
	})
}

func TestActivityCategory(t *testing.T) {
	a, err := NewActivity(uuid.New(), Scope3, "freight", decimal.NewFromInt(10), "km", Tier1)
	require.NoError(t, err)

	t.Run("assigns valid scope3 category", func(t *testing.T) {
		_, err := a.WithCategory(CategoryUpstreamTransport)
		require.NoError(t, err)
		require.NotNil(t, a.Category)
		assert.Equal(t, CategoryUpstreamTransport, *a.Category)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		_, err := a.WithCategory("category_16")
		assert.Error(t, err)
	})

	t.Run("rejects category on scope1", func(t *testing.T) {
		s1, err := NewActivity(uuid.New(), Scope1, "diesel", decimal.NewFromInt(1), "liter", Tier1)
		require.NoError(t, err)
		_, err = s1.WithCategory(CategoryBusinessTravel)
		assert.Error(t, err)
	})
}

func TestActivityCalculationLifecycle(t *testing.T) {
	newCalculated := func(t *testing.T) *Activity {
		t.Helper()
		a, err := NewActivity(uuid.New(), Scope2, "electricity", decimal.NewFromInt(1000), "kwh", Tier1)
		require.NoError(t, err)
		a.MarkCalculated(decimal.NewFromFloat(420), decimal.NewFromFloat(0.42), "DEFRA 2024")
		return a
	}

	t.Run("mark calculated records figure and provenance", func(t *testing.T) {
		a := newCalculated(t)
		assert.True(t, a.IsCalculated())
		assert.Equal(t, "420", a.TotalEmissions.String())
		assert.Equal(t, "DEFRA 2024", a.FactorSource)
	})

	t.Run("quantity edit resets to pending", func(t *testing.T) {
		a := newCalculated(t)
		a.UpdateQuantity(decimal.NewFromInt(2000))
		assert.Equal(t, StatusPending, a.Status)
		assert.Nil(t, a.TotalEmissions)
		assert.Nil(t, a.Factor)
		assert.Empty(t, a.FactorSource)
		assert.False(t, a.IsCalculated())
	})

	t.Run("unit edit resets to pending", func(t *testing.T) {
		a := newCalculated(t)
		a.UpdateUnit("mwh")
		assert.Equal(t, StatusPending, a.Status)
		assert.Nil(t, a.TotalEmissions)
	})

	t.Run("mark error clears the figure but keeps inputs", func(t *testing.T) {
		a := newCalculated(t)
		a.MarkError()
		assert.Equal(t, StatusError, a.Status)
		assert.Nil(t, a.TotalEmissions)
		assert.Equal(t, "1000", a.Quantity.String())
	})
}

func TestScope3Direction(t *testing.T) {
	assert.Equal(t, DirectionUpstream, CategoryPurchasedGoods.Direction())
	assert.Equal(t, DirectionUpstream, CategoryUpstreamLeased.Direction())
	assert.Equal(t, DirectionDownstream, CategoryDownstreamTransport.Direction())
	assert.Equal(t, DirectionDownstream, CategoryInvestments.Direction())
	assert.Equal(t, DirectionUpstream, Scope3Category("unknown").Direction())

	assert.Len(t, AllScope3Categories(), 15)
	for _, c := range AllScope3Categories() {
		assert.True(t, c.Valid(), string(c))
	}
}
