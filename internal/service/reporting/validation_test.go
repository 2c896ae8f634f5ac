package reporting

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/report"
)

func completeReportData(standard report.Standard) *report.ReportData {
	return &report.ReportData{
		Project: report.ProjectInfo{
			ID:           uuid.New(),
			Name:         "Plant A",
			Organization: "Acme Steel",
			Country:      "DE",
		},
		Period: report.ReportingPeriod{
			Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		Standard: standard,
		Emissions: report.EmissionsBlock{
			Scope1: "1200.0000",
			Scope2: "800.0000",
			Scope3: "400.0000",
			Total:  "2400.0000",
		},
		StandardFields: map[string]interface{}{
			"commodity_code":      "7208",
			"direct_emissions":    "1200.0000",
			"indirect_emissions":  "800.0000",
			"precursor_emissions": "150.0000",
			"unified_credit_code": "91110000100000001X",
			"reduction_target":    "30% by 2030",
		},
		GeneratedAt: time.Now().UTC(),
	}
}

func TestRequirementsFor(t *testing.T) {
	t.Run("every standard is registered", func(t *testing.T) {
		for _, std := range report.AllStandards() {
			req, ok := RequirementsFor(std)
			require.True(t, ok, "standard %s", std)
			assert.NotEmpty(t, req.RequiredFields)
			assert.NotEmpty(t, req.Sections)
		}
	})

	t.Run("unknown standard is rejected", func(t *testing.T) {
		_, ok := RequirementsFor(report.Standard("us_sec"))
		assert.False(t, ok)
	})

	t.Run("cbam requires commodity and emissions split", func(t *testing.T) {
		for _, std := range []report.Standard{report.StandardEUCBAM, report.StandardUKCBAM} {
			req, _ := RequirementsFor(std)
			assert.Contains(t, req.RequiredFields, "standard_fields.commodity_code")
			assert.Contains(t, req.RequiredFields, "standard_fields.direct_emissions")
			assert.Contains(t, req.RequiredFields, "standard_fields.indirect_emissions")
			assert.Contains(t, req.RequiredFields, "standard_fields.precursor_emissions")
		}
	})

	t.Run("k-esg and maff-esg require scope3 and signature", func(t *testing.T) {
		for _, std := range []report.Standard{report.StandardKESG, report.StandardMAFFESG} {
			req, _ := RequirementsFor(std)
			assert.Contains(t, req.RequiredFields, "emissions.scope3")
			assert.True(t, req.SignatureRequired, "standard %s", std)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("complete document passes", func(t *testing.T) {
		for _, std := range report.AllStandards() {
			v, err := Validate(completeReportData(std), std)
			require.NoError(t, err)
			assert.True(t, v.Valid, "standard %s: %v", std, v.Errors)
			assert.Empty(t, v.MissingRequired)
		}
	})

	t.Run("missing required field is an error", func(t *testing.T) {
		data := completeReportData(report.StandardEUCBAM)
		delete(data.StandardFields, "commodity_code")

		v, err := Validate(data, report.StandardEUCBAM)
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Contains(t, v.MissingRequired, "standard_fields.commodity_code")
		require.NotEmpty(t, v.Errors)
		assert.Contains(t, v.Errors[0], "commodity_code")
	})

	t.Run("china carbon rejects empty credit code", func(t *testing.T) {
		data := completeReportData(report.StandardChinaCarbon)
		data.StandardFields["unified_credit_code"] = "   "

		v, err := Validate(data, report.StandardChinaCarbon)
		require.NoError(t, err)
		assert.False(t, v.Valid)
	})

	t.Run("k-esg flags missing scope3 as warning", func(t *testing.T) {
		data := completeReportData(report.StandardKESG)
		data.Emissions.Scope3 = ""

		v, err := Validate(data, report.StandardKESG)
		require.NoError(t, err)
		assert.False(t, v.Valid)
		require.NotEmpty(t, v.Warnings)
		assert.Contains(t, v.Warnings[0], "scope 3")
	})

	t.Run("completeness reflects filled share", func(t *testing.T) {
		data := completeReportData(report.StandardThailandESG)
		full, err := Validate(data, report.StandardThailandESG)
		require.NoError(t, err)

		data.Emissions.Scope3 = ""
		data.StandardFields = nil
		partial, err := Validate(data, report.StandardThailandESG)
		require.NoError(t, err)

		assert.Greater(t, full.Completeness, partial.Completeness)
		assert.LessOrEqual(t, full.Completeness, 100)
		assert.GreaterOrEqual(t, partial.Completeness, 0)
	})

	t.Run("unknown standard errors", func(t *testing.T) {
		_, err := Validate(completeReportData(report.StandardEUCBAM), report.Standard("us_sec"))
		assert.Error(t, err)
	})
}
