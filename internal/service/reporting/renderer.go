package reporting

import (
	"fmt"
	"sort"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
	"github.com/greenledger/carbon-compliance-backend/internal/domain/report"
	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/artifact"
)

// Renderer produces report artifacts. Rendering failures propagate so the
// caller can keep the report in draft instead of marking it generated.
type Renderer struct {
	store artifact.Store
}

// NewRenderer creates a renderer writing through the artifact store
func NewRenderer(store artifact.Store) *Renderer {
	return &Renderer{store: store}
}

// Render produces the artifacts the format asks for and returns their paths
func (r *Renderer) Render(data *report.ReportData, format report.Format) ([]string, error) {
	var paths []string

	if format == report.FormatPDF || format == report.FormatBoth {
		path, err := r.renderPDF(data)
		if err != nil {
			return nil, domainerrors.NewInternalError("PDF rendering failed").WithCause(err)
		}
		paths = append(paths, path)
	}

	if format == report.FormatXLSX || format == report.FormatBoth {
		path, err := r.renderXLSX(data)
		if err != nil {
			return nil, domainerrors.NewInternalError("XLSX rendering failed").WithCause(err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// renderPDF writes the document-style artifact: header, summary table,
// activity table and standard-specific fields.
func (r *Renderer) renderPDF(data *report.ReportData) (string, error) {
	path, err := r.store.Path(data.Project.ID, string(data.Standard), "pdf")
	if err != nil {
		return "", err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(data.Standard.DisplayName(), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, data.Standard.DisplayName(), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s / %s", data.Project.Organization, data.Project.Name), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Reporting period: %s to %s",
		data.Period.Start.Format("2006-01-02"), data.Period.End.Format("2006-01-02")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Emissions Summary (kg CO2e)", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	summaryRow(pdf, "Scope 1", data.Emissions.Scope1)
	summaryRow(pdf, "Scope 2", data.Emissions.Scope2)
	if data.Emissions.Scope3 != "" {
		summaryRow(pdf, "Scope 3", data.Emissions.Scope3)
	}
	pdf.SetFont("Helvetica", "B", 10)
	summaryRow(pdf, "Total", data.Emissions.Total)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Activities", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	widths := []float64{25, 55, 30, 20, 35, 25}
	headers := []string{"Scope", "Activity", "Quantity", "Unit", "Emissions", "Source"}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range data.Activities {
		cells := []string{line.Scope, line.ActivityType, line.Quantity, line.Unit, line.TotalEmissions, line.FactorSource}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(data.StandardFields) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Standard Fields", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, key := range sortedKeys(data.StandardFields) {
			summaryRow(pdf, key, fmt.Sprint(data.StandardFields[key]))
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}
	return path, nil
}

func summaryRow(pdf *fpdf.Fpdf, label, value string) {
	pdf.CellFormat(60, 6, label, "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 6, value, "1", 1, "R", false, 0, "")
}

// renderXLSX writes the tabular artifact, one sheet per logical section
func (r *Renderer) renderXLSX(data *report.ReportData) (string, error) {
	path, err := r.store.Path(data.Project.ID, string(data.Standard), "xlsx")
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	f.SetSheetName(f.GetSheetName(0), summarySheet)
	summaryRows := [][]interface{}{
		{"Standard", data.Standard.DisplayName()},
		{"Project", data.Project.Name},
		{"Organization", data.Project.Organization},
		{"Period Start", data.Period.Start.Format("2006-01-02")},
		{"Period End", data.Period.End.Format("2006-01-02")},
		{},
		{"Scope 1 (kg CO2e)", data.Emissions.Scope1},
		{"Scope 2 (kg CO2e)", data.Emissions.Scope2},
		{"Scope 3 (kg CO2e)", data.Emissions.Scope3},
		{"Total (kg CO2e)", data.Emissions.Total},
	}
	if err := writeRows(f, summarySheet, summaryRows); err != nil {
		return "", err
	}

	activitySheet := "Activities"
	if _, err := f.NewSheet(activitySheet); err != nil {
		return "", err
	}
	activityRows := [][]interface{}{
		{"ID", "Scope", "Category", "Activity Type", "Quantity", "Unit", "Emissions (kg CO2e)", "Factor Source"},
	}
	for _, line := range data.Activities {
		activityRows = append(activityRows, []interface{}{
			line.ID.String(), line.Scope, line.Category, line.ActivityType,
			line.Quantity, line.Unit, line.TotalEmissions, line.FactorSource,
		})
	}
	if err := writeRows(f, activitySheet, activityRows); err != nil {
		return "", err
	}

	if len(data.Emissions.Scope3Categories) > 0 {
		scope3Sheet := "Scope 3 Breakdown"
		if _, err := f.NewSheet(scope3Sheet); err != nil {
			return "", err
		}
		rows := [][]interface{}{{"Category", "Emissions (kg CO2e)"}}
		for _, cat := range sortedKeys(toInterfaceMap(data.Emissions.Scope3Categories)) {
			rows = append(rows, []interface{}{cat, data.Emissions.Scope3Categories[cat]})
		}
		if err := writeRows(f, scope3Sheet, rows); err != nil {
			return "", err
		}
	}

	if len(data.StandardFields) > 0 {
		fieldsSheet := "Standard Fields"
		if _, err := f.NewSheet(fieldsSheet); err != nil {
			return "", err
		}
		rows := [][]interface{}{{"Field", "Value"}}
		for _, key := range sortedKeys(data.StandardFields) {
			rows = append(rows, []interface{}{key, fmt.Sprint(data.StandardFields[key])})
		}
		if err := writeRows(f, fieldsSheet, rows); err != nil {
			return "", err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toInterfaceMap(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
