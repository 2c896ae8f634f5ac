package report

// Standard is one of the six supported compliance standards. The set is
// closed: per-standard requirements and validators are registered in a
// static table keyed by this type rather than dispatched on raw strings.
type Standard string

const (
	StandardEUCBAM      Standard = "eu_cbam"
	StandardUKCBAM      Standard = "uk_cbam"
	StandardChinaCarbon Standard = "china_carbon"
	StandardKESG        Standard = "korea_k_esg"
	StandardMAFFESG     Standard = "japan_maff_esg"
	StandardThailandESG Standard = "thailand_esg"
)

// AllStandards returns every supported standard
func AllStandards() []Standard {
	return []Standard{
		StandardEUCBAM,
		StandardUKCBAM,
		StandardChinaCarbon,
		StandardKESG,
		StandardMAFFESG,
		StandardThailandESG,
	}
}

func (s Standard) Valid() bool {
	switch s {
	case StandardEUCBAM, StandardUKCBAM, StandardChinaCarbon,
		StandardKESG, StandardMAFFESG, StandardThailandESG:
		return true
	}
	return false
}

// DisplayName returns the human-readable standard name used in rendered
// report headers.
func (s Standard) DisplayName() string {
	switch s {
	case StandardEUCBAM:
		return "EU Carbon Border Adjustment Mechanism"
	case StandardUKCBAM:
		return "UK Carbon Border Adjustment Mechanism"
	case StandardChinaCarbon:
		return "China Carbon Disclosure"
	case StandardKESG:
		return "Korea K-ESG"
	case StandardMAFFESG:
		return "Japan MAFF ESG"
	case StandardThailandESG:
		return "Thailand ESG"
	default:
		return string(s)
	}
}

// Format selects which artifacts the renderer produces
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatBoth Format = "both"
)

func (f Format) Valid() bool {
	switch f {
	case FormatPDF, FormatXLSX, FormatBoth:
		return true
	}
	return false
}
