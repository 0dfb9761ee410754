// Package constants provides shared constants for the licitacost application.
package constants

// Tax regime defaults
const (
	// DefaultHomeState is the state in which the company is registered
	DefaultHomeState = "MG"

	// DefaultInterstateRate is the baseline rate applied to interstate movement
	DefaultInterstateRate = 0.12

	// DefaultSimplesRate is the flat Simples Nacional rate applied to gross revenue
	DefaultSimplesRate = 0.05
)

// DefaultStateRates holds the intrastate ICMS rates known out of the box.
// States absent from the table fall back to DefaultInterstateRate.
var DefaultStateRates = map[string]float64{
	"MG": 0.18,
	"SP": 0.18,
	"RJ": 0.20,
}

// DefaultProfitMargins are the profit targets solved for in every report.
var DefaultProfitMargins = []float64{0.10, 0.15, 0.20}

// Financial constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable JSON output format
	OutputFormatJSON = "json"
)

// File and server defaults
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultDatabaseFile is the default SQLite database file name
	DefaultDatabaseFile = "licitacao.db"

	// DefaultReportsDir is the directory where exported reports are written
	DefaultReportsDir = "reports"

	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// ReportFileTimeLayout is the timestamp embedded in exported report file names
	ReportFileTimeLayout = "20060102150405"
)

// AssumptionsNote is the caveat embedded in every report's assumptions block.
const AssumptionsNote = "Modelo simplificado para Simples Nacional; ajuste conforme regras específicas de seu regime/NCM."
