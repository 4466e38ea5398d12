package errors

// template defines a registered error code.
type template struct {
	Category   Category
	Message    string
	Suggestion string
}

var registry = map[string]template{
	// Configuration (E100-E199)
	"E101": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration",
		Suggestion: "Check primitives.yaml and the SERVER_*, LOG_*, METRICS_*, TRACING_* and REPORT_* environment variables.",
	},
	"E102": {
		Category:   CategoryConfig,
		Message:    "Configuration file could not be read",
		Suggestion: "Pass an existing file with --config or remove the flag.",
	},
	"E103": {
		Category:   CategoryConfig,
		Message:    "Logger could not be built",
		Suggestion: "Use log.level debug|info|warn|error and log.format json|console.",
	},

	// Scenarios (E200-E299)
	"E201": {
		Category:   CategoryScenario,
		Message:    "Invalid scenario",
		Suggestion: "A scenario needs a name and at least one step.",
	},
	"E202": {
		Category:   CategoryScenario,
		Message:    "Scenario file could not be read",
	},
	"E203": {
		Category: CategoryScenario,
		Message:  "Scenario run cancelled",
	},

	// Reports (E300-E399)
	"E301": {
		Category:   CategoryReport,
		Message:    "Report could not be stored",
		Suggestion: "Check report.path permissions or the S3 bucket, region and credentials.",
	},
	"E302": {
		Category:   CategoryReport,
		Message:    "Unknown report sink",
		Suggestion: "Use report.sink file, s3 or none.",
	},

	// Playground protocol (E400-E499)
	"E401": {
		Category: CategoryProtocol,
		Message:  "Malformed request body",
	},
	"E402": {
		Category: CategoryProtocol,
		Message:  "WebSocket upgrade failed",
	},
	"E403": {
		Category: CategoryProtocol,
		Message:  "Session closed",
	},
	"E404": {
		Category: CategoryProtocol,
		Message:  "Response could not be encoded",
	},

	// CLI (E500-E599)
	"E501": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
}

// Registered reports whether code is known.
func Registered(code string) bool {
	_, ok := registry[code]
	return ok
}
