package ir

// Version constants for the project format and engine.
const (
	// FormatVersion is the project file schema version.
	FormatVersion = "1"

	// EngineVersion is the blockvm engine version.
	EngineVersion = "0.1.0"
)
