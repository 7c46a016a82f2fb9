package ir

// Version constants for the rule model and engine.
const (
	// IRVersion is the compiled rule-set schema version.
	IRVersion = "1"

	// EngineVersion is the rota engine version.
	EngineVersion = "0.1.0"
)
