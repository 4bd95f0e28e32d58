package ir

// Version constants for the mapping tree and engine.
const (
	// IRVersion is the canonical encoding version used in identity hashes.
	IRVersion = "1"

	// EngineVersion is the tablegraph engine version.
	EngineVersion = "0.1.0"
)
