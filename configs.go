package nodebrain

import (
	"github.com/trettevik/nodebrain/internal/nbconfig"
	"github.com/trettevik/nodebrain/internal/nbparse"
)

// ParseResult is what Parse returns for one top-level source statement.
type ParseResult = nbparse.ParseResult

// EngineConfig carries engine-level knobs loaded from nodebrain.yml or
// NODEBRAIN_* environment variables.
type EngineConfig = nbconfig.Config

// LoadedConfig returns the process-wide EngineConfig singleton, loading
// it from disk (or environment variables) on first use.
func LoadedConfig() *EngineConfig { return nbconfig.App() }
