package pipeline

import (
	"log/slog"

	"github.com/JaimeStill/inkwell/internal/config"
	"github.com/JaimeStill/inkwell/internal/gen"
	"github.com/JaimeStill/inkwell/internal/memory"
	"github.com/JaimeStill/inkwell/pkg/store"
)

// Runtime binds the services a run operates on. The pipeline depends only
// on interfaces; the caller wires concrete implementations.
type Runtime struct {
	Config    *config.Config
	Store     store.System
	Memory    *memory.Ledger
	Generator gen.Generator
	Reviewer  gen.Reviewer
	// Archive is the optional remote sink for finished artifacts; nil
	// disables archiving.
	Archive store.Archive
	Logger  *slog.Logger
}
