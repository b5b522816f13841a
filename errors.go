package litedb

import "github.com/LionelAuroux/LiteDb/internal/core"

// Error kinds. Every error returned by this package wraps exactly one of
// them, so callers test with errors.Is.
var (
	ErrSchema   = core.ErrSchema
	ErrArgument = core.ErrArgument
	ErrState    = core.ErrState
	ErrBind     = core.ErrBind
	ErrEngine   = core.ErrEngine
)
