package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace for all exosky errors
const Codespace = "exosky"

// Error taxonomy. Codes start at 2, code 1 is reserved for internal errors.
var (
	// ErrInvalidInput aborts the current recomputation; the process keeps running
	ErrInvalidInput = errorsmod.Register(Codespace, 2, "invalid input")

	// ErrMissingResource is fatal at startup
	ErrMissingResource = errorsmod.Register(Codespace, 3, "missing resource")

	// ErrExportFailure is recoverable and does not touch chart state
	ErrExportFailure = errorsmod.Register(Codespace, 4, "export failure")

	// ErrUnknownTarget is returned when a planet name is not in the catalog
	ErrUnknownTarget = errorsmod.Register(Codespace, 5, "unknown target")
)
