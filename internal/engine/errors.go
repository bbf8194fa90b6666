package engine

import "errors"

// Recoverable conditions (rejected moves, failed leaves) never surface
// as errors: they are absorbed into the BatchResult counts. Errors from
// ResolveBatch mean the whole batch was rolled back.
var (
	ErrEmptyPlayer      = errors.New("engine: player id required")
	ErrEpochZero        = errors.New("engine: epoch must be positive")
	ErrCommitPhase      = errors.New("engine: resolution is closed during the commit phase")
	ErrTooManyMoves     = errors.New("engine: move batch exceeds the configured limit")
	ErrPositionRange    = errors.New("engine: position on the signed 32-bit grid edge")
	ErrBadColor         = errors.New("engine: unknown color")
	ErrTransferOverflow = errors.New("engine: transfer list exceeded the 4x-moves bound")
	ErrLifeOutOfRange   = errors.New("engine: life outside [0, max life]")
	ErrNotAuthorized    = errors.New("engine: debug state injection not authorized")
	ErrHashMismatch     = errors.New("engine: continuation hash mismatch")
)
