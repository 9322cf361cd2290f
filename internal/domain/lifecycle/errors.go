package lifecycle

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrMissingMetadata   = errors.New("missing metadata")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidJobState   = errors.New("invalid job state")

	// ErrEmptyPool is never returned to callers: ranking an empty pool
	// succeeds with zero statistics.
	ErrEmptyPool = errors.New("empty pool")

	// ErrExhaustedReroutes and ErrCapacityReached only surface inside
	// cascade outcome records.
	ErrExhaustedReroutes = errors.New("re-route limit reached")
	ErrCapacityReached   = errors.New("job capacity reached")
)
