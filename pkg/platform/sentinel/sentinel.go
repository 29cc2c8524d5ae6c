package sentinel

import "errors"

// Sentinel errors for storage facts. Store clients return these (optionally wrapped)
// so services can translate them into domain errors.
//
//   - ErrNotFound: no row matched the key or filter
//   - ErrConflict: a unique constraint (e.g. one child row per permit_id) rejected the write
//   - ErrReferenced: a foreign key still points at the row being deleted
//   - ErrUnavailable: the backing store could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrReferenced  = errors.New("referenced by another record")
	ErrUnavailable = errors.New("unavailable")
)
