package domainerrors

import (
	"errors"
	"sort"
	"strings"
)

// PartialWriteError reports sibling writes that failed while others committed.
// Committed rows are not rolled back.
type PartialWriteError struct {
	Failures map[string]error
}

func (e *PartialWriteError) Error() string {
	names := e.Categories()
	return "partial write: " + strings.Join(names, ", ") + " failed"
}

// Unwrap exposes every failure to errors.Is / errors.As.
func (e *PartialWriteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, name := range e.Categories() {
		errs = append(errs, e.Failures[name])
	}
	return errs
}

// Categories returns failed categories in stable order.
func (e *PartialWriteError) Categories() []string {
	names := make([]string, 0, len(e.Failures))
	for name := range e.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewPartialWrite wraps failures in a CodePartialWrite error. It returns nil
// when nothing failed.
func NewPartialWrite(failures map[string]error) error {
	if len(failures) == 0 {
		return nil
	}
	pw := &PartialWriteError{Failures: failures}
	return Wrap(pw, CodePartialWrite, "some permit details could not be saved")
}

// AsPartialWrite extracts the failure set from err, if any.
func AsPartialWrite(err error) (*PartialWriteError, bool) {
	var pw *PartialWriteError
	if errors.As(err, &pw) {
		return pw, true
	}
	return nil, false
}
