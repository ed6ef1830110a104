package domain

import "fmt"

// FormatError reports an input that does not match its expected schema:
// a missing column, an unparseable date or number, a column-count mismatch.
// It is not recoverable; the read that produced it is abandoned.
type FormatError struct {
	// Path identifies the input: the file path when known, otherwise the
	// semantic series name the caller supplied.
	Path string
	// Line is the 1-based line in the input, or 0 when the failure is not
	// tied to a specific line (e.g. a missing header column).
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("%s: line %d: %s", e.Path, e.Line, e.Reason)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	default:
		return e.Reason
	}
}

// InsufficientDataError reports that a computation had fewer data points
// than it requires: an empty period restriction, or fewer than two samples
// for a trend fit. It aborts that computation only; independent
// computations over the same table may still proceed.
type InsufficientDataError struct {
	Op     string // the failing computation, e.g. "fit trend"
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return e.Op + ": " + e.Reason
}
