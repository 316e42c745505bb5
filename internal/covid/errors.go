package covid

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData is returned when no snapshot source yields any rows.
	ErrNoData = errors.New("no covid data available")

	// ErrNotFound is returned when a requested location has no records.
	ErrNotFound = errors.New("location not found")

	// ErrInvalidMetric is returned for a ranking or comparison metric that is
	// not a numeric canonical column.
	ErrInvalidMetric = errors.New("invalid metric")
)

// UnparseableFileError describes a snapshot file that was skipped.
type UnparseableFileError struct {
	File   string
	Reason string
	Err    error
}

func (e *UnparseableFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unparseable snapshot file %s (%s): %v", e.File, e.Reason, e.Err)
	}
	return fmt.Sprintf("unparseable snapshot file %s (%s)", e.File, e.Reason)
}

func (e *UnparseableFileError) Unwrap() error {
	return e.Err
}
