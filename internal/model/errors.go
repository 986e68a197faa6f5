package model

import (
	"errors"
	"fmt"
	"strings"
)

// InputError means a required input is missing or unreadable. It aborts the run.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// ExtractionError is a per-record fetch or parse failure. It is accumulated
// and the record is skipped.
type ExtractionError struct {
	ListingURL string
	Stage      string
	Err        error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.ListingURL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ValidationError means a record lacks minimum identity and was dropped.
type ValidationError struct {
	ListingURL string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record %s: %s", e.ListingURL, e.Reason)
}

// ExportError is a failed artifact write. Written lists the artifacts that
// were completed before the failure, so partial output can be flagged.
type ExportError struct {
	Artifact string
	Written  []string
	Err      error
}

func (e *ExportError) Error() string {
	msg := fmt.Sprintf("export %s: %v", e.Artifact, e.Err)
	if len(e.Written) > 0 {
		msg += fmt.Sprintf(" (partial output: %s)", strings.Join(e.Written, ", "))
	}
	return msg
}

func (e *ExportError) Unwrap() error { return e.Err }

// IsInputError reports whether err carries an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsExportError reports whether err carries an ExportError.
func IsExportError(err error) bool {
	var ee *ExportError
	return errors.As(err, &ee)
}
