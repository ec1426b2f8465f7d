package domain

import "errors"

// Domain errors represent search failures.
// Only setup errors cross the engine boundary; the rest are absorbed
// into the log and the audit trail.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPathNotFound indicates the search root does not exist or is not a directory.
	ErrPathNotFound = errors.New("path not found")

	// ErrNoKeywords indicates the request carries no usable keyword.
	ErrNoKeywords = errors.New("no keywords")

	// ErrNotIdle indicates Start was called while a run is active or
	// before the previous run was reset.
	ErrNotIdle = errors.New("engine not idle")

	// ErrUnsupportedType indicates no extractor handles the extension.
	ErrUnsupportedType = errors.New("unsupported type")

	// Per-item errors.

	// ErrPermissionDenied indicates a directory or file could not be read.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrExtractionFailed indicates a decoder could not read a document.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrExtractorUnavailable indicates an optional decoder is not installed.
	ErrExtractorUnavailable = errors.New("extractor unavailable")

	// ErrTimeout indicates a unit of work exceeded its budget.
	ErrTimeout = errors.New("timeout")

	// ErrResourceLimit indicates a file or result ceiling was reached.
	ErrResourceLimit = errors.New("resource limit reached")

	// ErrPoolClosed indicates a task was submitted to a released worker pool.
	ErrPoolClosed = errors.New("worker pool closed")
)
