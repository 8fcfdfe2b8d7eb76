// Package errors provides structured error handling for sondhan.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (snapshots, corpus files)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and snapshot I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"
	// ErrCodeInvalidWeights is raised when fusion weights are negative
	// or do not sum to a positive value. Fatal at configuration time.
	ErrCodeInvalidWeights = "ERR_103_INVALID_WEIGHTS"

	// IO errors (200-299)
	ErrCodeSnapshotNotFound = "ERR_201_SNAPSHOT_NOT_FOUND"
	// ErrCodeSnapshotCorrupt is raised when a persisted index snapshot
	// fails its consistency check. Fatal: the load aborts.
	ErrCodeSnapshotCorrupt  = "ERR_202_SNAPSHOT_CORRUPT"
	ErrCodeCorpusUnreadable = "ERR_203_CORPUS_UNREADABLE"

	// Validation errors (400-499)
	ErrCodeDuplicateID       = "ERR_401_DUPLICATE_ID"
	ErrCodeDocumentNotFound  = "ERR_402_DOCUMENT_NOT_FOUND"
	ErrCodeEmptyQuery        = "ERR_403_EMPTY_QUERY"
	ErrCodeDimensionMismatch = "ERR_404_DIMENSION_MISMATCH"
	// ErrCodeEmbeddingUnavailable means the embedding store is empty or
	// incompatible. The engine degrades to lexical+fuzzy, it is not fatal.
	ErrCodeEmbeddingUnavailable = "ERR_405_EMBEDDING_UNAVAILABLE"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_502_SEARCH_FAILED"
	ErrCodeIndexFailed  = "ERR_503_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "101" from "ERR_101_CONFIG_NOT_FOUND".
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeSnapshotCorrupt, ErrCodeInvalidWeights:
		return SeverityFatal
	case ErrCodeEmbeddingUnavailable:
		// Degraded operation: the query proceeds on the remaining models.
		return SeverityWarning
	default:
		return SeverityError
	}
}
