package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind categorizes failures so callers can decide between aborting a run and
// continuing with the next unit of work.
type Kind string

const (
	// KindInitialization means the geometry or recognition subsystem never
	// became ready. Always fatal, reported before any detection starts.
	KindInitialization Kind = "initialization"

	// KindInputFormat covers unreadable files and content that is neither a
	// bitmap nor a PDF document.
	KindInputFormat Kind = "input_format"

	// KindDegenerateGeometry is raised when a page cannot be mapped into the
	// normalized grid (for example a 1-pixel-wide page).
	KindDegenerateGeometry Kind = "degenerate_geometry"

	// KindRecognition is a per-candidate OCR invocation failure. It is never
	// conflated with a successful empty-text result.
	KindRecognition Kind = "recognition"

	// KindValidation is a configuration or request parameter error.
	KindValidation Kind = "validation"

	// KindNoResults is returned by exporters when there is nothing current to export.
	KindNoResults Kind = "no_results"
)

// AppError is a categorized error carrying an optional cause.
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Page    int    `json:"page,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *AppError with the same Kind. This lets
// callers match with errors.Is(err, &AppError{Kind: KindInputFormat}).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Fatal reports whether an error of this kind must stop the whole run.
func (k Kind) Fatal() bool {
	switch k {
	case KindInitialization, KindInputFormat, KindDegenerateGeometry, KindValidation:
		return true
	}
	return false
}

// NewInitializationError creates a new initialization error
func NewInitializationError(message string, cause error) *AppError {
	return &AppError{Kind: KindInitialization, Message: message, Cause: cause}
}

// NewInputFormatError creates a new input-format error
func NewInputFormatError(message string, cause error) *AppError {
	return &AppError{Kind: KindInputFormat, Message: message, Cause: cause}
}

// NewDegenerateGeometryError creates a new degenerate-geometry error for a page
func NewDegenerateGeometryError(page int, message string) *AppError {
	return &AppError{Kind: KindDegenerateGeometry, Message: message, Page: page}
}

// NewRecognitionError creates a new recognition error
func NewRecognitionError(message string, cause error) *AppError {
	return &AppError{Kind: KindRecognition, Message: message, Cause: cause}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Cause: cause}
}

// NewNoResultsError creates a new no-results error
func NewNoResultsError(message string) *AppError {
	return &AppError{Kind: KindNoResults, Message: message}
}

// KindOf extracts the Kind of the first *AppError in err's chain.
// Errors that are not categorized report an empty Kind.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind checks if err, or anything it wraps, is an *AppError of the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// GetStatusCode maps an error to the HTTP status the transport responds with
func GetStatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInputFormat:
		return http.StatusBadRequest
	case KindDegenerateGeometry, KindRecognition:
		return http.StatusUnprocessableEntity
	case KindNoResults:
		return http.StatusNotFound
	case KindInitialization:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
