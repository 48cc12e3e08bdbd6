package validate

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes a validation failure. Every distinct failure
// condition maps to its own kind so callers can present differentiated
// guidance and tests can assert on exact causes.
type ErrorKind string

const (
	KindEmptyPath              ErrorKind = "empty_path"
	KindTraversalAttempt       ErrorKind = "traversal_attempt"
	KindNotFound               ErrorKind = "not_found"
	KindNotRegularFile         ErrorKind = "not_regular_file"
	KindSymlinkRejected        ErrorKind = "symlink_rejected"
	KindSymlinkDepthExceeded   ErrorKind = "symlink_depth_exceeded"
	KindFileTooLarge           ErrorKind = "file_too_large"
	KindFileEmpty              ErrorKind = "file_empty"
	KindUnreadable             ErrorKind = "unreadable"
	KindExtensionUnrecognized  ErrorKind = "extension_unrecognized"
	KindContentFormatMismatch  ErrorKind = "content_format_mismatch"
	KindParentDirectoryMissing ErrorKind = "parent_directory_missing"

	// KindImageBounds covers the dimension/pixel-count ceilings enforced by
	// the decompression-bomb guard.
	KindImageBounds ErrorKind = "image_bounds_exceeded"
)

// ValidationError is the typed error returned by every component in this
// package. Message has already passed through SanitizeMessage, so it is
// safe to display to a user as-is: it never carries a raw filesystem path.
type ValidationError struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// newError builds a ValidationError, sanitizing the message on the way in.
// Construction is the single choke point: no unsanitized text can reach a
// ValidationError by any other route.
func newError(kind ErrorKind, message string) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Message: SanitizeMessage(message),
	}
}

// newErrorf is the formatted variant of newError.
func newErrorf(kind ErrorKind, format string, args ...any) *ValidationError {
	return newError(kind, fmt.Sprintf(format, args...))
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsKind checks if an error is a ValidationError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Kind == kind
	}
	return false
}

// KindOf returns the kind of a ValidationError, or empty string if the
// error is not a ValidationError.
func KindOf(err error) ErrorKind {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return ""
}
