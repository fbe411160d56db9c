package apperrors

import (
	"errors"
	"fmt"
)

// Filter compilation errors, returned before any query runs
var (
	ErrInvalidFilterField    = errors.New("invalid filter field")
	ErrInvalidFilterOperator = errors.New("invalid filter operator")
	ErrInvalidFilterValue    = errors.New("invalid filter value")
)

// Resource errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUniversityNotFound = fmt.Errorf("university %w", ErrNotFound)
	ErrCourseNotFound     = fmt.Errorf("course %w", ErrNotFound)
)

// Storage errors
var (
	// ErrConstraintViolation covers unique and foreign key violations
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrStorageUnavailable covers connectivity and transaction failures
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Validation errors
var (
	ErrValidationFailed = errors.New("validation failed")
)

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// DetailsOf returns the details attached to the first CustomError in err's chain
func DetailsOf(err error) map[string]interface{} {
	var custom *CustomError
	if errors.As(err, &custom) {
		return custom.Details
	}
	return nil
}

// NewInvalidFilterFieldError names the filter key whose field is not filterable
func NewInvalidFilterFieldError(key, field string) error {
	return NewCustomError(ErrInvalidFilterField,
		fmt.Sprintf("%s: unknown field %q in %q", ErrInvalidFilterField, field, key)).
		WithDetails(map[string]interface{}{"key": key, "field": field})
}

// NewInvalidFilterOperatorError names the filter key whose operator was rejected
func NewInvalidFilterOperatorError(key, operator, reason string) error {
	return NewCustomError(ErrInvalidFilterOperator,
		fmt.Sprintf("%s: %q in %q: %s", ErrInvalidFilterOperator, operator, key, reason)).
		WithDetails(map[string]interface{}{"key": key, "operator": operator})
}

// NewInvalidFilterValueError names the filter key whose value could not be used
func NewInvalidFilterValueError(key, value string, cause error) error {
	return NewCustomError(ErrInvalidFilterValue,
		fmt.Sprintf("%s: %q for %q: %v", ErrInvalidFilterValue, value, key, cause)).
		WithDetails(map[string]interface{}{"key": key, "value": value})
}

// NewUniversityNotFoundError reports a missing university by name
func NewUniversityNotFoundError(name string) error {
	return NewCustomError(ErrUniversityNotFound, fmt.Sprintf("university %q not found", name)).
		WithDetails(map[string]interface{}{"university": name})
}

// NewCourseNotFoundError reports a missing parent course by natural key
func NewCourseNotFoundError(university, termID, courseID string) error {
	return NewCustomError(ErrCourseNotFound,
		fmt.Sprintf("course %q not found for university %q in term %q", courseID, university, termID)).
		WithDetails(map[string]interface{}{"university": university, "term_id": termID, "course_id": courseID})
}

// NewValidationError wraps ErrValidationFailed with a message
func NewValidationError(message string) error {
	return NewCustomError(ErrValidationFailed, fmt.Sprintf("%s: %s", ErrValidationFailed, message))
}
