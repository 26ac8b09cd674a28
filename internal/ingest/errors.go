package ingest

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeNoCountryData = "NO_COUNTRY_DATA"
	CodeDuplicateDate = "DUPLICATE_DATE"
	CodeMissingColumn = "MISSING_COLUMN"
	CodeMalformedRow  = "MALFORMED_ROW"
)

// ErrNoCountryData is matched by errors.Is for any Error with code NO_COUNTRY_DATA
var ErrNoCountryData = &Error{Code: CodeNoCountryData, Message: "no rows for country"}

// ErrDuplicateDate is matched by errors.Is for any Error with code DUPLICATE_DATE
var ErrDuplicateDate = &Error{Code: CodeDuplicateDate, Message: "duplicate date"}

// Error represents a loader or filter failure
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error with the same code
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new Error
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithDetails creates a new Error with details
func NewErrorWithDetails(code, message string, details map[string]interface{}) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func noCountryData(country string) *Error {
	return NewErrorWithDetails(CodeNoCountryData,
		fmt.Sprintf("no rows for country %q", country),
		map[string]interface{}{"country": country})
}

func duplicateDate(country, date string) *Error {
	return NewErrorWithDetails(CodeDuplicateDate,
		fmt.Sprintf("country %q has more than one row for %s", country, date),
		map[string]interface{}{"country": country, "date": date})
}

// Code returns the code of the first *Error in err's chain, or ""
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
