package client

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/xivapi-dye-names/pkg/dye"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrNotFound is returned when XIVAPI has no row for the item.
	ErrNotFound = errors.New("item not found")

	// ErrMissingName is returned when a successful response carries no Name field.
	ErrMissingName = errors.New("missing Name field")
)

// ErrorClass represents a classification of fetch errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 404 and 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassNotFound represents 404 responses.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassTimeout represents per-request network timeouts.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassNetwork represents connection, DNS and other transport errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassMissingName represents 2xx responses without a usable Name.
	ErrorClassMissingName ErrorClass = "missing_name"

	// ErrorClassCanceled represents a fetch abandoned because its context ended.
	ErrorClassCanceled ErrorClass = "canceled"
)

// FetchError describes why a name could not be fetched for one item and language.
type FetchError struct {
	ItemID     dye.ItemID
	Language   dye.Language
	Class      ErrorClass
	StatusCode int
	Attempts   int

	// Reason is the short failure description listed in the run summary.
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch item %d (%s): %s: %v", e.ItemID, e.Language, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch item %d (%s): %s", e.ItemID, e.Language, e.Reason)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Failure converts the error into the entry recorded in the run's failure list.
func (e *FetchError) Failure() dye.Failure {
	return dye.Failure{
		ItemID:   e.ItemID,
		Language: e.Language,
		Reason:   e.Reason,
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassTimeout:
		return true
	default:
		return false
	}
}

// exhaustedReason is the summary reason once retries for a class run out.
func exhaustedReason(errorClass ErrorClass, statusCode int) string {
	switch errorClass {
	case ErrorClassRateLimit:
		return "Rate limit"
	case ErrorClassServer:
		return fmt.Sprintf("Server error %d", statusCode)
	case ErrorClassTimeout:
		return "Timeout"
	default:
		return string(errorClass)
	}
}
