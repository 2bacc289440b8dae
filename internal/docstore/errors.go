package docstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ThrottlingError marks a store failure as a capacity/throttling condition
// that the caller should back off from and retry.
type ThrottlingError struct {
	Err error
}

func (e *ThrottlingError) Error() string {
	return fmt.Sprintf("store throttled: %v", e.Err)
}

func (e *ThrottlingError) Unwrap() error {
	return e.Err
}

// NewThrottlingError wraps err as a throttling signature.
func NewThrottlingError(err error) *ThrottlingError {
	return &ThrottlingError{Err: err}
}

// Postgres error classes/codes that indicate capacity exhaustion rather than a
// logic failure. Class 53 is "insufficient resources"; 57014 is a statement
// cancelled under load.
const (
	pgClassInsufficientResources = "53"
	pgCodeQueryCanceled          = "57014"
)

var throttleSubstrings = []string{
	"throttl",
	"capacity exceeded",
	"too many connections",
	"provisionedthroughputexceeded",
}

// IsThrottling classifies an error as a throttling signature. Structured error
// types are checked before falling back to message substrings, so wrapped and
// driver-specific shapes are both handled.
func IsThrottling(err error) bool {
	if err == nil {
		return false
	}

	var throttled *ThrottlingError
	if errors.As(err, &throttled) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, pgClassInsufficientResources) {
			return true
		}
		if pgErr.Code == pgCodeQueryCanceled {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, s := range throttleSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}

	return false
}
