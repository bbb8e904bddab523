// Package apperr holds the failure kinds shared by the catalog, override and
// batch layers.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrRequestTimeout marks a catalog or override round trip that exceeded its deadline.
	ErrRequestTimeout = errors.New("request timeout")
	// ErrCatalogFetchFailed marks a non-timeout transport or decode failure while reading the catalog.
	ErrCatalogFetchFailed = errors.New("catalog fetch failed")
	// ErrNotFound is returned when an identity has no catalog record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// MutationError is a single-item write failure.
type MutationError struct {
	ItemID string
	Err    error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("mutation failed for %s: %v", e.ItemID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// PartialBatchError summarizes a batch where some items failed. Succeeded items
// stay applied; the error is informational.
type PartialBatchError struct {
	Succeeded []string
	Failed    map[string]error
}

func (e *PartialBatchError) Error() string {
	ids := e.FailedIDs()
	return fmt.Sprintf("batch partially failed: %d succeeded, %d failed (%s)",
		len(e.Succeeded), len(e.Failed), strings.Join(ids, ", "))
}

// FailedIDs returns the failed item ids in sorted order.
func (e *PartialBatchError) FailedIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsTimeout reports whether err is, or wraps, a request timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrRequestTimeout)
}

// FromDeadline maps err from a call made on callCtx, derived from parent with
// its own deadline. Expiry of that deadline becomes ErrRequestTimeout; a
// cancelled parent is returned as is.
func FromDeadline(parent, callCtx context.Context, err error) error {
	if err == nil || IsTimeout(err) {
		return err
	}
	if errors.Is(parent.Err(), context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrRequestTimeout, err)
	}
	return err
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StatusError carries an upstream HTTP status so retry policies can classify it.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether err is a network-class failure: a timeout, a 429,
// or a 5xx status.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if IsTimeout(err) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == 429 || se.StatusCode >= 500
	}
	return false
}
