package port

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable is returned when the local storage engine is
	// missing, full or cannot be written.
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrFetchFailed = errors.New("fetch failed")
	// ErrUnavailable is returned when a document is neither cached nor
	// reachable because the client is offline.
	ErrUnavailable = errors.New("document unavailable offline")
	ErrOffline     = errors.New("offline")

	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrBalanceConflict     = errors.New("balance changed concurrently")
)

type InsufficientCreditsError struct {
	Required  int64
	Available int64
}

// Shortfall returns the number of missing credits.
func (e *InsufficientCreditsError) Shortfall() int64 {
	return e.Required - e.Available
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: %d required, %d available (%d missing)", e.Required, e.Available, e.Shortfall())
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("could not fetch '%s': %v", e.URL, e.Err)
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type QuotaExceededError struct {
	Limit    int64
	Used     int64
	Required int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("cache quota exceeded: %d bytes required, %d of %d bytes used", e.Required, e.Used, e.Limit)
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrStorageUnavailable
}
