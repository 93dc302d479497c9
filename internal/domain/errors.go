package domain

import (
	"errors"
	"fmt"
)

// Navigation errors
var (
	// ErrInaccessibleFolder indicates a local folder is missing, not a directory or unreadable
	ErrInaccessibleFolder = errors.New("cannot access this folder")

	// ErrRemoteListing is matched by every RemoteListingError
	ErrRemoteListing = errors.New("remote folder listing failed")
)

// Remote provider errors, wrapped by listers and then by RemoteListingError
var (
	// ErrFolderNotFound indicates the remote path does not name a folder
	ErrFolderNotFound = errors.New("remote folder not found")

	// ErrAccessDenied indicates the provider refused the request (401/403)
	ErrAccessDenied = errors.New("access denied by provider")

	// ErrRateLimited indicates the provider throttled the request
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrListingRejected indicates the sync backend answered success=false
	ErrListingRejected = errors.New("listing rejected by server")
)

// Registry errors
var (
	// ErrInvalidConfig indicates a sync configuration is missing a required field
	ErrInvalidConfig = errors.New("invalid sync configuration")

	// ErrCapacityExceeded indicates the registry already holds the maximum number of records
	ErrCapacityExceeded = errors.New("maximum number of sync configurations reached")

	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("sync configuration not found")
)

// Config errors
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")

	// ErrUnknownProvider indicates no lister or credentials exist for a provider
	ErrUnknownProvider = errors.New("unknown provider")
)

// RemoteListingError reports a failed remote listing, whether the transport failed
// or the listing endpoint answered success=false.
type RemoteListingError struct {
	Path   string
	Reason string
	Err    error
}

func (e *RemoteListingError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("list folders at /: %s", e.Reason)
	}
	return fmt.Sprintf("list folders at %s: %s", e.Path, e.Reason)
}

func (e *RemoteListingError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrRemoteListing) match any listing failure
func (e *RemoteListingError) Is(target error) bool {
	return target == ErrRemoteListing
}

// NewRemoteListingError wraps err as a listing failure for path.
// An err that already is a RemoteListingError is returned unchanged.
func NewRemoteListingError(path string, err error) *RemoteListingError {
	var existing *RemoteListingError
	if errors.As(err, &existing) {
		return existing
	}
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return &RemoteListingError{Path: path, Reason: reason, Err: err}
}
