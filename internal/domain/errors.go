package domain

import "errors"

// Sentinel errors - use with errors.Is()
var (
	// ErrUnauthorized means there is no valid session. Clients redirect to login.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means a capability check returned false. It is also returned
	// for objects the caller cannot see, whether or not they exist.
	ErrForbidden = errors.New("forbidden")

	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrValidation = errors.New("validation failed")

	// ErrUserNotFound is returned when a directory lookup finds no account for an
	// email address. It is distinct from ErrUpstream so sharing flows can say
	// "no such user" instead of showing a transient failure.
	ErrUserNotFound = errors.New("a user with this email address does not exist")

	// ErrUpstream wraps failures of the relation store, the directory or the
	// blob store. It never degrades into "allowed" or "empty".
	ErrUpstream = errors.New("upstream dependency failure")
)

// UpstreamError records which dependency failed. It matches ErrUpstream.
type UpstreamError struct {
	Dependency string // "relation store", "directory", "blob store"
	Err        error
}

func (e *UpstreamError) Error() string {
	return e.Dependency + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is allows errors.Is() to match against ErrUpstream
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Upstream wraps err as a failure of the named dependency.
// Returns nil when err is nil.
func Upstream(dependency string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Dependency: dependency, Err: err}
}
