package shared

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness or lifecycle rule was violated.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates a malformed permission entry or request field.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidRole indicates a reference to a role name that does not exist.
	ErrInvalidRole = errors.New("invalid role")
	// ErrAuthentication indicates bad credentials or an invalid, expired,
	// reused or concurrently redeemed refresh token.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAuthorization indicates the caller lacks the required permission.
	ErrAuthorization = errors.New("authorization failed")
)
