package admin

import "errors"

var (
	// ErrNotFound is returned when no back-office entity matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when the admin email is taken.
	ErrAlreadyExists = errors.New("admin already exists")
	// ErrInvalidCredentials is returned on a failed admin login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDisabled is returned when a deactivated admin tries to log in.
	ErrDisabled = errors.New("admin account is disabled")
	// ErrLastAdmin is returned when deleting the only remaining admin.
	ErrLastAdmin = errors.New("cannot delete the last admin")
)
