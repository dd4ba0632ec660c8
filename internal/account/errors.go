package account

import "errors"

var (
	// ErrNotFound is returned when no customer matches the lookup.
	ErrNotFound = errors.New("customer not found")
	// ErrAlreadyExists is returned when the phone number is already registered.
	ErrAlreadyExists = errors.New("customer already exists")
	// ErrInvalidCredentials is returned on a failed login. The caller cannot
	// tell whether the phone or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDisabled is returned when a deactivated customer tries to log in.
	ErrDisabled = errors.New("customer account is disabled")
	// ErrOTPInvalid is returned when the submitted code does not match or the
	// attempt cap is exhausted.
	ErrOTPInvalid = errors.New("invalid one-time code")
	// ErrOTPExpired is returned when no code is pending for the phone number.
	ErrOTPExpired = errors.New("one-time code expired")
)
