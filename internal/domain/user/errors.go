// internal/domain/user/errors.go
package user

import "errors"

var (
	// ErrUserNotFound is returned when no active user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("an account with this email already exists")

	// ErrInvalidCredentials is returned on bad email/password combinations.
	// Deliberately the same for unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPasswordMismatch is returned when password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrAddressNotFound is returned when the address does not exist or
	// belongs to another user.
	ErrAddressNotFound = errors.New("address not found")
)
