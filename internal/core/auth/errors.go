package auth

import "errors"

var (
	// ErrInvalidCredentials hides whether the matricula or the password was wrong.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrMissingToken is returned when no bearer token is supplied.
	ErrMissingToken = errors.New("auth: missing token")
	// ErrInvalidToken covers malformed, expired and badly signed tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrForbidden is returned when the token lacks the required capability.
	ErrForbidden = errors.New("auth: forbidden")
	// ErrUserNotFound is returned when the user does not exist.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrDuplicateUser is returned when the matricula or email is taken.
	ErrDuplicateUser = errors.New("auth: matricula or email already exists")
	// ErrRoleNotFound is returned when the referenced role does not exist.
	ErrRoleNotFound = errors.New("auth: role not found")
	// ErrPasswordTooShort is returned when a password is below the minimum length.
	ErrPasswordTooShort = errors.New("auth: password too short")
	// ErrInvalidEmail is returned for a malformed email.
	ErrInvalidEmail = errors.New("auth: invalid email")
	// ErrInvalidInput is returned when a required field is blank.
	ErrInvalidInput = errors.New("auth: invalid input")
)
