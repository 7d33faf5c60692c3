package auth

import (
	"errors"
	"strings"
)

// Code classifies an authentication failure.
type Code string

const (
	CodeUserNotFound     Code = "user-not-found"
	CodeWrongPassword    Code = "wrong-password"
	CodeInvalidEmail     Code = "invalid-email"
	CodeEmailInUse       Code = "email-already-in-use"
	CodeUserDisabled     Code = "user-disabled"
	CodePasswordMismatch Code = "password-mismatch"
	CodeMissingFields    Code = "missing-fields"
	CodeTokenRevoked     Code = "token-revoked"
	CodeOther            Code = "other"
)

// Error is an authentication failure with its classified code and the
// provider's raw message.
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return "auth: " + string(e.Code)
	}
	return "auth: " + string(e.Code) + ": " + e.Detail
}

// ErrNotSignedIn is returned when no credentials are available.
var ErrNotSignedIn = errors.New("not signed in")

var messages = map[Code]string{
	CodeUserNotFound:     "User was not found. Consider registering.",
	CodeWrongPassword:    "Invalid password",
	CodeInvalidEmail:     "Invalid email address",
	CodeEmailInUse:       "Email already in use",
	CodeUserDisabled:     "User has been disabled",
	CodePasswordMismatch: "Passwords do not match",
	CodeMissingFields:    "Please fill in all fields",
}

// GenericMessage is shown for every unmapped failure.
const GenericMessage = "Error signing in"

// Message returns the user-facing copy for err.
func Message(err error) string {
	var aerr *Error
	if errors.As(err, &aerr) {
		if m, ok := messages[aerr.Code]; ok {
			return m
		}
	}
	return GenericMessage
}

// IsRevoked reports whether the provider rejected a stored refresh token.
// Transport failures are not rejections; the stored sign-in is still good.
func IsRevoked(err error) bool {
	var aerr *Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code {
	case CodeTokenRevoked, CodeUserNotFound, CodeUserDisabled:
		return true
	}
	return false
}

// codeFor maps an Identity Toolkit error message such as
// "WEAK_PASSWORD : Password should be at least 6 characters" to a Code.
func codeFor(providerMessage string) Code {
	reason, _, _ := strings.Cut(providerMessage, " : ")
	switch strings.TrimSpace(reason) {
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND":
		return CodeUserNotFound
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return CodeWrongPassword
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return CodeInvalidEmail
	case "EMAIL_EXISTS":
		return CodeEmailInUse
	case "USER_DISABLED":
		return CodeUserDisabled
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN":
		return CodeTokenRevoked
	default:
		return CodeOther
	}
}

// ValidateSignIn checks that both fields are filled.
func ValidateSignIn(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return &Error{Code: CodeMissingFields}
	}
	return nil
}

// ValidateRegistration checks the form before any network call.
func ValidateRegistration(email, password, confirm string) error {
	if err := ValidateSignIn(email, password); err != nil {
		return err
	}
	if confirm == "" {
		return &Error{Code: CodeMissingFields}
	}
	if password != confirm {
		return &Error{Code: CodePasswordMismatch}
	}
	return nil
}
