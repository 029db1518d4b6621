package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("not signed in")
	ErrDuesAlreadyPaid = errors.New("dues already paid for the current period")
	ErrTokenRevoked    = errors.New("token revoked")
	ErrDuplicate       = errors.New("duplicate key")
)

// Authentication failure codes reported by the account provider.
const (
	AuthCodeEmailInUse         = "auth/email-already-in-use"
	AuthCodeInvalidCredential  = "auth/invalid-credential"
	AuthCodeWrongPassword      = "auth/wrong-password"
	AuthCodeWeakPassword       = "auth/weak-password"
	AuthCodePasswordMismatch   = "auth/password-mismatch"
	AuthCodeRequiresRecentAuth = "auth/requires-recent-login"
)

var authMessages = map[string]string{
	AuthCodeEmailInUse:         "This email is already registered.",
	AuthCodeInvalidCredential:  "Invalid email or password",
	AuthCodeWrongPassword:      "Current password is incorrect",
	AuthCodeWeakPassword:       "Password should be at least 6 characters",
	AuthCodePasswordMismatch:   "Passwords don't match",
	AuthCodeRequiresRecentAuth: "Please sign in again to continue",
}

// AuthError is a failure from the account provider. Message is what the
// member sees; known codes get a friendly message, unknown ones keep the raw one.
type AuthError struct {
	Code    string
	Message string
	Err     error
}

func NewAuthError(code string, cause error) *AuthError {
	msg, ok := authMessages[code]
	if !ok {
		msg = code
		if cause != nil {
			msg = cause.Error()
		}
	}
	return &AuthError{Code: code, Message: msg, Err: cause}
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError rejects a command before anything reaches the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StoreWriteError wraps a failed create, update or delete. Notice is the
// single user-facing notification for the failure.
type StoreWriteError struct {
	Collection string
	Op         string
	Notice     string
	Err        error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// SubscriptionError is delivered when a live subscription fails. The binding
// keeps its last mirror and does not resubscribe on its own.
type SubscriptionError struct {
	Collection string
	Err        error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription to %s failed: %v", e.Collection, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }
