package identity

import "fmt"

// AuthError is returned whenever the provider rejects credentials or a
// token, and for transport failures that are indistinguishable from an
// auth failure at this boundary.
type AuthError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("identity: %s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("identity: %s: %v", e.Op, e.Err)
	}
	return "identity: " + e.Op
}

func (e *AuthError) Unwrap() error { return e.Err }

func authErr(op string, status int, message string, err error) error {
	return &AuthError{Op: op, Status: status, Message: message, Err: err}
}
