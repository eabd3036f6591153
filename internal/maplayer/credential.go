package maplayer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCredential matches every *CredentialError via errors.Is
var ErrInvalidCredential = errors.New("invalid map access token")

// CredentialError is a rejected map access token. Message is safe to show
// inline next to the token form.
type CredentialError struct {
	Reason  string
	Message string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidCredential, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidCredential) match
func (e *CredentialError) Is(target error) bool {
	return target == ErrInvalidCredential
}

const invalidTokenMessage = "Invalid Mapbox token. Please check and try again."

// ValidateToken checks the shape of a Mapbox public token (pk.<payload>.<sig>).
// The token is never sent anywhere to be verified.
func ValidateToken(token string) error {
	token = strings.TrimSpace(token)

	switch {
	case token == "":
		return &CredentialError{
			Reason:  "missing token",
			Message: "Enter your Mapbox public token to view the interactive map.",
		}
	case strings.HasPrefix(token, "sk."):
		return &CredentialError{
			Reason:  "secret token",
			Message: "Secret tokens (sk.*) cannot be used in the browser. Use a public token (pk.*).",
		}
	case strings.ContainsAny(token, " \t\r\n"):
		return &CredentialError{Reason: "token contains whitespace", Message: invalidTokenMessage}
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != "pk" || parts[1] == "" || parts[2] == "" {
		return &CredentialError{Reason: "malformed public token", Message: invalidTokenMessage}
	}
	return nil
}

// UserMessage returns the inline message for err, or "" when err is not a
// map layer error the user can act on
func UserMessage(err error) string {
	var cerr *CredentialError
	switch {
	case errors.As(err, &cerr):
		return cerr.Message
	case errors.Is(err, ErrEmptyDataset):
		return "There are no matches to show on the map yet."
	}
	return ""
}
