package domain

import (
	"errors"
	"fmt"
)

// ErrNotPersisted is returned when an update or delete targets an item without an ID.
var ErrNotPersisted = errors.New("item has no persisted id")

// AuthError means the auth endpoint rejected the credential refresh.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "auth rejected: " + e.Message
}

// FetchError means a feed, info or submit call answered with an error payload.
// Code is zero when the upstream reported a string error.
type FetchError struct {
	Code    int
	Message string
}

func (e *FetchError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("fetch rejected (%d): %s", e.Code, e.Message)
	}
	return "fetch rejected: " + e.Message
}
