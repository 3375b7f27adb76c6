package invite

import (
	"errors"
	"net/http"
)

// Kind classifies an invite lifecycle failure.
type Kind string

const (
	KindTokenNotFound    Kind = "token_not_found"
	KindTokenExpired     Kind = "token_expired"
	KindTokenAlreadyUsed Kind = "token_already_used"
)

// Error is the structured failure returned by ValidateToken.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches on Kind so callers can use errors.Is against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// HTTPStatus is the transport status for the failure kind.
// 498 is the non-standard "invalid token" code the web client expects.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindTokenNotFound:
		return 498
	case KindTokenExpired, KindTokenAlreadyUsed:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var (
	ErrTokenNotFound    = &Error{Kind: KindTokenNotFound, Message: "invite token not found"}
	ErrTokenExpired     = &Error{Kind: KindTokenExpired, Message: "invite token has expired"}
	ErrTokenAlreadyUsed = &Error{Kind: KindTokenAlreadyUsed, Message: "invite token has already been used"}

	// ErrTokenGeneration means no unused token could be produced, which only
	// happens with a broken random source.
	ErrTokenGeneration = errors.New("invite token generation failed")
)
