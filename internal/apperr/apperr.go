// Package apperr classifies errors surfaced to the user into a small closed set of kinds.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindConflict      Kind = "conflict"
	KindPartial       Kind = "partial_failure"
	KindTransient     Kind = "transient"
	KindInternal      Kind = "internal"
)

var (
	// ErrValidation rejects input before it ever reaches the backend.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized covers both a missing identity and a backend authorization rejection.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAlreadyHasPost is the single-post-per-author conflict.
	ErrAlreadyHasPost = errors.New("you already have a post")
	// ErrPartialUpdate means the old post was deleted but its replacement was not created.
	ErrPartialUpdate = errors.New("post removed but replacement not created")
	// ErrTransient is a network or backend failure. The user may retry.
	ErrTransient = errors.New("backend unavailable")
)

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPartialUpdate):
		return KindPartial
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnauthorized):
		return KindAuthorization
	case errors.Is(err, ErrAlreadyHasPost):
		return KindConflict
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindInternal
	}
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindConflict, KindPartial:
		return http.StatusConflict
	case KindTransient:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
