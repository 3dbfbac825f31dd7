package models

import "errors"

// Domain specific errors for authentication, authorization and resource access.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrUnregistered    = errors.New("profile registration incomplete")
	ErrBadRequest      = errors.New("bad request")
	ErrValidation      = errors.New("validation failed")
	ErrUpstream        = errors.New("upstream provider failure")
	ErrInternal        = errors.New("internal error")
)
