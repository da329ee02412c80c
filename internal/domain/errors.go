package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// record does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing vehicle number, unknown violation).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConnectionFailed is returned when the record store cannot be reached.
// It is recoverable: the caller reports it and may retry the operation.
// Handlers should map this to HTTP 503.
var ErrConnectionFailed = errors.New("connection failed")

// ErrQueryFailed is returned when the store rejects a statement after a
// connection was established.
var ErrQueryFailed = errors.New("query failed")

// ErrInsert is returned when a new stop record could not be written.
var ErrInsert = errors.New("insert failed")

// ErrDelete is returned when a delete statement could not be executed.
var ErrDelete = errors.New("delete failed")
