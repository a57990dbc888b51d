// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import "errors"

// ErrInvalidInput marks caller mistakes: a missing file, a missing code, an
// unreadable roster, or a notifier that has not been configured.
var ErrInvalidInput = errors.New("invalid input")

// ErrCodeSpaceExhausted is returned when no unused check-in code could be
// drawn within the attempt budget. Nothing from the upload is persisted.
var ErrCodeSpaceExhausted = errors.New("could not generate a unique check-in code")
