package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrExternalService = errors.New("external service failure")
	ErrValidation      = errors.New("validation failure")
)
