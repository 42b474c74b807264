package errors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalid            = errors.New("invalid")
	ErrTooMany            = errors.New("too many requests")
	ErrInternal           = errors.New("internal")
	ErrModelNotFound      = errors.New("model not found")
	ErrModelLoad          = errors.New("model load failed")
	ErrInference          = errors.New("inference failed")
	ErrChunkCountMismatch = errors.New("chunk count mismatch")
	ErrDimensionMismatch  = errors.New("dimension mismatch")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrModelNotFound)
}

func IsModelLoad(err error) bool {
	return errors.Is(err, ErrModelLoad)
}
