// Package apperr defines the business error taxonomy shared by services and
// the API layer. Services return errors wrapping one of the sentinels; the
// API maps them onto HTTP status codes.
package apperr

import "github.com/pkg/errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrPermission = errors.New("permission denied")
	ErrConflict   = errors.New("conflict")
)

func Validation(msg string) error {
	return errors.Wrap(ErrValidation, msg)
}

func Validationf(format string, args ...any) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

func NotFound(what string) error {
	return errors.Wrap(ErrNotFound, what)
}

func Permission(msg string) error {
	return errors.Wrap(ErrPermission, msg)
}

func Conflict(msg string) error {
	return errors.Wrap(ErrConflict, msg)
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsPermission(err error) bool { return errors.Is(err, ErrPermission) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
