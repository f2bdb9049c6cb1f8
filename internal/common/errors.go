package common

import (
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

var (
	ErrNotFound               = errors.New("requested resource not found")
	ErrUnauthorized           = errors.New("unauthorized access")
	ErrForbidden              = errors.New("forbidden access")
	ErrBadRequest             = errors.New("bad request")
	ErrConflict               = errors.New("resource conflict") // e.g., slug already taken
	ErrInternalServer         = errors.New("internal server error")
	ErrValidation             = errors.New("validation failed")
	ErrServiceUnavailable     = errors.New("service unavailable")
	ErrLanguageNotAvailable   = errors.New("language not available for this question")
	ErrLanguageNotImplemented = errors.New("language is not supported for execution yet")
	ErrRateLimited            = errors.New("too many execution requests")
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation),
		errors.Is(err, ErrLanguageNotAvailable), errors.Is(err, model.ErrUnknownLanguage):
		return http.StatusBadRequest
	case errors.Is(err, ErrLanguageNotImplemented):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return http.StatusConflict
		case "23503", // foreign_key_violation
			"22P02": // invalid_text_representation, e.g. a malformed uuid
			return http.StatusBadRequest
		}
	}

	return http.StatusInternalServerError
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
