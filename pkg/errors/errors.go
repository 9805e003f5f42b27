package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrEntryNotFound     = errors.New("entry not found")
	ErrExtractionFailed  = errors.New("entry extraction failed")
	ErrTOCParseFailed    = errors.New("failed to parse table of contents")
	ErrInvalidData       = errors.New("invalid data")
	ErrBuildInProgress   = errors.New("index build already in progress")
	ErrAlreadyBuilt      = errors.New("index already built")
	ErrArchiveNotLoaded  = errors.New("no archive loaded")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
	ErrTimeout           = errors.New("operation timed out")
	ErrCacheUnavailable  = errors.New("cache unavailable")
	ErrAnalyticsDisabled = errors.New("analytics disabled")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrBuildInProgress), errors.Is(err, ErrAlreadyBuilt):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidData), errors.Is(err, ErrTOCParseFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrArchiveNotLoaded), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
