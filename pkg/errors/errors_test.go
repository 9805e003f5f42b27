package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"entry not found", ErrEntryNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("reading /a.htm: %w", ErrEntryNotFound), http.StatusNotFound},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"build in progress", ErrBuildInProgress, http.StatusConflict},
		{"undecodable toc", ErrTOCParseFailed, http.StatusUnprocessableEntity},
		{"no archive", ErrArchiveNotLoaded, http.StatusServiceUnavailable},
		{"extraction failed", ErrExtractionFailed, http.StatusInternalServerError},
		{"app error wins", New(ErrEntryNotFound, http.StatusGone, "gone"), http.StatusGone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := Newf(ErrInvalidData, http.StatusBadRequest, "entry %s", "/x.htm")
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.Equal(t, "invalid data: entry /x.htm", err.Error())
}
