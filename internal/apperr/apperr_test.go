package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("login: %w", New(CodeInvalidCredentials, "bad password"))

	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	assert.False(t, errors.Is(err, ErrMissingFields))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeTransportFailure, "catalog request failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrTransportFailure)
	assert.Equal(t, "catalog request failed: connection refused", err.Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeMissingFields, CodeOf(fmt.Errorf("wrapped: %w", ErrMissingFields)))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeNotAuthenticated, http.StatusUnauthorized},
		{CodeMissingFields, http.StatusBadRequest},
		{CodeInvalidEmail, http.StatusBadRequest},
		{CodeTransportFailure, http.StatusBadGateway},
		{CodeStorageFailure, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}
