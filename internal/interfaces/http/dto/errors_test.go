package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidData, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotAllowed, http.StatusBadRequest},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeGatewayFailure, http.StatusBadGateway},
		// Unknown codes default to 500
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestErrorCodeConstantsMapped(t *testing.T) {
	codes := []string{
		ErrCodeInternal, ErrCodeBadRequest, ErrCodeInvalidData,
		ErrCodeNotFound, ErrCodeAlreadyExists, ErrCodeUnauthorized,
		ErrCodeForbidden, ErrCodeNotAllowed, ErrCodeConcurrencyConflict,
		ErrCodeGatewayFailure,
	}
	for _, code := range codes {
		_, ok := ErrorCodeHTTPStatus[code]
		assert.True(t, ok, "code %s missing from status map", code)
	}
}
