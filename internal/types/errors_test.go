package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_HTTPStatus(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationInvalidJSON, http.StatusBadRequest},
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeNotFoundModel, http.StatusNotFound},
		{ErrCodeNotFoundResult, http.StatusNotFound},
		{ErrCodeConflictNoConfig, http.StatusConflict},
		{ErrCodeInsufficientData, http.StatusUnprocessableEntity},
		{ErrCodeUpstreamFeed, http.StatusBadGateway},
		{ErrCodeInternalStore, http.StatusInternalServerError},
		{ErrorCode("something_else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, tc.code.HTTPStatus(), "code %s", tc.code)
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := NewAppError(ErrCodeInternalStore, "saving model failed", inner)

	assert.Equal(t, "internal_store_error: saving model failed", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestHasCode_TraversesWrapping(t *testing.T) {
	err := NewAppError(ErrCodeNotFoundModel, "no trained model", nil)
	wrapped := fmt.Errorf("loading slot: %w", err)

	assert.True(t, HasCode(wrapped, ErrCodeNotFoundModel))
	assert.False(t, HasCode(wrapped, ErrCodeNotFoundResult))
	assert.False(t, HasCode(nil, ErrCodeNotFoundModel))
	assert.True(t, IsModelNotFound(wrapped))
}
