package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeTransient},
		{500, ErrorTypeTransient},
		{503, ErrorTypeTransient},
		{418, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.code))
		})
	}
}

func TestTypeOfWrapped(t *testing.T) {
	base := NewAuthError(401, "session expired")
	wrapped := fmt.Errorf("fetching posts: %w", base)

	assert.True(t, IsAuth(wrapped))
	assert.False(t, IsTransient(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
	assert.False(t, IsAuth(nil))
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(NewTransientError(502, "bad gateway")))
	assert.True(t, IsRetryableError(Wrap(ErrorTypeNetwork, stderrors.New("reset"), "request failed")))
	assert.False(t, IsRetryableError(NewAuthError(403, "forbidden")))
	assert.False(t, IsRetryableError(NewPaginationError("cursor loop")))
	assert.False(t, IsRetryableError(nil))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitAuth, ExitCode(fmt.Errorf("x: %w", NewAuthError(401, "no"))))
	assert.Equal(t, ExitPagination, ExitCode(NewPaginationError("loop")))
	assert.Equal(t, ExitTransient, ExitCode(NewTransientError(500, "down")))
	assert.Equal(t, ExitInterrupted, ExitCode(fmt.Errorf("run: %w", context.Canceled)))
	assert.Equal(t, ExitFailure, ExitCode(stderrors.New("boom")))
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(ErrorTypeParsing, stderrors.New("unexpected EOF"), "decode page")
	assert.Equal(t, "parsing error: decode page: unexpected EOF", err.Error())
	assert.Equal(t, "auth error (code 401): expired", NewAuthError(401, "expired").Error())
	assert.ErrorIs(t, err, err.Err)
}
