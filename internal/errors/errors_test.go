package errors

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCode_Category(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want ErrorCategory
	}{
		{ErrFileNotFound, ErrorCategoryFile},
		{ErrComposeInvalid, ErrorCategoryDocker},
		{ErrConfigEnvFileRequired, ErrorCategoryConfig},
		{ErrResolutionNoFreePort, ErrorCategoryResolution},
		{ErrProbeContainerUnavailable, ErrorCategoryProbe},
		{ErrPortConflict, ErrorCategoryPort},
		{ErrUnknown, ErrorCategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.Category())
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := NewFileNotFoundError("docker-compose.yml").WithCause(cause)

	assert.Contains(t, err.Error(), "docker-compose.yml")
	assert.Contains(t, err.Error(), "boom")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "docker-compose.yml", err.Fields["path"])
}

func TestAs_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", NewCancelledError())

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrResolutionCancelled, appErr.Code)
	assert.True(t, HasCode(wrapped, ErrResolutionCancelled))
	assert.False(t, HasCode(wrapped, ErrResolutionNoFreePort))
}

func TestAppErrorHandler_Handle(t *testing.T) {
	h := NewAppErrorHandler()
	ctx := context.Background()

	assert.Nil(t, h.Handle(ctx, nil))

	_, statErr := os.Stat("/definitely/not/here")
	notFound, ok := As(h.Handle(ctx, statErr))
	require.True(t, ok)
	assert.Equal(t, ErrFileNotFound, notFound.Code)

	cancelled, ok := As(h.Handle(ctx, context.Canceled))
	require.True(t, ok)
	assert.Equal(t, ErrResolutionCancelled, cancelled.Code)

	original := NewNoFreePortError(1, 2)
	assert.Same(t, original, h.Handle(ctx, original))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 0, ExitCode(&AppError{Code: ErrProbeContainerUnavailable}))
	assert.Equal(t, 1, ExitCode(NewPortConflictError(1)))
	assert.Equal(t, 1, ExitCode(NewCancelledError()))
	assert.Equal(t, 1, ExitCode(fmt.Errorf("plain")))
}
