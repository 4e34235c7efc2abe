package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_PreservesCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"app error", NotFound("Record"), CodeNotFound},
		{"fmt wrapped app error", fmt.Errorf("delete: %w", InvalidInput("bad id")), CodeInvalidInput},
		{"plain error", context.Canceled, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrapf(tt.err, "file %s", "roster.xlsx")
			assert.Equal(t, tt.wantCode, GetCode(wrapped))
			assert.True(t, Is(wrapped, tt.err))
		})
	}

	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Equal(t, "UNKNOWN", GetCode(context.Canceled))
}

func TestAppError_Message(t *testing.T) {
	err := DatabaseError("failed to commit batch", fmt.Errorf("disk full"))
	assert.Equal(t, "failed to commit batch: disk full", err.Error())
	assert.Equal(t, "Record not found", NotFound("Record").Error())
	assert.Equal(t, CodeUnsupportedFile, WithCode(CodeUnsupportedFile, fmt.Errorf("x")).(*AppError).Code)
}
