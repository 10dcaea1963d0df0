package errorx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrapf(cause, CodeDBError, "查询会话 chat_id=%s", "42")

	require.Equal(t, "查询会话 chat_id=42: connection refused", err.Error())
	require.ErrorIs(t, err, cause)
	require.Equal(t, CodeDBError, GetCode(err))
}

func TestGetCodeDefaultsToServerBusy(t *testing.T) {
	require.Equal(t, CodeServerBusy, GetCode(errors.New("boom")))
}

func TestIsComparesByCode(t *testing.T) {
	err := fmt.Errorf("send: %w", Wrap(errors.New("x"), CodeEmptyMessage, "body"))
	require.ErrorIs(t, err, ErrEmptyMessage)
	require.NotErrorIs(t, err, ErrMessageTooLong)
}

func TestIsNotFound(t *testing.T) {
	require.True(t, IsNotFound(New(CodeNotFound, "missing")))
	require.True(t, IsNotFound(errors.New("record not found")))
	require.False(t, IsNotFound(New(CodeDBError, "db")))
	require.False(t, IsNotFound(nil))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeConflict, "dup"))
	require.True(t, HasCode(err, CodeConflict))
	require.False(t, HasCode(err, CodeNotFound))
}
