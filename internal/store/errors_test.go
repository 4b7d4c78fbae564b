package store

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrCorruptWrapsErrIO(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, ErrCorrupt, ErrIO)
	assert.NotErrorIs(t, ErrIO, ErrCorrupt)
}

func TestNewStoreError(t *testing.T) {
	t.Parallel()

	t.Run("plain cause is wrapped in ErrIO", func(t *testing.T) {
		err := NewStoreError("vocab_friend-abc", "write", fs.ErrPermission)

		assert.ErrorIs(t, err, ErrIO)
		assert.ErrorIs(t, err, fs.ErrPermission)
		assert.Equal(t, "write vocab_friend-abc failed: queue store I/O failed: permission denied", err.Error())
	})

	t.Run("corrupt cause is not double wrapped", func(t *testing.T) {
		err := NewStoreError("vocab_friend-abc", "read", ErrCorrupt)

		assert.ErrorIs(t, err, ErrCorrupt)
		assert.ErrorIs(t, err, ErrIO)
		assert.Equal(t, "read vocab_friend-abc failed: queue store I/O failed: corrupt queue data", err.Error())
	})

	t.Run("errors.As finds the operation", func(t *testing.T) {
		var wrapped error = NewStoreError("", "clear", errors.New("disk gone"))

		var storeErr *StoreError
		assert.True(t, errors.As(wrapped, &storeErr))
		assert.Equal(t, "clear", storeErr.Operation)
		assert.Equal(t, "clear failed: queue store I/O failed: disk gone", wrapped.Error())
	})
}
