package runlock

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_Exclusive(t *testing.T) {
	path := Path(filepath.Join(t.TempDir(), "bot_account.json"))

	first, err := Acquire(path)
	require.NoError(t, err)

	_, err = Acquire(path)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Release())

	second, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestAcquire_WritesPid(t *testing.T) {
	path := Path(filepath.Join(t.TempDir(), "nested", "bot_account.json"))

	lock, err := Acquire(path)
	require.NoError(t, err)
	defer lock.Release()

	payload, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(payload)))
}

func TestRelease_Idempotent(t *testing.T) {
	lock, err := Acquire(filepath.Join(t.TempDir(), "x.lock"))
	require.NoError(t, err)

	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())

	var nilLock *Lock
	require.NoError(t, nilLock.Release())
}
