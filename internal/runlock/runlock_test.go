package runlock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLock_AcquireAndRelease(t *testing.T) {
	root := t.TempDir()

	l := New(root)
	ok, err := l.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)

	// A second lock in the same process shares the flock, so exercise
	// release and re-acquire instead.
	require.NoError(t, l.Unlock())

	ok, err = l.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Unlock())

	// Unlock twice is safe.
	assert.NoError(t, l.Unlock())
}
