package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialPool_Current(t *testing.T) {
	pool := NewCredentialPool([]string{"key-a", "key-b", "key-c"})

	cred, ok := pool.Current()
	require.True(t, ok)
	assert.Equal(t, 0, cred.Index)
	assert.Equal(t, "key-a", cred.Key)

	// Current is stable until something fails
	cred, ok = pool.Current()
	require.True(t, ok)
	assert.Equal(t, 0, cred.Index)
}

func TestCredentialPool_Rotate(t *testing.T) {
	pool := NewCredentialPool([]string{"key-a", "key-b", "key-c"})

	cred, ok := pool.Rotate(0)
	require.True(t, ok)
	assert.Equal(t, 1, cred.Index)
	assert.Equal(t, "key-b", cred.Key)

	// Failed key never comes back, even after wrapping around
	cred, ok = pool.Rotate(2)
	require.True(t, ok)
	assert.Equal(t, 1, cred.Index)
	assert.Equal(t, 2, pool.FailedCount())
}

func TestCredentialPool_SkipsFailed(t *testing.T) {
	pool := NewCredentialPool([]string{"key-a", "key-b", "key-c"})
	pool.MarkFailed(1)

	cred, ok := pool.Rotate(0)
	require.True(t, ok)
	assert.Equal(t, 2, cred.Index)
}

func TestCredentialPool_Exhausted(t *testing.T) {
	pool := NewCredentialPool([]string{"key-a", "key-b"})
	assert.False(t, pool.Exhausted())

	_, ok := pool.Rotate(0)
	require.True(t, ok)

	_, ok = pool.Rotate(1)
	assert.False(t, ok)
	assert.True(t, pool.Exhausted())

	_, ok = pool.Current()
	assert.False(t, ok)
}

func TestCredentialPool_Empty(t *testing.T) {
	pool := NewCredentialPool(nil)
	assert.True(t, pool.Exhausted())

	_, ok := pool.Current()
	assert.False(t, ok)

	_, ok = pool.Rotate(0)
	assert.False(t, ok)
}

func TestCredentialPool_SingleKey(t *testing.T) {
	pool := NewCredentialPool([]string{"only"})

	cred, ok := pool.Current()
	require.True(t, ok)
	assert.Equal(t, "only", cred.Key)

	_, ok = pool.Rotate(0)
	assert.False(t, ok)
	assert.True(t, pool.Exhausted())
}
