package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "key", []byte("value"), time.Minute))

	got, err := m.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "key", []byte("value"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := m.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "key", []byte("value"), time.Minute))
	require.NoError(t, m.Delete(ctx, "key"))

	_, err := m.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrMiss)

	// deleting a missing key is not an error
	assert.NoError(t, m.Delete(ctx, "missing"))
}

func TestMemory_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "responses:a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "responses:b", []byte("2"), time.Minute))
	require.NoError(t, m.Set(ctx, "results:a", []byte("3"), time.Minute))

	require.NoError(t, m.DeletePrefix(ctx, "responses:"))

	_, err := m.Get(ctx, "responses:a")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = m.Get(ctx, "responses:b")
	assert.ErrorIs(t, err, ErrMiss)

	kept, err := m.Get(ctx, "results:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), kept)
}
