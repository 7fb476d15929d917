package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, m.Set(ctx, "k", []byte("v1"), 0))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	got[0] = 'X'
	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "v1", string(again), "stored value must not alias caller slices")
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := m.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, m.Delete(ctx, "k"))
	require.NoError(t, m.Delete(ctx, "k"))
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	type rec struct {
		Hour  int64   `json:"hour"`
		Times float64 `json:"times"`
	}
	var out rec
	ok, err := GetJSON(ctx, m, "r", &out)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SetJSON(ctx, m, "r", rec{Hour: 7, Times: 1.5}, 0))
	ok, err = GetJSON(ctx, m, "r", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, rec{Hour: 7, Times: 1.5}, out)

	require.NoError(t, m.Set(ctx, "bad", []byte("{"), 0))
	_, err = GetJSON(ctx, m, "bad", &out)
	assert.Error(t, err)
}
