package refcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCachesUntilInvalidated(t *testing.T) {
	c := New(time.Minute, time.Minute)
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"TI"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(context.Background(), c, KeyDepartments, load)
		require.NoError(t, err)
		assert.Equal(t, []string{"TI"}, got)
	}
	assert.Equal(t, 1, calls)

	c.Invalidate(KeyDepartments)
	_, err := Fetch(context.Background(), c, KeyDepartments, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	c := New(time.Minute, time.Minute)
	calls := 0
	load := func(context.Context) ([]int, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("down")
		}
		return []int{1}, nil
	}

	_, err := Fetch(context.Background(), c, KeyAssets, load)
	assert.Error(t, err)
	got, err := Fetch(context.Background(), c, KeyAssets, load)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
}

func TestNilCacheAlwaysLoads(t *testing.T) {
	calls := 0
	load := func(context.Context) ([]int, error) { calls++; return nil, nil }
	_, _ = Fetch[int](context.Background(), nil, KeyUsers, load)
	_, _ = Fetch[int](context.Background(), nil, KeyUsers, load)
	assert.Equal(t, 2, calls)
}
