package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EPESPO-inventario/internal/domain"
)

func TestStoreKeepsCallersApart(t *testing.T) {
	st := NewStore()
	a, sa, err := st.Open("upstream-a", domain.User{ID: 1, Role: domain.RoleAdmin})
	require.NoError(t, err)
	b, sb, err := st.Open("upstream-b", domain.User{ID: 2, Role: domain.RoleReader})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "upstream")
	assert.Len(t, a, 43)

	got, ok := st.Lookup(a)
	require.True(t, ok)
	assert.Same(t, sa, got)
	assert.True(t, got.IsAdmin())

	got, ok = st.Lookup(b)
	require.True(t, ok)
	assert.Same(t, sb, got)
	assert.Equal(t, "upstream-b", got.Token())

	_, ok = st.Lookup("")
	assert.False(t, ok)
	_, ok = st.Lookup("upstream-a")
	assert.False(t, ok)
}

func TestStoreClose(t *testing.T) {
	st := NewStore()
	a, sa, err := st.Open("upstream-a", domain.User{ID: 1})
	require.NoError(t, err)
	b, _, err := st.Open("upstream-b", domain.User{ID: 2})
	require.NoError(t, err)

	st.Close(a)
	_, ok := st.Lookup(a)
	assert.False(t, ok)
	assert.Empty(t, sa.Token())

	_, ok = st.Lookup(b)
	assert.True(t, ok)
	st.Close("unknown")
	assert.Equal(t, 1, st.Len())
}

func TestStoreExpiryListenersAndPrune(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	st := NewStore()
	st.now = func() time.Time { return now }

	var expired []domain.ID
	st.OnExpire(func(u domain.User) { expired = append(expired, u.ID) })

	_, sa, err := st.Open("upstream-a", domain.User{ID: 1})
	require.NoError(t, err)
	_, _, err = st.Open(signed(t, now.Add(-time.Minute)), domain.User{ID: 2})
	require.NoError(t, err)

	assert.True(t, sa.Expire())
	assert.Equal(t, []domain.ID{1}, expired)

	// opening another session sweeps both dead ones
	_, _, err = st.Open("upstream-c", domain.User{ID: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	s := New()
	got, ok := FromContext(NewContext(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = FromContext(NewContext(context.Background(), nil))
	assert.False(t, ok)
}
