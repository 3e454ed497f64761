package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheHitWithinTTL(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New(time.Hour, func() time.Time { return clock })

	c.Set("http://x/api/tables", []byte(`{"tables":[]}`))

	clock = clock.Add(59 * time.Minute)
	body, ok := c.Get("http://x/api/tables")
	require.True(t, ok)
	require.Equal(t, []byte(`{"tables":[]}`), body)
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New(time.Hour, func() time.Time { return clock })

	c.Set("http://x/api/tables", []byte("v1"))

	clock = clock.Add(time.Hour)
	_, ok := c.Get("http://x/api/tables")
	require.False(t, ok)

	// A fresh Set repopulates.
	c.Set("http://x/api/tables", []byte("v2"))
	body, ok := c.Get("http://x/api/tables")
	require.True(t, ok)
	require.Equal(t, []byte("v2"), body)
}

func TestCacheMissForUnknownURL(t *testing.T) {
	c := New(time.Hour, nil)
	_, ok := c.Get("http://x/api/table_data?table_name=orders")
	require.False(t, ok)
}

func TestCacheKeysAreFullURLs(t *testing.T) {
	c := New(time.Hour, nil)
	c.Set("http://x/api/table_data?table_name=orders", []byte("orders"))
	c.Set("http://x/api/table_data?table_name=users", []byte("users"))

	body, ok := c.Get("http://x/api/table_data?table_name=orders")
	require.True(t, ok)
	require.Equal(t, []byte("orders"), body)

	body, ok = c.Get("http://x/api/table_data?table_name=users")
	require.True(t, ok)
	require.Equal(t, []byte("users"), body)
}
