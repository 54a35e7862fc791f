package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutGetRoundTrip(t *testing.T) {
	store, err := FromMemory()
	require.NoError(t, err)
	defer store.Close()

	entry := Entry{URL: "https://example.com/data.csv", ETag: "abc123", Body: []byte("1,2,3"), FetchedAt: time.Unix(0, 0).UTC()}
	require.NoError(t, store.Put(entry))

	got, found, err := store.Get(entry.URL)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, entry.ETag, got.ETag)
	assert.Equal(t, entry.Body, got.Body)
}

func TestStoreGetMissing(t *testing.T) {
	store, err := FromMemory()
	require.NoError(t, err)
	defer store.Close()

	_, found, err := store.Get("https://example.com/missing.csv")
	require.NoError(t, err)
	assert.False(t, found)
}
