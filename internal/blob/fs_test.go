package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	data := []byte("%PDF-1.4 fake resume content")

	require.NoError(t, store.Put(ctx, "submissions/abc/resume.pdf", data))

	got, err := store.Get(ctx, "submissions/abc/resume.pdf")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	exists, err := store.Exists(ctx, "submissions/abc/resume.pdf")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFSStoreMissingBlob(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	_, err = store.Get(ctx, "submissions/missing.pdf")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	exists, err := store.Exists(ctx, "submissions/missing.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFSStoreRejectsBadKeys(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	tests := []string{"", "../outside", "/etc/passwd"}
	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := store.Get(ctx, key)
			assert.Error(t, err)
			assert.False(t, IsNotFound(err))
		})
	}
}

func TestFSStoreOverwrite(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "texts/a.txt", []byte("first")))
	require.NoError(t, store.Put(ctx, "texts/a.txt", []byte("second")))

	got, err := store.Get(ctx, "texts/a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}
