package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requirement: a stored blob is readable from disk at the path its URL names.
func TestDiskStore_Put(t *testing.T) {
	// Arrange
	root := t.TempDir()
	store, err := NewDiskStore(root, "/uploads/")
	require.NoError(t, err)

	// Act
	url, err := store.Put(context.Background(), "payment-screenshots/user-1/1741615200000.png", "image/png", strings.NewReader("png-bytes"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "/uploads/payment-screenshots/user-1/1741615200000.png", url)
	got, err := os.ReadFile(filepath.Join(root, "payment-screenshots", "user-1", "1741615200000.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(got))

	entries, err := os.ReadDir(filepath.Join(root, "payment-screenshots", "user-1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

// Requirement: keys cannot escape the upload root.
func TestDiskStore_Put_RejectsEscapingKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "parent traversal", key: "../outside.png"},
		{name: "nested traversal", key: "a/../../outside.png"},
		{name: "absolute path", key: "/etc/passwd"},
		{name: "empty", key: ""},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			store, err := NewDiskStore(t.TempDir(), "/uploads")
			require.NoError(t, err)

			// Act
			_, err = store.Put(context.Background(), test.key, "image/png", strings.NewReader("x"))

			// Assert
			require.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}
