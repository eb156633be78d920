package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreWritesFileAndReturnsReference(t *testing.T) {
	s, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	ref, err := s.Store(context.Background(), strings.NewReader("jpeg bytes"), "holiday.JPG")
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(ref, "/uploads/"), "reference %q must be under the base URL", ref)
	assert.True(t, strings.HasSuffix(ref, ".jpg"), "extension should be preserved lower-cased, got %q", ref)

	data, err := os.ReadFile(filepath.Join(s.Root, strings.TrimPrefix(ref, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestStoreGeneratesDistinctNames(t *testing.T) {
	s, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	a, err := s.Store(context.Background(), strings.NewReader("same"), "a.png")
	require.NoError(t, err)
	b, err := s.Store(context.Background(), strings.NewReader("same"), "a.png")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "identical payloads must still get fresh names")
}

func TestStoreEmptyPayloadYieldsEmptyReference(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir, "/uploads")
	require.NoError(t, err)

	ref, err := s.Store(context.Background(), strings.NewReader(""), "empty.png")
	require.NoError(t, err)
	assert.Empty(t, ref)

	ref, err = s.Store(context.Background(), nil, "missing.png")
	require.NoError(t, err)
	assert.Empty(t, ref)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "empty payloads must leave no files behind")
}

func TestStoreDropsSuspiciousExtensions(t *testing.T) {
	s, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	for _, name := range []string{"../../etc/passwd", "x.", "noext", "a.b/c", "weird.ex!t"} {
		ref, err := s.Store(context.Background(), strings.NewReader("payload"), name)
		require.NoError(t, err)
		base := strings.TrimPrefix(ref, "/uploads/")
		assert.NotContains(t, base, "/", "name %q must stay in the flat namespace", name)
	}
}
