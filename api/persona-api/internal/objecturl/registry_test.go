package internal_objecturl

import (
	"strings"
	"testing"

	internal_audio "github.com/alteraai/api/persona-api/internal/audio"
	"github.com/alteraai/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, capacity int) Registry {
	t.Helper()
	logger, err := commons.NewApplicationLogger(commons.Name("test-objecturl"), commons.Path(t.TempDir()))
	require.NoError(t, err)
	r, err := NewRegistry(logger, capacity)
	require.NoError(t, err)
	return r
}

func TestCreateResolveRevoke(t *testing.T) {
	r := newTestRegistry(t, 4)
	blob := &internal_audio.Blob{Data: []byte{1, 2}, MimeType: internal_audio.MimeTypeWAV}

	url := r.Create("", blob)
	assert.True(t, strings.HasPrefix(url, Scheme))

	got, ok := r.Resolve(url)
	require.True(t, ok)
	assert.Same(t, blob, got)

	got, ok = r.Resolve(ID(url))
	require.True(t, ok)
	assert.Same(t, blob, got)

	r.Revoke(url)
	_, ok = r.Resolve(url)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestEvictsOldestBeyondCapacity(t *testing.T) {
	r := newTestRegistry(t, 2)
	first := r.Create("u1", &internal_audio.Blob{Data: []byte{1}})
	r.Create("u1", &internal_audio.Blob{Data: []byte{2}})
	r.Create("u1", &internal_audio.Blob{Data: []byte{3}})

	_, ok := r.Resolve(first)
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len())
}

func TestResolveForChecksOwner(t *testing.T) {
	r := newTestRegistry(t, 4)
	blob := &internal_audio.Blob{Data: []byte{1, 2}, MimeType: internal_audio.MimeTypeWAV}
	url := r.Create("u1", blob)

	got, ok := r.ResolveFor("u1", url)
	require.True(t, ok)
	assert.Same(t, blob, got)

	_, ok = r.ResolveFor("u2", url)
	assert.False(t, ok)
	_, ok = r.ResolveFor("", ID(url))
	assert.False(t, ok)

	shared := r.Create("", blob)
	_, ok = r.ResolveFor("u2", shared)
	assert.True(t, ok)
}

func TestRevokeEmptyIsNoop(t *testing.T) {
	r := newTestRegistry(t, 2)
	r.Revoke("")
	assert.Equal(t, 0, r.Len())
}

func TestNewRegistry_InvalidCapacity(t *testing.T) {
	logger, err := commons.NewApplicationLogger(commons.Path(t.TempDir()))
	require.NoError(t, err)
	_, err = NewRegistry(logger, 0)
	assert.Error(t, err)
}
