package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgressReader_MonotonicAndEndsAt100(t *testing.T) {
	var seen []float64
	p := newProgressReader(100, func(pct float64) { seen = append(seen, pct) })

	p.report(0)
	_, _ = p.Read(make([]byte, 30))
	_, _ = p.Read(make([]byte, 0))
	_, _ = p.Read(make([]byte, 50))
	_, _ = p.Read(make([]byte, 40)) // overshoot clamps to 100
	p.report(100)

	require.Equal(t, []float64{0, 30, 80, 100}, seen)
}

func TestProgressReader_EmptyPayload(t *testing.T) {
	var seen []float64
	p := newProgressReader(0, func(pct float64) { seen = append(seen, pct) })
	p.report(0)
	p.report(100)
	require.Equal(t, []float64{0, 100}, seen)
}

func TestProgressReader_NilCallback(t *testing.T) {
	p := newProgressReader(10, nil)
	n, err := p.Read(make([]byte, 4))
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestMemoryStore_UploadAndURL(t *testing.T) {
	m := NewMemoryStore("http://files.local")
	data := make([]byte, 40*1024)

	var seen []float64
	path, err := m.UploadFile(context.Background(), "post-abc.jpg", "image/jpeg", data, func(p float64) {
		seen = append(seen, p)
	})
	require.NoError(t, err)
	require.Equal(t, "post-abc.jpg", path)
	require.Equal(t, 0.0, seen[0])
	require.Equal(t, 100.0, seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		require.Greater(t, seen[i], seen[i-1])
	}

	stored, mime, ok := m.Object(path)
	require.True(t, ok)
	require.Equal(t, "image/jpeg", mime)
	require.Len(t, stored, len(data))

	u, err := m.FileURL(context.Background(), path, 0, "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "http://files.local/post-abc.jpg", u)
}

func TestMemoryStore_Failures(t *testing.T) {
	m := NewMemoryStore("")
	boom := errors.New("offline")

	m.FailUploads(boom)
	_, err := m.UploadFile(context.Background(), "x.jpg", "image/jpeg", []byte{1}, nil)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, m.Len())

	_, err = m.UploadFile(context.Background(), "", "image/jpeg", []byte{1}, nil)
	require.ErrorIs(t, err, ErrEmptyPath)

	m.FailURLs(boom)
	_, err = m.FileURL(context.Background(), "x.jpg", 0, "")
	require.ErrorIs(t, err, boom)
}

func TestObjectPath(t *testing.T) {
	require.Equal(t, "a.jpg", objectPath("", "a.jpg"))
	require.Equal(t, "posts/a.jpg", objectPath("/posts/", "a.jpg"))
}
