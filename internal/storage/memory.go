package storage

import (
	"context"
	"fmt"
	"sync"
)

type memoryObject struct {
	mime string
	data []byte
}

// MemoryStore keeps uploads in process. It backs local development when no object
// storage endpoint is configured, and the service tests.
type MemoryStore struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]memoryObject
	failPut error
	failURL error
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: baseURL,
		objects: make(map[string]memoryObject),
	}
}

// FailUploads makes every following UploadFile return err. nil restores normal behaviour.
func (m *MemoryStore) FailUploads(err error) {
	m.mu.Lock()
	m.failPut = err
	m.mu.Unlock()
}

func (m *MemoryStore) FailURLs(err error) {
	m.mu.Lock()
	m.failURL = err
	m.mu.Unlock()
}

func (m *MemoryStore) UploadFile(ctx context.Context, name, mime string, data []byte, onProgress ProgressFunc) (string, error) {
	if name == "" {
		return "", ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	failPut := m.failPut
	m.mu.Unlock()

	progress := newProgressReader(int64(len(data)), onProgress)
	progress.report(0)
	if failPut != nil {
		return "", failPut
	}

	// feed the progress reader in a few chunks the way minio would
	const chunk = 16 * 1024
	for off := 0; off < len(data); off += chunk {
		end := min(off+chunk, len(data))
		_, _ = progress.Read(data[off:end])
	}

	m.mu.Lock()
	m.objects[name] = memoryObject{mime: mime, data: append([]byte(nil), data...)}
	m.mu.Unlock()

	progress.report(100)
	return name, nil
}

func (m *MemoryStore) FileURL(ctx context.Context, path string, sizeHint int64, mime string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failURL != nil {
		return "", m.failURL
	}
	return fmt.Sprintf("%s/%s", m.baseURL, path), nil
}

// Object returns the stored bytes and content type for path.
func (m *MemoryStore) Object(path string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[path]
	return obj.data, obj.mime, ok
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
