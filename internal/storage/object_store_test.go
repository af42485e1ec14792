package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ericrosedev/findavote/internal/config"
)

// Runs against a MinIO container: GO_TEST_INTEGRATION=1 go test ./internal/storage
func startMinio(t *testing.T) config.StorageConfig {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	const (
		rootUser     = "root"
		rootPassword = "rootpass"
	)
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image: "docker.io/minio/minio:latest",
			Env: map[string]string{
				"MINIO_ROOT_USER":     rootUser,
				"MINIO_ROOT_PASSWORD": rootPassword,
			},
			Cmd:          []string{"server", "/data"},
			ExposedPorts: []string{"9000/tcp"},
			WaitingFor:   wait.ForListeningPort("9000/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	return config.StorageConfig{
		Endpoint:   fmt.Sprintf("http://%s:%s", host, port.Port()),
		AccessKey:  rootUser,
		SecretKey:  rootPassword,
		Bucket:     "findavote-posts",
		Prefix:     "posts",
		Region:     "us-east-1",
		PresignTTL: 2 * time.Minute,
	}
}

func TestObjectStore_UploadAndPresign(t *testing.T) {
	cfg := startMinio(t)
	ctx := context.Background()

	store, err := NewObjectStore(cfg)
	require.NoError(t, err)
	require.NoError(t, store.EnsureBucket(ctx))
	require.NoError(t, store.EnsureBucket(ctx))
	require.NoError(t, store.Ping(ctx))

	var (
		mu     sync.Mutex
		report []float64
	)
	data := make([]byte, 64*1024)
	path, err := store.UploadFile(ctx, "post-test.jpg", "image/jpeg", data, func(p float64) {
		mu.Lock()
		report = append(report, p)
		mu.Unlock()
	})
	require.NoError(t, err)
	require.Equal(t, "posts/post-test.jpg", path)

	mu.Lock()
	require.NotEmpty(t, report)
	require.Equal(t, 100.0, report[len(report)-1])
	for i := 1; i < len(report); i++ {
		require.GreaterOrEqual(t, report[i], report[i-1])
	}
	mu.Unlock()

	u, err := store.FileURL(ctx, path, int64(len(data)), "image/jpeg")
	require.NoError(t, err)

	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Len(t, body, len(data))
}

func TestObjectStore_PublicBaseURL(t *testing.T) {
	store, err := NewObjectStore(config.StorageConfig{
		Endpoint:      "http://127.0.0.1:9000",
		Bucket:        "b",
		PublicBaseURL: "https://cdn.example/",
	})
	require.NoError(t, err)

	u, err := store.FileURL(context.Background(), "posts/post-1.jpg", 0, "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example/posts/post-1.jpg", u)

	_, err = store.FileURL(context.Background(), "", 0, "")
	require.ErrorIs(t, err, ErrEmptyPath)
}
