package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/backend/backendtest"
	"github.com/ericrosedev/findavote/internal/identity"
	"github.com/ericrosedev/findavote/internal/media/imageprep"
	"github.com/ericrosedev/findavote/internal/models"
	"github.com/ericrosedev/findavote/internal/service"
	"github.com/ericrosedev/findavote/internal/storage"
)

type stubProvider struct{}

func (stubProvider) Login(_ context.Context, creds identity.Credentials) (models.Identity, error) {
	if creds.Password != "pw" {
		return models.Identity{}, identity.ErrInvalidCredentials
	}
	return models.Identity{Principal: models.Principal(creds.Email), Token: "tok-" + creds.Email}, nil
}

func (stubProvider) Logout(context.Context, models.Identity) error { return nil }

func (stubProvider) Verify(token string) (models.Identity, error) {
	p, ok := strings.CutPrefix(token, "tok-")
	if !ok {
		return models.Identity{}, apperr.ErrUnauthorized
	}
	return models.Identity{Principal: models.Principal(p), Token: token}, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newHub(t *testing.T) (*Hub, *MemoryTokenStore, *clock) {
	t.Helper()
	log := zerolog.Nop()
	tokens := NewMemoryTokenStore()
	c := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	tokens.now = c.now

	h := NewHub(Deps{
		Backend:  backendtest.NewWorld().Factory(),
		Provider: stubProvider{},
		Uploads:  service.NewUploadService(imageprep.New(), storage.NewMemoryStore(""), log),
		Tokens:   tokens,
		TokenTTL: time.Hour,
		Log:      log,
	}, 30*time.Minute)
	h.now = c.now
	return h, tokens, c
}

func TestHub_OpenCreatesAnonymousSession(t *testing.T) {
	h, _, _ := newHub(t)
	ctx := context.Background()

	s, err := h.Open(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)
	require.True(t, s.Identity().IsAnonymous())
	require.True(t, s.Queries.Ready())

	again, err := h.Open(ctx, s.ID)
	require.NoError(t, err)
	require.Same(t, s, again)
	require.Equal(t, 1, h.Len())
}

func TestHub_UnknownIDGetsFreshSession(t *testing.T) {
	h, _, _ := newHub(t)

	s, err := h.Open(context.Background(), "forged-id")
	require.NoError(t, err)
	require.NotEqual(t, "forged-id", s.ID)
}

func TestHub_LoginSurvivesEviction(t *testing.T) {
	h, tokens, c := newHub(t)
	ctx := context.Background()

	s, err := h.Open(ctx, "")
	require.NoError(t, err)
	_, err = s.Login(ctx, identity.Credentials{Email: "alice", Password: "pw"})
	require.NoError(t, err)

	tok, err := tokens.Load(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, "tok-alice", tok)

	c.advance(31 * time.Minute)
	require.Equal(t, 1, h.Sweep())
	_, ok := h.Lookup(s.ID)
	require.False(t, ok)

	restored, err := h.Open(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s.ID, restored.ID)
	require.NotSame(t, s, restored)
	require.Equal(t, models.Principal("alice"), restored.Identity().Principal)
}

func TestHub_LogoutForgetsToken(t *testing.T) {
	h, tokens, _ := newHub(t)
	ctx := context.Background()

	s, err := h.Open(ctx, "")
	require.NoError(t, err)
	_, err = s.Login(ctx, identity.Credentials{Email: "alice", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx))
	require.True(t, s.Identity().IsAnonymous())
	tok, err := tokens.Load(ctx, s.ID)
	require.NoError(t, err)
	require.Empty(t, tok)
}

func TestHub_RejectedTokenContinuesAnonymous(t *testing.T) {
	h, tokens, _ := newHub(t)
	ctx := context.Background()
	require.NoError(t, tokens.Save(ctx, "sess-1", "garbage", time.Hour))

	s, err := h.Open(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, "sess-1", s.ID)
	require.True(t, s.Identity().IsAnonymous())

	tok, err := tokens.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Empty(t, tok)
}

func TestHub_SweepKeepsActiveSessions(t *testing.T) {
	h, _, c := newHub(t)
	ctx := context.Background()

	idle, err := h.Open(ctx, "")
	require.NoError(t, err)
	c.advance(20 * time.Minute)
	active, err := h.Open(ctx, "")
	require.NoError(t, err)
	c.advance(15 * time.Minute)

	require.Equal(t, 1, h.Sweep())
	_, ok := h.Lookup(idle.ID)
	require.False(t, ok)
	_, ok = h.Lookup(active.ID)
	require.True(t, ok)
}

func TestMemoryTokenStore_Expiry(t *testing.T) {
	store := NewMemoryTokenStore()
	c := &clock{t: time.Unix(0, 0)}
	store.now = c.now
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s", "tok", time.Minute))
	tok, err := store.Load(ctx, "s")
	require.NoError(t, err)
	require.Equal(t, "tok", tok)

	c.advance(2 * time.Minute)
	tok, err = store.Load(ctx, "s")
	require.NoError(t, err)
	require.Empty(t, tok)
}
