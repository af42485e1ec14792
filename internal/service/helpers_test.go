package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ericrosedev/findavote/internal/actor"
	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/backend/backendtest"
	"github.com/ericrosedev/findavote/internal/identity"
	"github.com/ericrosedev/findavote/internal/media/imageprep"
	"github.com/ericrosedev/findavote/internal/models"
	"github.com/ericrosedev/findavote/internal/query"
	"github.com/ericrosedev/findavote/internal/storage"
)

// fakeProvider logs in anyone whose password is "pw"; the principal is the email.
type fakeProvider struct {
	mu       sync.Mutex
	busyOnce bool
	logins   int
	logouts  []models.Identity
	loginErr error
}

func (p *fakeProvider) Login(_ context.Context, creds identity.Credentials) (models.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins++
	if p.busyOnce {
		p.busyOnce = false
		return models.Identity{}, identity.ErrAlreadyAuthenticated
	}
	if p.loginErr != nil {
		return models.Identity{}, p.loginErr
	}
	if creds.Password != "pw" {
		return models.Identity{}, identity.ErrInvalidCredentials
	}
	return models.Identity{Principal: models.Principal(creds.Email), Token: "tok-" + creds.Email, DeviceID: "dev"}, nil
}

func (p *fakeProvider) Logout(_ context.Context, id models.Identity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !id.IsAnonymous() {
		p.logouts = append(p.logouts, id)
	}
	return nil
}

func (p *fakeProvider) Verify(token string) (models.Identity, error) {
	principal, ok := strings.CutPrefix(token, "tok-")
	if !ok || principal == "" {
		return models.Identity{}, apperr.ErrUnauthorized
	}
	return models.Identity{Principal: models.Principal(principal), Token: token}, nil
}

type fixture struct {
	world    *backendtest.World
	store    *storage.MemoryStore
	accessor *actor.Accessor
	queries  *query.Client
	provider *fakeProvider
	auth     *AuthService
	posts    *PostWorkflow
	feed     *Feed
	mod      *Moderation
	shell    *Shell
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zerolog.Nop()

	f := &fixture{
		world:    backendtest.NewWorld(),
		store:    storage.NewMemoryStore("http://files.test"),
		provider: &fakeProvider{},
	}
	f.accessor = actor.NewAccessor(f.world.Factory(), log)
	f.queries = query.NewClient(f.accessor, log)
	uploads := NewUploadService(imageprep.New(), f.store, log)
	f.auth = NewAuthService(f.provider, f.accessor, f.queries, log)
	f.posts = NewPostWorkflow(f.queries, uploads, log)
	f.feed = NewFeed(f.queries, uploads, log)
	f.mod = NewModeration(f.queries, uploads, log)
	f.shell = NewShell(f.auth, f.queries, log)

	require.NoError(t, f.auth.Anonymous(context.Background()))
	return f
}

// as binds the fixture to principal. The first principal bound becomes admin.
func (f *fixture) as(t *testing.T, principal string) {
	t.Helper()
	require.NoError(t, f.accessor.SetIdentity(context.Background(), models.Identity{Principal: models.Principal(principal)}))
}

func pngImage(t *testing.T, w, h int) *imageprep.File {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 255, A: 128})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &imageprep.File{Name: "photo.png", ContentType: "image/png", Data: buf.Bytes()}
}
