package actor

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ericrosedev/findavote/internal/backend"
	"github.com/ericrosedev/findavote/internal/backend/backendtest"
	"github.com/ericrosedev/findavote/internal/models"
)

func TestAccessor_NotReadyUntilIdentitySet(t *testing.T) {
	w := backendtest.NewWorld()
	a := NewAccessor(w.Factory(), zerolog.Nop())

	require.False(t, a.Ready())
	_, _, err := a.Actor()
	require.ErrorIs(t, err, ErrNotReady)
}

func TestAccessor_AnonymousSkipsInitializeAuth(t *testing.T) {
	w := backendtest.NewWorld()
	a := NewAccessor(w.Factory(), zerolog.Nop())

	require.NoError(t, a.SetIdentity(context.Background(), models.Identity{}))
	require.True(t, a.Ready())
	require.Equal(t, 0, w.Calls("initializeAuth"))
}

func TestAccessor_AuthenticatedRunsInitializeAuth(t *testing.T) {
	w := backendtest.NewWorld()
	a := NewAccessor(w.Factory(), zerolog.Nop())

	require.NoError(t, a.SetIdentity(context.Background(), models.Identity{Principal: "first"}))
	require.Equal(t, 1, w.Calls("initializeAuth"))

	// the first principal registered becomes admin
	u, ok := w.User("first")
	require.True(t, ok)
	require.Equal(t, models.UserRoleAdmin, u.Role)
}

func TestAccessor_NotifiesListenersWithGeneration(t *testing.T) {
	w := backendtest.NewWorld()
	a := NewAccessor(w.Factory(), zerolog.Nop())

	var seen []uint64
	a.Subscribe(func(gen uint64) { seen = append(seen, gen) })

	ctx := context.Background()
	require.NoError(t, a.SetIdentity(ctx, models.Identity{}))
	require.NoError(t, a.SetIdentity(ctx, models.Identity{Principal: "p1"}))
	require.Equal(t, []uint64{1, 2}, seen)

	_, id, gen, err := a.Snapshot()
	require.NoError(t, err)
	require.Equal(t, models.Principal("p1"), id.Principal)
	require.Equal(t, uint64(2), gen)
}

func TestAccessor_FailureLeavesNotReady(t *testing.T) {
	boom := errors.New("boom")
	factory := func(context.Context, models.Identity) (backend.Backend, error) {
		return nil, boom
	}
	a := NewAccessor(factory, zerolog.Nop())

	notified := false
	a.Subscribe(func(uint64) { notified = true })

	require.ErrorIs(t, a.SetIdentity(context.Background(), models.Identity{}), boom)
	require.False(t, a.Ready())
	require.False(t, notified)
}

func TestAccessor_InitializeAuthFailure(t *testing.T) {
	w := backendtest.NewWorld()
	w.FailNext("initializeAuth", errors.New("rejected"))
	a := NewAccessor(w.Factory(), zerolog.Nop())

	require.Error(t, a.SetIdentity(context.Background(), models.Identity{Principal: "p"}))
	require.False(t, a.Ready())
}
