package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/identity"
	"github.com/ericrosedev/findavote/internal/models"
)

func navPages(items []NavItem) []Page {
	out := make([]Page, 0, len(items))
	for _, it := range items {
		out = append(out, it.Page)
	}
	return out
}

func TestShell_AnonymousNavigation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.shell.View(ctx)
	require.NoError(t, err)
	require.Equal(t, PageHome, view.Page)
	require.Equal(t, Screen(PageHome), view.Screen)
	require.Equal(t, []Page{PageHome, PageFind, PagePost, PageAbout}, navPages(view.Nav))
	require.True(t, view.Nav[0].Active)
	require.Equal(t, AuthStatus{State: AuthAnonymous, ButtonLabel: "Login"}, view.Auth)

	f.shell.Navigate(PagePost)
	view, err = f.shell.View(ctx)
	require.NoError(t, err)
	require.Equal(t, ScreenAuthRequired, view.Screen)

	f.shell.Navigate(PageAdmin)
	view, err = f.shell.View(ctx)
	require.NoError(t, err)
	require.Equal(t, ScreenAccessDenied, view.Screen)

	_, err = ParsePage("settings")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestShell_LoginRequiresProfileSetup(t *testing.T) {
	f := newFixture(t)
	f.world.AddUser("root", models.UserRoleAdmin, models.ApprovalApproved)
	ctx := context.Background()

	id, err := f.shell.Login(ctx, identity.Credentials{Email: "alice", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, models.Principal("alice"), id.Principal)
	require.Equal(t, 1, f.world.Calls("initializeAuth"))

	f.shell.Navigate(PageFind)
	view, err := f.shell.View(ctx)
	require.NoError(t, err)
	require.Equal(t, ScreenProfileSetup, view.Screen)
	require.Equal(t, PageFind, view.Page)
	require.Equal(t, AuthAuthenticated, view.Auth.State)
	require.Equal(t, "Logout", view.Auth.ButtonLabel)

	require.ErrorIs(t, f.shell.SaveProfile(ctx, "   "), ErrProfileNameRequired)
	require.NoError(t, f.shell.SaveProfile(ctx, " Alice "))

	view, err = f.shell.View(ctx)
	require.NoError(t, err)
	require.Equal(t, Screen(PageFind), view.Screen)
	require.Equal(t, &models.UserProfile{Name: "Alice"}, view.Profile)
	require.False(t, view.IsAdmin)
}

func TestShell_AdminSeesAdminNavItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.shell.Login(ctx, identity.Credentials{Email: "first", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, f.shell.SaveProfile(ctx, "First"))

	f.shell.Navigate(PageAdmin)
	view, err := f.shell.View(ctx)
	require.NoError(t, err)
	require.True(t, view.IsAdmin)
	require.Equal(t, Screen(PageAdmin), view.Screen)
	require.Equal(t, []Page{PageHome, PageFind, PagePost, PageAdmin, PageAbout}, navPages(view.Nav))
}

func TestShell_LogoutClearsIdentityAndCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.shell.Login(ctx, identity.Credentials{Email: "alice", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, f.shell.SaveProfile(ctx, "Alice"))
	f.shell.Navigate(PagePost)
	_, err = f.shell.View(ctx)
	require.NoError(t, err)
	require.Positive(t, f.queries.Cache().Len())

	require.NoError(t, f.shell.Logout(ctx))
	require.Equal(t, PageHome, f.shell.Page())
	require.True(t, f.queries.Identity().IsAnonymous())
	require.Zero(t, f.queries.Cache().Len())
	require.Len(t, f.provider.logouts, 1)

	view, err := f.shell.View(ctx)
	require.NoError(t, err)
	require.Equal(t, AuthAnonymous, view.Auth.State)
}

func TestShell_LoginWhileAuthenticatedClearsFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.shell.Login(ctx, identity.Credentials{Email: "alice", Password: "pw"})
	require.NoError(t, err)

	id, err := f.shell.Login(ctx, identity.Credentials{Email: "bob", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, models.Principal("bob"), id.Principal)
	require.Len(t, f.provider.logouts, 1)
	require.Equal(t, models.Principal("alice"), f.provider.logouts[0].Principal)
}

func TestShell_LoginRetriesOnceWhenProviderIsBusy(t *testing.T) {
	f := newFixture(t)
	f.provider.busyOnce = true

	id, err := f.shell.Login(context.Background(), identity.Credentials{Email: "alice", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, models.Principal("alice"), id.Principal)
	require.Equal(t, 2, f.provider.logins)
}

func TestShell_FailedLoginStaysAnonymous(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.shell.Login(ctx, identity.Credentials{Email: "alice", Password: "nope"})
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
	require.True(t, f.queries.Identity().IsAnonymous())

	// a failed re-login after a successful one does not leave the old identity bound
	_, err = f.shell.Login(ctx, identity.Credentials{Email: "alice", Password: "pw"})
	require.NoError(t, err)
	f.provider.loginErr = fmt.Errorf("%w: auth down", apperr.ErrTransient)
	_, err = f.shell.Login(ctx, identity.Credentials{Email: "bob", Password: "pw"})
	require.ErrorIs(t, err, apperr.ErrTransient)
	require.True(t, f.queries.Identity().IsAnonymous())
	require.True(t, f.queries.Ready())
}

func TestShell_RestoreFromToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.auth.Restore(ctx, "tok-carol")
	require.NoError(t, err)
	require.Equal(t, models.Principal("carol"), id.Principal)
	require.Equal(t, models.Principal("carol"), f.queries.Identity().Principal)

	_, err = f.auth.Restore(ctx, "garbage")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	require.True(t, f.queries.Identity().IsAnonymous())
}

func TestShell_SaveProfileAnonymous(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.shell.SaveProfile(context.Background(), "x"), apperr.ErrUnauthorized)
}
