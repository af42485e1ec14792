package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/identity"
	"github.com/ericrosedev/findavote/internal/models"
	"github.com/ericrosedev/findavote/internal/query"
)

type Page string

const (
	PageHome  Page = "home"
	PageFind  Page = "find"
	PagePost  Page = "post"
	PageAdmin Page = "admin"
	PageAbout Page = "about"
)

func ParsePage(s string) (Page, error) {
	switch Page(s) {
	case PageHome, PageFind, PagePost, PageAdmin, PageAbout:
		return Page(s), nil
	}
	return "", fmt.Errorf("unknown page %q: %w", s, apperr.ErrValidation)
}

// Screen is what actually gets rendered for the current page.
type Screen string

const (
	ScreenProfileSetup Screen = "profile_setup"
	ScreenAuthRequired Screen = "auth_required"
	ScreenAccessDenied Screen = "access_denied"
)

type AuthState string

const (
	AuthAnonymous     AuthState = "anonymous"
	AuthLoggingIn     AuthState = "logging_in"
	AuthAuthenticated AuthState = "authenticated"
)

type NavItem struct {
	Page   Page   `json:"page"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

type AuthStatus struct {
	State          AuthState `json:"state"`
	ButtonLabel    string    `json:"buttonLabel"`
	Principal      string    `json:"principal,omitempty"`
	PrincipalShort string    `json:"principalShort,omitempty"`
}

type ShellView struct {
	Page    Page                `json:"page"`
	Screen  Screen              `json:"screen"`
	Nav     []NavItem           `json:"nav"`
	Auth    AuthStatus          `json:"auth"`
	IsAdmin bool                `json:"isAdmin"`
	Profile *models.UserProfile `json:"profile,omitempty"`
}

var navLabels = map[Page]string{
	PageHome:  "Home",
	PageFind:  "Find",
	PagePost:  "Post",
	PageAdmin: "Admin",
	PageAbout: "About",
}

// Shell owns page navigation, login state and the profile-setup gate.
type Shell struct {
	auth    *AuthService
	queries *query.Client
	log     zerolog.Logger

	login   query.Mutation
	profile query.Mutation

	mu   sync.Mutex
	page Page
}

func NewShell(auth *AuthService, queries *query.Client, log zerolog.Logger) *Shell {
	return &Shell{
		auth:    auth,
		queries: queries,
		log:     log,
		page:    PageHome,
	}
}

func (s *Shell) Navigate(page Page) {
	s.mu.Lock()
	s.page = page
	s.mu.Unlock()
}

func (s *Shell) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *Shell) View(ctx context.Context) (ShellView, error) {
	page := s.Page()
	id := s.queries.Identity()
	authenticated := !id.IsAnonymous() && s.queries.Ready()

	view := ShellView{
		Page:   page,
		Screen: Screen(page),
		Auth:   s.authStatus(id),
	}

	profileFetched := false
	if authenticated {
		admin, err := s.queries.IsCurrentUserAdmin(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("admin check failed")
		}
		view.IsAdmin = admin

		profile, err := s.queries.UserProfile(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("profile lookup failed")
		} else {
			profileFetched = true
			view.Profile = profile
		}
	}

	view.Nav = navItems(page, view.IsAdmin)

	switch {
	case authenticated && profileFetched && view.Profile == nil:
		view.Screen = ScreenProfileSetup
	case page == PagePost && id.IsAnonymous():
		view.Screen = ScreenAuthRequired
	case page == PageAdmin && !view.IsAdmin:
		view.Screen = ScreenAccessDenied
	}
	return view, nil
}

func (s *Shell) Login(ctx context.Context, creds identity.Credentials) (models.Identity, error) {
	var id models.Identity
	err := s.login.Run(ctx, func(ctx context.Context) error {
		var err error
		id, err = s.auth.Login(ctx, creds)
		return err
	})
	return id, err
}

// Logout clears the identity and the query cache and returns to the home page.
func (s *Shell) Logout(ctx context.Context) error {
	err := s.auth.Logout(ctx)
	s.Navigate(PageHome)
	return err
}

// SaveProfile stores the caller's display name. It clears the profile-setup gate.
func (s *Shell) SaveProfile(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrProfileNameRequired
	}
	if s.queries.Identity().IsAnonymous() {
		return apperr.ErrUnauthorized
	}
	return s.profile.Run(ctx, func(ctx context.Context) error {
		return s.queries.SaveUserProfile(ctx, models.UserProfile{Name: name})
	})
}

func (s *Shell) authStatus(id models.Identity) AuthStatus {
	switch {
	case s.login.Pending():
		return AuthStatus{State: AuthLoggingIn, ButtonLabel: "Logging in..."}
	case id.IsAnonymous():
		return AuthStatus{State: AuthAnonymous, ButtonLabel: "Login"}
	default:
		return AuthStatus{
			State:          AuthAuthenticated,
			ButtonLabel:    "Logout",
			Principal:      id.Principal.String(),
			PrincipalShort: id.Principal.Short(),
		}
	}
}

func navItems(current Page, admin bool) []NavItem {
	pages := []Page{PageHome, PageFind, PagePost}
	if admin {
		pages = append(pages, PageAdmin)
	}
	pages = append(pages, PageAbout)

	items := make([]NavItem, 0, len(pages))
	for _, p := range pages {
		items = append(items, NavItem{Page: p, Label: navLabels[p], Active: p == current})
	}
	return items
}
