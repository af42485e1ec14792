package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/models"
	"github.com/ericrosedev/findavote/internal/query"
)

type ModerationTab string

const (
	ModerationTabUsers ModerationTab = "users"
	ModerationTabPosts ModerationTab = "posts"
)

func ParseModerationTab(s string) (ModerationTab, error) {
	switch ModerationTab(s) {
	case ModerationTabUsers, ModerationTabPosts:
		return ModerationTab(s), nil
	}
	return "", fmt.Errorf("unknown tab %q: %w", s, apperr.ErrValidation)
}

type UserRow struct {
	models.UserInfo
	PrincipalShort string `json:"principalShort"`
}

type ModerationView struct {
	AccessDenied bool          `json:"accessDenied"`
	Tab          ModerationTab `json:"tab"`
	Users        []UserRow     `json:"users,omitempty"`
	Posts        []PostCard    `json:"posts,omitempty"`
}

// Moderation is the admin page. The backend stays authoritative; the admin check here
// only decides what to render and avoids pointless calls.
type Moderation struct {
	queries *query.Client
	uploads *UploadService
	log     zerolog.Logger

	userEdit   query.Mutation
	postRemove query.Mutation

	mu  sync.Mutex
	tab ModerationTab
}

func NewModeration(queries *query.Client, uploads *UploadService, log zerolog.Logger) *Moderation {
	return &Moderation{
		queries: queries,
		uploads: uploads,
		log:     log,
		tab:     ModerationTabUsers,
	}
}

func (m *Moderation) View(ctx context.Context) (ModerationView, error) {
	m.mu.Lock()
	tab := m.tab
	m.mu.Unlock()

	if err := m.requireAdmin(ctx); err != nil {
		if errors.Is(err, ErrNotAdmin) {
			return ModerationView{AccessDenied: true, Tab: tab}, nil
		}
		return ModerationView{}, err
	}

	view := ModerationView{Tab: tab}
	switch tab {
	case ModerationTabUsers:
		users, err := m.queries.ListUsers(ctx)
		if err != nil {
			return ModerationView{}, err
		}
		view.Users = make([]UserRow, 0, len(users))
		for _, u := range users {
			view.Users = append(view.Users, UserRow{UserInfo: u, PrincipalShort: u.Principal.Short()})
		}
	case ModerationTabPosts:
		posts, err := m.queries.AllPosts(ctx)
		if err != nil {
			return ModerationView{}, err
		}
		view.Posts = decoratePosts(ctx, m.uploads, posts)
	}
	return view, nil
}

func (m *Moderation) SetTab(tab ModerationTab) {
	m.mu.Lock()
	m.tab = tab
	m.mu.Unlock()
}

func (m *Moderation) SetApproval(ctx context.Context, user models.Principal, status models.ApprovalStatus) error {
	if err := m.requireAdmin(ctx); err != nil {
		return err
	}
	err := m.userEdit.Run(ctx, func(ctx context.Context) error {
		return m.queries.SetApproval(ctx, user, status)
	})
	if err != nil {
		return err
	}
	m.audit().Str("user", user.String()).Str("approval", string(status)).Msg("approval changed")
	return nil
}

func (m *Moderation) AssignRole(ctx context.Context, user models.Principal, role models.UserRole) error {
	if err := m.requireAdmin(ctx); err != nil {
		return err
	}
	err := m.userEdit.Run(ctx, func(ctx context.Context) error {
		return m.queries.AssignRole(ctx, user, role)
	})
	if err != nil {
		return err
	}
	m.audit().Str("user", user.String()).Str("role", string(role)).Msg("role assigned")
	return nil
}

// RemovePost deletes any post. confirmed must be true.
func (m *Moderation) RemovePost(ctx context.Context, id uint64, confirmed bool) error {
	if err := m.requireAdmin(ctx); err != nil {
		return err
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	err := m.postRemove.Run(ctx, func(ctx context.Context) error {
		return m.queries.RemovePost(ctx, id)
	})
	if err != nil {
		return err
	}
	m.audit().Uint64("post_id", id).Msg("post removed")
	return nil
}

func (m *Moderation) requireAdmin(ctx context.Context) error {
	if m.queries.Identity().IsAnonymous() {
		return ErrNotAdmin
	}
	admin, err := m.queries.IsCurrentUserAdmin(ctx)
	if err != nil {
		return err
	}
	if !admin {
		return ErrNotAdmin
	}
	return nil
}

func (m *Moderation) audit() *zerolog.Event {
	return m.log.Info().Str("admin", m.queries.Identity().Principal.String())
}
