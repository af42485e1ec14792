package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/models"
	"github.com/ericrosedev/findavote/internal/query"
)

type FeedMode string

const (
	FeedModeGrid FeedMode = "grid"
	FeedModeList FeedMode = "list"
)

const dateLayout = "2006-01-02"

func ParseFeedMode(s string) (FeedMode, error) {
	switch FeedMode(s) {
	case FeedModeGrid, FeedModeList:
		return FeedMode(s), nil
	}
	return "", fmt.Errorf("unknown view mode %q: %w", s, apperr.ErrValidation)
}

// PostCard is a post decorated for display.
type PostCard struct {
	models.Post
	AuthorShort string `json:"authorShort"`
	Date        string `json:"date"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type FeedView struct {
	Mode     FeedMode   `json:"mode"`
	Posts    []PostCard `json:"posts"`
	Selected *PostCard  `json:"selected,omitempty"`
}

// Feed lists every post in backend order. Anyone may read it.
type Feed struct {
	queries *query.Client
	uploads *UploadService
	log     zerolog.Logger

	mu       sync.Mutex
	mode     FeedMode
	selected uint64
	hasSel   bool
}

func NewFeed(queries *query.Client, uploads *UploadService, log zerolog.Logger) *Feed {
	return &Feed{
		queries: queries,
		uploads: uploads,
		log:     log,
		mode:    FeedModeGrid,
	}
}

func (f *Feed) View(ctx context.Context) (FeedView, error) {
	posts, err := f.queries.AllPosts(ctx)
	if err != nil {
		return FeedView{}, err
	}

	cards := decoratePosts(ctx, f.uploads, posts)

	f.mu.Lock()
	defer f.mu.Unlock()

	view := FeedView{Mode: f.mode, Posts: cards}
	if f.hasSel {
		for i := range cards {
			if cards[i].ID == f.selected {
				card := cards[i]
				view.Selected = &card
				break
			}
		}
		// the selected post is gone
		if view.Selected == nil {
			f.hasSel = false
		}
	}
	return view, nil
}

func (f *Feed) SetMode(mode FeedMode) {
	f.mu.Lock()
	f.mode = mode
	f.mu.Unlock()
}

func (f *Feed) Select(id uint64) {
	f.mu.Lock()
	f.selected = id
	f.hasSel = true
	f.mu.Unlock()
}

func (f *Feed) CloseDetail() {
	f.mu.Lock()
	f.hasSel = false
	f.mu.Unlock()
}

func decoratePosts(ctx context.Context, uploads *UploadService, posts []models.Post) []PostCard {
	cards := make([]PostCard, 0, len(posts))
	for _, p := range posts {
		card := PostCard{
			Post:        p,
			AuthorShort: p.Author.Short(),
			Date:        p.CreatedAt().UTC().Format(dateLayout),
		}
		if p.HasImage() {
			card.ImageURL = uploads.URL(ctx, p.ImagePath)
		}
		cards = append(cards, card)
	}
	return cards
}
