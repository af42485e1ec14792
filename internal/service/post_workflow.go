package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/media/imageprep"
	"github.com/ericrosedev/findavote/internal/models"
	"github.com/ericrosedev/findavote/internal/query"
)

type PostState string

const (
	PostStateAuthRequired PostState = "auth_required"
	PostStateCreating     PostState = "creating"
	PostStateViewing      PostState = "viewing"
	PostStateEditing      PostState = "editing"
)

// Notice is the outcome of a post mutation as shown to the user.
type Notice struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type PostForm struct {
	Title       string
	Description string
	// Image is optional. When editing without a new image the current one is kept.
	Image *imageprep.File
}

type PostView struct {
	State          PostState    `json:"state"`
	Post           *models.Post `json:"post,omitempty"`
	ImageURL       string       `json:"imageUrl,omitempty"`
	Submitting     bool         `json:"submitting"`
	Deleting       bool         `json:"deleting"`
	UploadProgress float64      `json:"uploadProgress"`
	Notice         *Notice      `json:"notice,omitempty"`
}

// PostWorkflow drives the caller's single post through create, edit and delete.
type PostWorkflow struct {
	queries *query.Client
	uploads *UploadService
	log     zerolog.Logger

	// write is held by every mutation of the caller's post; submit and remove
	// only report which one is running.
	write  query.Mutation
	submit query.Mutation
	remove query.Mutation

	mu       sync.Mutex
	editing  bool
	progress float64
	notice   *Notice
}

func NewPostWorkflow(queries *query.Client, uploads *UploadService, log zerolog.Logger) *PostWorkflow {
	return &PostWorkflow{
		queries: queries,
		uploads: uploads,
		log:     log,
	}
}

// Reset forgets edit mode, progress and the last notice. Called on identity change.
func (w *PostWorkflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.editing = false
	w.progress = 0
	w.notice = nil
}

func (w *PostWorkflow) View(ctx context.Context) (PostView, error) {
	if w.queries.Identity().IsAnonymous() {
		return PostView{State: PostStateAuthRequired}, nil
	}

	post, err := w.current(ctx)
	if err != nil {
		return PostView{}, err
	}

	w.mu.Lock()
	if post == nil {
		w.editing = false
	}
	view := PostView{
		State:          PostStateCreating,
		Post:           post,
		Submitting:     w.submit.Pending(),
		Deleting:       w.remove.Pending(),
		UploadProgress: w.progress,
		Notice:         w.notice,
	}
	if post != nil {
		view.State = PostStateViewing
		if w.editing {
			view.State = PostStateEditing
		}
	}
	w.mu.Unlock()

	if post != nil && post.HasImage() {
		view.ImageURL = w.uploads.URL(ctx, post.ImagePath)
	}
	return view, nil
}

func (w *PostWorkflow) BeginEdit(ctx context.Context) error {
	if w.queries.Identity().IsAnonymous() {
		return apperr.ErrUnauthorized
	}
	post, err := w.current(ctx)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrNoPost
	}

	w.mu.Lock()
	w.editing = true
	w.notice = nil
	w.mu.Unlock()
	return nil
}

func (w *PostWorkflow) CancelEdit() {
	w.mu.Lock()
	w.editing = false
	w.progress = 0
	w.mu.Unlock()
}

// Submit creates the caller's post, or replaces it while in edit mode. Form and image
// validation happen before any backend or storage call.
func (w *PostWorkflow) Submit(ctx context.Context, form PostForm) (Notice, error) {
	if w.queries.Identity().IsAnonymous() {
		return w.fail(apperr.ErrUnauthorized, "")
	}

	title, description, err := validatePostForm(form.Title, form.Description)
	if err == nil && form.Image != nil {
		err = imageprep.Validate(*form.Image)
	}
	if err != nil {
		return w.fail(err, "Failed to save post. Please try again.")
	}

	action := "create"
	var notice Notice
	err = w.guard(ctx, &w.submit, func(ctx context.Context) error {
		post, err := w.current(ctx)
		if err != nil {
			return err
		}

		w.mu.Lock()
		editing := w.editing && post != nil
		w.mu.Unlock()

		if post != nil && !editing {
			return apperr.ErrAlreadyHasPost
		}

		imagePath := ""
		if editing {
			action = "update"
			imagePath = post.ImagePath
		}

		if form.Image != nil {
			w.setProgress(0)
			path, err := w.uploads.Upload(ctx, *form.Image, w.setProgress)
			if err != nil {
				return err
			}
			imagePath = path
		}

		if editing {
			if err := w.queries.UpdatePost(ctx, post.ID, title, description, imagePath); err != nil {
				return err
			}
			notice = Notice{Success: true, Message: msgPostUpdated}
			return nil
		}

		if err := w.queries.CreatePost(ctx, title, description, imagePath); err != nil {
			return err
		}
		notice = Notice{Success: true, Message: msgPostCreated}
		return nil
	})
	if err != nil {
		return w.fail(err, "Failed to "+action+" post. Please try again.")
	}

	w.mu.Lock()
	w.editing = false
	w.progress = 0
	w.notice = &notice
	w.mu.Unlock()

	w.log.Info().
		Str("principal", w.queries.Identity().Principal.String()).
		Str("action", action).
		Msg("post saved")
	return notice, nil
}

// Delete removes the caller's own post. confirmed must be true.
func (w *PostWorkflow) Delete(ctx context.Context, confirmed bool) (Notice, error) {
	if w.queries.Identity().IsAnonymous() {
		return w.fail(apperr.ErrUnauthorized, "")
	}
	if !confirmed {
		return w.fail(ErrConfirmationRequired, msgDeleteFailed)
	}

	err := w.guard(ctx, &w.remove, func(ctx context.Context) error {
		post, err := w.current(ctx)
		if err != nil {
			return err
		}
		if post == nil {
			return ErrNoPost
		}
		return w.queries.DeletePost(ctx, post.ID)
	})
	if err != nil {
		return w.fail(err, msgDeleteFailed)
	}

	notice := Notice{Success: true, Message: msgPostDeleted}
	w.mu.Lock()
	w.editing = false
	w.notice = &notice
	w.mu.Unlock()
	return notice, nil
}

func (w *PostWorkflow) guard(ctx context.Context, flag *query.Mutation, fn func(context.Context) error) error {
	return w.write.Run(ctx, func(ctx context.Context) error {
		return flag.Run(ctx, fn)
	})
}

func (w *PostWorkflow) current(ctx context.Context) (*models.Post, error) {
	posts, err := w.queries.MyPosts(ctx)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	post := posts[0]
	return &post, nil
}

func (w *PostWorkflow) setProgress(pct float64) {
	w.mu.Lock()
	w.progress = pct
	w.mu.Unlock()
}

// fail records a failure notice for err and returns it together with err.
func (w *PostWorkflow) fail(err error, fallback string) (Notice, error) {
	msg := fallback
	partial := false

	switch {
	case errors.Is(err, query.ErrMutationPending):
		msg = msgSubmitPending
	case errors.Is(err, apperr.ErrPartialUpdate):
		msg = msgPartialUpdate
		partial = true
	case errors.Is(err, apperr.ErrAlreadyHasPost):
		msg = msgAlreadyHasPost
	case errors.Is(err, apperr.ErrUnauthorized):
		msg = msgAuthRequired
	default:
		if m, ok := validationMessage(err); ok {
			msg = m
		}
	}

	notice := Notice{Success: false, Message: msg}
	w.mu.Lock()
	if partial {
		w.editing = false
	}
	if !errors.Is(err, query.ErrMutationPending) {
		w.progress = 0
	}
	w.notice = &notice
	w.mu.Unlock()

	if apperr.KindOf(err) != apperr.KindValidation {
		w.log.Warn().Err(err).Str("principal", w.queries.Identity().Principal.String()).Msg(msg)
	}
	return notice, err
}

func validatePostForm(title, description string) (string, string, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title == "" || description == "" {
		return "", "", ErrMissingFields
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return "", "", ErrTitleTooLong
	}
	if utf8.RuneCountInString(description) > models.MaxDescriptionLength {
		return "", "", ErrDescriptionTooLong
	}
	return title, description, nil
}
