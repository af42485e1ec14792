package service

import (
	"errors"
	"fmt"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/identity"
	"github.com/ericrosedev/findavote/internal/media/imageprep"
	"github.com/ericrosedev/findavote/internal/query"
)

var (
	ErrMissingFields        = fmt.Errorf("please fill in all required fields: %w", apperr.ErrValidation)
	ErrTitleTooLong         = fmt.Errorf("title must be 100 characters or less: %w", apperr.ErrValidation)
	ErrDescriptionTooLong   = fmt.Errorf("description must be 1000 characters or less: %w", apperr.ErrValidation)
	ErrConfirmationRequired = fmt.Errorf("confirmation required: %w", apperr.ErrValidation)
	ErrNotAdmin             = fmt.Errorf("admin privileges required: %w", apperr.ErrUnauthorized)
	ErrNoPost               = fmt.Errorf("no post to edit: %w", apperr.ErrValidation)
	ErrProfileNameRequired  = fmt.Errorf("please enter your name: %w", apperr.ErrValidation)
)

const (
	msgPostCreated      = "Post created successfully!"
	msgPostUpdated      = "Post updated successfully!"
	msgPostDeleted      = "Post deleted successfully!"
	msgAlreadyHasPost   = "You already have a post. Please delete your existing post before creating a new one."
	msgAuthRequired     = "Authentication required. Please log in to create or edit posts."
	msgPartialUpdate    = "Your previous post was removed but the updated version could not be saved. Please create it again."
	msgDeleteFailed     = "Failed to delete post. Please try again."
	msgSubmitPending    = "Your previous submission is still in progress."
	msgConfirmDelete    = "Please confirm that you want to delete this post."
	msgMissingFields    = "Please fill in all required fields"
	msgTitleTooLong     = "Title must be 100 characters or less"
	msgDescTooLong      = "Description must be 1000 characters or less"
	msgImageTooLarge    = "Image must be smaller than 200KB"
	msgImageInvalidType = "Please select an image file"
	msgImageUnsupported = "This image could not be processed. Please choose another file."
	msgNoPost           = "You don't have a post yet."
	msgNameRequired     = "Please enter your name."
	msgNotAdmin         = "Access denied. You need admin privileges to view this page."
	msgBadCredentials   = "Invalid email or password."
	msgStale            = "Your session changed while loading. Please refresh."
	msgInvalidRequest   = "The request could not be understood."
	msgUnavailable      = "The service is temporarily unavailable. Please try again."
	msgInternal         = "Something went wrong. Please try again."
)

// validationMessage maps the validation sentinels to the text shown to the user.
func validationMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrMissingFields):
		return msgMissingFields, true
	case errors.Is(err, ErrTitleTooLong):
		return msgTitleTooLong, true
	case errors.Is(err, ErrDescriptionTooLong):
		return msgDescTooLong, true
	case errors.Is(err, imageprep.ErrImageTooLarge):
		return msgImageTooLarge, true
	case errors.Is(err, imageprep.ErrInvalidImageType):
		return msgImageInvalidType, true
	case errors.Is(err, imageprep.ErrUnsupportedImage):
		return msgImageUnsupported, true
	case errors.Is(err, ErrConfirmationRequired):
		return msgConfirmDelete, true
	case errors.Is(err, ErrNoPost):
		return msgNoPost, true
	case errors.Is(err, ErrProfileNameRequired):
		return msgNameRequired, true
	}
	return "", false
}

// Message is the text shown to the user for err.
func Message(err error) string {
	switch {
	case errors.Is(err, query.ErrMutationPending):
		return msgSubmitPending
	case errors.Is(err, query.ErrStale):
		return msgStale
	case errors.Is(err, apperr.ErrPartialUpdate):
		return msgPartialUpdate
	case errors.Is(err, apperr.ErrAlreadyHasPost):
		return msgAlreadyHasPost
	case errors.Is(err, ErrNotAdmin):
		return msgNotAdmin
	case errors.Is(err, identity.ErrInvalidCredentials):
		return msgBadCredentials
	case errors.Is(err, apperr.ErrUnauthorized):
		return msgAuthRequired
	}
	if m, ok := validationMessage(err); ok {
		return m
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return msgInvalidRequest
	case apperr.KindTransient:
		return msgUnavailable
	}
	return msgInternal
}
