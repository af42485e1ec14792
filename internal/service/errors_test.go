package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/identity"
	"github.com/ericrosedev/findavote/internal/media/imageprep"
	"github.com/ericrosedev/findavote/internal/query"
)

func TestMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{query.ErrMutationPending, msgSubmitPending},
		{fmt.Errorf("update: %w", apperr.ErrPartialUpdate), msgPartialUpdate},
		{apperr.ErrAlreadyHasPost, msgAlreadyHasPost},
		{ErrNotAdmin, msgNotAdmin},
		{identity.ErrInvalidCredentials, msgBadCredentials},
		{apperr.ErrUnauthorized, msgAuthRequired},
		{ErrTitleTooLong, msgTitleTooLong},
		{imageprep.ErrImageTooLarge, msgImageTooLarge},
		{fmt.Errorf("bad page: %w", apperr.ErrValidation), msgInvalidRequest},
		{fmt.Errorf("dial: %w", apperr.ErrTransient), msgUnavailable},
		{errors.New("boom"), msgInternal},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Message(tc.err), tc.err.Error())
	}
}
