package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/rs/zerolog"

	"github.com/ericrosedev/findavote/internal/media/imageprep"
	"github.com/ericrosedev/findavote/internal/media/sniffer"
	"github.com/ericrosedev/findavote/internal/storage"
)

// UploadService prepares post images and hands them to the file store.
type UploadService struct {
	prep  *imageprep.Preprocessor
	store storage.FileStore
	log   zerolog.Logger
}

func NewUploadService(prep *imageprep.Preprocessor, store storage.FileStore, log zerolog.Logger) *UploadService {
	return &UploadService{
		prep:  prep,
		store: store,
		log:   log,
	}
}

// ReadMultipartImage copies a form file into memory. It reads at most one byte past the
// upload limit so an oversized file is rejected without buffering all of it.
func ReadMultipartImage(file multipart.File, header *multipart.FileHeader) (imageprep.File, error) {
	if file == nil || header == nil {
		return imageprep.File{}, errors.New("invalid file payload")
	}

	data, err := io.ReadAll(io.LimitReader(file, imageprep.MaxFileBytes+1))
	if err != nil {
		return imageprep.File{}, fmt.Errorf("read file: %w", err)
	}

	return imageprep.File{
		Name:        header.Filename,
		ContentType: sniffer.MediaCategory(header.Header.Get("Content-Type")),
		Size:        header.Size,
		Data:        data,
	}, nil
}

// Upload preprocesses f and stores the result, returning the stored path. Preprocessing
// failures leave the store untouched.
func (s *UploadService) Upload(ctx context.Context, f imageprep.File, onProgress storage.ProgressFunc) (string, error) {
	prepared, err := s.prep.Process(ctx, f)
	if err != nil {
		return "", err
	}

	path, err := s.store.UploadFile(ctx, prepared.Name, prepared.MIME, prepared.Data, onProgress)
	if err != nil {
		s.log.Warn().Err(err).Str("name", prepared.Name).Msg("image upload failed")
		return "", fmt.Errorf("upload image: %w", err)
	}

	s.log.Debug().
		Str("path", path).
		Int("width", prepared.Width).
		Int("height", prepared.Height).
		Int("bytes", len(prepared.Data)).
		Msg("image uploaded")
	return path, nil
}

// URL resolves a displayable URL for a stored image. Failures are logged and yield "".
func (s *UploadService) URL(ctx context.Context, path string) string {
	if path == "" {
		return ""
	}
	u, err := s.store.FileURL(ctx, path, 0, imageprep.OutputMIME)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to load image url")
		return ""
	}
	return u
}
