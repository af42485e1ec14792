// Package imageprep turns a user-selected image into the small JPEG that gets uploaded
// with a post: validate, decode, scale to 120px on the long side, re-encode.
package imageprep

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/ids"
	"github.com/ericrosedev/findavote/internal/media/sniffer"
)

const (
	MaxFileBytes = 200 * 1024
	MaxDimension = 120
	// MaxPixels caps the decoded canvas; a 200KB file can still declare a huge one.
	MaxPixels = 4096 * 4096
	// JPEGQuality is 0.8 on the 0-1 scale browsers use.
	JPEGQuality = 80
	OutputMIME  = "image/jpeg"
)

var (
	ErrImageTooLarge    = fmt.Errorf("image must be smaller than 200KB: %w", apperr.ErrValidation)
	ErrInvalidImageType = fmt.Errorf("please select an image file: %w", apperr.ErrValidation)
	ErrUnsupportedImage = fmt.Errorf("image format cannot be processed: %w", apperr.ErrValidation)
)

// File is an image as selected by the user, before any processing.
type File struct {
	Name        string
	ContentType string
	// Size is the declared size. When zero, len(Data) is used.
	Size int64
	Data []byte
}

func (f File) size() int64 {
	if f.Size > int64(len(f.Data)) {
		return f.Size
	}
	return int64(len(f.Data))
}

type Result struct {
	Name   string
	MIME   string
	Data   []byte
	Width  int
	Height int
}

type Preprocessor struct {
	newName func() string
}

func New() *Preprocessor {
	return &Preprocessor{
		newName: func() string {
			return fmt.Sprintf("post-%s.jpg", ids.New())
		},
	}
}

// Validate checks size first, then the declared type. It never looks at the pixels.
func Validate(f File) error {
	if f.size() > MaxFileBytes {
		return ErrImageTooLarge
	}
	if !strings.HasPrefix(sniffer.MediaCategory(f.ContentType), "image/") {
		return ErrInvalidImageType
	}
	return nil
}

// TargetSize scales (w, h) so the longer side is MaxDimension and the shorter side keeps
// the aspect ratio, rounded to the nearest pixel and never below 1.
func TargetSize(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := func(short, long int) int {
		v := int(math.Round(float64(short) * MaxDimension / float64(long)))
		if v < 1 {
			v = 1
		}
		return v
	}
	if w >= h {
		return MaxDimension, scale(h, w)
	}
	return scale(w, h), MaxDimension
}

// Process validates f and produces the encoded upload. It has no side effects besides
// the encoding itself; ctx is checked between the decode, resize and encode steps.
func (p *Preprocessor) Process(ctx context.Context, f File) (Result, error) {
	if err := Validate(f); err != nil {
		return Result{}, err
	}

	head := f.Data
	if len(head) > 512 {
		head = head[:512]
	}
	detected, err := sniffer.DetectHead(head)
	if err != nil || !detected.Raster() {
		return Result{}, ErrUnsupportedImage
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		return Result{}, fmt.Errorf("decode %s header: %v: %w", detected.Type, err, ErrUnsupportedImage)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return Result{}, fmt.Errorf("%dx%d exceeds pixel limit: %w", cfg.Width, cfg.Height, ErrUnsupportedImage)
	}

	src, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return Result{}, fmt.Errorf("decode %s: %v: %w", detected.Type, err, ErrUnsupportedImage)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	bounds := src.Bounds()
	width, height := TargetSize(bounds.Dx(), bounds.Dy())
	if width == 0 {
		return Result{}, ErrUnsupportedImage
	}

	// JPEG has no alpha channel, so transparent areas are flattened onto white.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return Result{}, fmt.Errorf("encode jpeg: %w", err)
	}

	return Result{
		Name:   p.newName(),
		MIME:   OutputMIME,
		Data:   buf.Bytes(),
		Width:  width,
		Height: height,
	}, nil
}
