package sniffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectHead(t *testing.T) {
	cases := []struct {
		name   string
		head   []byte
		want   MediaType
		raster bool
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}, TypeJPEG, true},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0}, TypePNG, true},
		{"gif", []byte("GIF89a......"), TypeGIF, true},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), TypeWEBP, true},
		{"bmp", []byte("BM\x00\x00\x00\x00\x00\x00\x00\x00\x36\x00\x00\x00"), TypeBMP, true},
		{"avif", []byte("\x00\x00\x00\x1cftypavif\x00\x00\x00\x00"), TypeAVIF, false},
		{"svg", []byte("  <svg xmlns=\"http://www.w3.org/2000/svg\"/>"), TypeSVG, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectHead(tc.head)
			require.NoError(t, err)
			require.Equal(t, tc.want, got.Type)
			require.Equal(t, tc.raster, got.Raster())
		})
	}
}

func TestDetectHead_Unknown(t *testing.T) {
	_, err := DetectHead(nil)
	require.ErrorIs(t, err, ErrUnknownType)

	_, err = DetectHead([]byte("plain text"))
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestMediaCategory(t *testing.T) {
	require.Equal(t, "image/png", MediaCategory("Image/PNG; charset=binary"))
	require.Equal(t, "", MediaCategory(""))
}
