// Package testutil generates synthetic ID card images for tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// IDCardConfig holds the identity lines rendered onto a synthetic card.
type IDCardConfig struct {
	Name      string
	Roll      string
	CollegeID string
	Width     int
	Height    int
}

// DefaultIDCardConfig returns a plausible student card.
func DefaultIDCardConfig() IDCardConfig {
	return IDCardConfig{
		Name:      "Jane Smith",
		Roll:      "202310101110069",
		CollegeID: "CLG-4471",
		Width:     640,
		Height:    400,
	}
}

// GenerateIDCard renders the card's labeled identity lines onto a white
// background, one field per line, the way real card scans read after
// normalization.
func GenerateIDCard(cfg IDCardConfig) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{color.Black},
		Face: basicfont.Face7x13,
	}

	lines := []string{
		"Student Name: " + cfg.Name,
		"Roll No: " + cfg.Roll,
		"College ID: " + cfg.CollegeID,
	}
	lineHeight := basicfont.Face7x13.Metrics().Height.Ceil() + 8
	y := cfg.Height/2 - lineHeight
	for _, line := range lines {
		drawer.Dot = fixed.P(40, y)
		drawer.DrawString(line)
		y += lineHeight
	}
	return img
}

// EncodePNG encodes an image as PNG bytes.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// EncodeJPEG encodes an image as JPEG bytes.
func EncodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

// SolidImage returns a uniform image of the given size and color.
func SolidImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}
