// Package normalize turns raw ID card photos into clean black-and-white
// bitmaps optimized for text recognition. The chain is fully
// deterministic: the same input buffer always yields the same output
// buffer.
package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// PreprocessingError reports a failure while decoding or transforming an
// uploaded image.
type PreprocessingError struct {
	Operation string
	Err       error
}

func (e *PreprocessingError) Error() string {
	return fmt.Sprintf("preprocessing error in %s: %v", e.Operation, e.Err)
}

func (e *PreprocessingError) Unwrap() error { return e.Err }

// Config holds the normalization constants. These are fixed policy values;
// they are exposed as a struct so tests can pin them.
type Config struct {
	// MaxSide caps the longest image side in pixels. Images are only ever
	// scaled down, never up.
	MaxSide int
	// ContrastSlope is the linear stretch slope applied around Midpoint.
	ContrastSlope float64
	// Midpoint recenters the contrast stretch.
	Midpoint float64
	// SharpenSigma controls the unsharp radius.
	SharpenSigma float64
	// BinarizeThreshold is the fixed global threshold for the final
	// black/white pass.
	BinarizeThreshold uint8
}

// DefaultConfig returns the production normalization constants.
func DefaultConfig() Config {
	return Config{
		MaxSide:           2000,
		ContrastSlope:     1.5,
		Midpoint:          128,
		SharpenSigma:      1.0,
		BinarizeThreshold: 128,
	}
}

// Normalizer applies the preprocessing chain.
type Normalizer struct {
	cfg Config
}

// New creates a Normalizer with the given configuration.
func New(cfg Config) *Normalizer {
	if cfg.MaxSide <= 0 {
		cfg = DefaultConfig()
	}
	return &Normalizer{cfg: cfg}
}

// Apply runs the full chain on a decoded image:
// resize -> grayscale -> histogram stretch -> contrast -> sharpen -> binarize.
func (n *Normalizer) Apply(img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, &PreprocessingError{Operation: "resize", Err: errors.New("input image is nil")}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &PreprocessingError{Operation: "resize", Err: errors.New("invalid image dimensions")}
	}

	resized := n.resize(img)
	gray := toGray(imaging.Grayscale(resized))
	stretchHistogram(gray)
	n.stretchContrast(gray)
	sharpened := toGray(imaging.Sharpen(gray, n.cfg.SharpenSigma))
	n.binarize(sharpened)
	return sharpened, nil
}

// ApplyBytes decodes an image buffer, runs the chain and re-encodes the
// result as PNG, the canonical intermediate format handed to the text
// extractor.
func (n *Normalizer) ApplyBytes(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &PreprocessingError{Operation: "decode", Err: err}
	}
	out, err := n.Apply(img)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, &PreprocessingError{Operation: "encode", Err: err}
	}
	return buf.Bytes(), nil
}

// resize scales the image down so its longest side is at most MaxSide,
// preserving aspect ratio. Smaller images pass through untouched.
func (n *Normalizer) resize(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= n.cfg.MaxSide && h <= n.cfg.MaxSide {
		return img
	}
	return imaging.Fit(img, n.cfg.MaxSide, n.cfg.MaxSide, imaging.Lanczos)
}

// stretchHistogram linearly maps the observed intensity range to the full
// 0-255 range. A flat image (min == max) is left untouched.
func stretchHistogram(img *image.Gray) {
	minV, maxV := uint8(255), uint8(0)
	for _, p := range img.Pix {
		if p < minV {
			minV = p
		}
		if p > maxV {
			maxV = p
		}
	}
	if minV >= maxV {
		return
	}
	scale := 255.0 / float64(maxV-minV)
	for i, p := range img.Pix {
		img.Pix[i] = clamp8(float64(p-minV) * scale)
	}
}

// stretchContrast applies the fixed linear contrast stretch around the
// configured midpoint.
func (n *Normalizer) stretchContrast(img *image.Gray) {
	for i, p := range img.Pix {
		img.Pix[i] = clamp8((float64(p)-n.cfg.Midpoint)*n.cfg.ContrastSlope + n.cfg.Midpoint)
	}
}

// binarize thresholds every pixel against the fixed global threshold.
func (n *Normalizer) binarize(img *image.Gray) {
	th := n.cfg.BinarizeThreshold
	for i, p := range img.Pix {
		if p >= th {
			img.Pix[i] = 255
		} else {
			img.Pix[i] = 0
		}
	}
}

// toGray converts an NRGBA image (imaging's working format) into a
// single-channel grayscale image.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			gray.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return gray
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
