package normalize

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collegemail/idverify/internal/testutil"
)

func TestApplyProducesBinaryOutput(t *testing.T) {
	img := testutil.GenerateIDCard(testutil.DefaultIDCardConfig())

	out, err := New(DefaultConfig()).Apply(img)
	require.NoError(t, err)

	for _, p := range out.Pix {
		if p != 0 && p != 255 {
			t.Fatalf("non-binary pixel value %d after normalization", p)
		}
	}
}

func TestApplyIsDeterministic(t *testing.T) {
	img := testutil.GenerateIDCard(testutil.DefaultIDCardConfig())
	n := New(DefaultConfig())

	first, err := n.Apply(img)
	require.NoError(t, err)
	second, err := n.Apply(img)
	require.NoError(t, err)

	assert.Equal(t, first.Pix, second.Pix)
}

func TestApplyBytesIsDeterministic(t *testing.T) {
	data := testutil.EncodePNG(t, testutil.GenerateIDCard(testutil.DefaultIDCardConfig()))
	n := New(DefaultConfig())

	first, err := n.ApplyBytes(data)
	require.NoError(t, err)
	second, err := n.ApplyBytes(data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestApplyNeverUpscales(t *testing.T) {
	small := testutil.SolidImage(100, 80, color.White)

	out, err := New(DefaultConfig()).Apply(small)
	require.NoError(t, err)

	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 80, out.Bounds().Dy())
}

func TestApplyDownscalesOversizedImages(t *testing.T) {
	big := testutil.SolidImage(4000, 3000, color.White)

	out, err := New(DefaultConfig()).Apply(big)
	require.NoError(t, err)

	assert.Equal(t, 2000, out.Bounds().Dx())
	assert.Equal(t, 1500, out.Bounds().Dy())
}

func TestApplyPreservesTextContrast(t *testing.T) {
	// Dark text on a light background must binarize to black on white,
	// not wash out to a uniform field.
	img := testutil.GenerateIDCard(testutil.DefaultIDCardConfig())

	out, err := New(DefaultConfig()).Apply(img)
	require.NoError(t, err)

	var black, white int
	for _, p := range out.Pix {
		if p == 0 {
			black++
		} else {
			white++
		}
	}
	assert.Positive(t, black, "text pixels should survive binarization")
	assert.Positive(t, white, "background pixels should survive binarization")
	assert.Greater(t, white, black, "background should dominate a card scan")
}

func TestApplyRejectsInvalidInput(t *testing.T) {
	n := New(DefaultConfig())

	_, err := n.Apply(nil)
	require.Error(t, err)
	var perr *PreprocessingError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "resize", perr.Operation)

	_, err = n.Apply(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	require.Error(t, err)
}

func TestApplyBytesRejectsGarbage(t *testing.T) {
	_, err := New(DefaultConfig()).ApplyBytes([]byte("not an image"))

	var perr *PreprocessingError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "decode", perr.Operation)
}

func TestStretchHistogramFullRange(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.Pix[0] = 100
	img.Pix[1] = 150

	stretchHistogram(img)

	assert.Equal(t, uint8(0), img.Pix[0])
	assert.Equal(t, uint8(255), img.Pix[1])
}

func TestStretchHistogramFlatImageUntouched(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 77
	}

	stretchHistogram(img)

	for _, p := range img.Pix {
		assert.Equal(t, uint8(77), p)
	}
}
