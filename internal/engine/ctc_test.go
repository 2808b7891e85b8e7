package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgmax(t *testing.T) {
	tests := []struct {
		name    string
		in      []float32
		wantIdx int
		wantVal float32
	}{
		{"empty", nil, -1, 0},
		{"single", []float32{0.5}, 0, 0.5},
		{"max in middle", []float32{0.1, 0.8, 0.3}, 1, 0.8},
		{"ties keep first", []float32{0.4, 0.4}, 0, 0.4},
		{"negatives", []float32{-3, -1, -2}, 1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, val := argmax(tt.in)
			assert.Equal(t, tt.wantIdx, idx)
			assert.InDelta(t, tt.wantVal, val, 1e-9)
		})
	}
}

func TestProbOfIndex(t *testing.T) {
	// Already a probability distribution: taken verbatim.
	p := probOfIndex([]float32{0.1, 0.7, 0.2}, 1)
	assert.InDelta(t, 0.7, p, 1e-6)

	// Logits: softmax is applied, uniform logits give uniform probability.
	p = probOfIndex([]float32{2, 2, 2, 2}, 0)
	assert.InDelta(t, 0.25, p, 1e-6)

	// Out-of-range index.
	assert.Zero(t, probOfIndex([]float32{0.5, 0.5}, 7))
	assert.Zero(t, probOfIndex(nil, 0))
}

func TestCTCCollapse(t *testing.T) {
	indices := []int{0, 3, 3, 0, 3, 5, 5, 0, 0, 2}
	probs := []float64{0.9, 0.8, 0.7, 0.9, 0.6, 0.5, 0.4, 0.9, 0.9, 0.3}

	idx, pr := ctcCollapse(indices, probs, 0)

	// Repeats collapse, but a blank between equal indices separates them.
	assert.Equal(t, []int{3, 3, 5, 2}, idx)
	assert.Equal(t, []float64{0.8, 0.6, 0.5, 0.3}, pr)
}

func TestCTCCollapseAllBlank(t *testing.T) {
	idx, pr := ctcCollapse([]int{0, 0, 0}, []float64{1, 1, 1}, 0)
	assert.Empty(t, idx)
	assert.Empty(t, pr)
}

func TestLoadCharset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n\nc\n"), 0o600))

	cs, err := LoadCharset(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cs.Size())
	assert.Equal(t, "", cs.Decode(0), "blank decodes to empty")
	assert.Equal(t, "a", cs.Decode(1))
	assert.Equal(t, "c", cs.Decode(3))
	assert.Equal(t, "", cs.Decode(4), "out of range decodes to empty")
}

func TestLoadCharsetErrors(t *testing.T) {
	_, err := LoadCharset("")
	require.Error(t, err)

	_, err = LoadCharset(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n\n"), 0o600))
	_, err = LoadCharset(empty)
	require.Error(t, err)
}

func TestStaticEngine(t *testing.T) {
	eng := &StaticEngine{Text: "Roll No: 202310101110069", Conf: 0.9}

	res, err := eng.Recognize(nil)
	require.NoError(t, err)

	assert.Equal(t, "Roll No: 202310101110069", res.Text)
	assert.Len(t, res.Tokens, 3)
	assert.Equal(t, 1, eng.Calls)

	require.NoError(t, eng.Close())
	assert.True(t, eng.Closed)
}
