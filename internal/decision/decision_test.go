package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideExactMatch(t *testing.T) {
	out := Decide("Jane Smith", "202310101110069", Profile{
		DeclaredName:  "Jane Smith",
		DeclaredEmail: "jane202310101110069@college.edu",
	})

	assert.Equal(t, LikelyApprove, out.Category)
	assert.InDelta(t, 1.0, out.ConfidenceScore, 1e-9)
	assert.InDelta(t, 1.0, out.NameMatchScore, 1e-9)
	assert.InDelta(t, 1.0, out.RollMatchScore, 1e-9)
}

func TestDecideNoFieldsExtracted(t *testing.T) {
	// Name absent scores 0.0, roll absent scores a neutral 0.5:
	// 0.0*0.6 + 0.5*0.4 = 0.20.
	out := Decide("", "", Profile{
		DeclaredName:  "Jane Smith",
		DeclaredEmail: "jane202310101110069@college.edu",
	})

	assert.Equal(t, FlagSuspicious, out.Category)
	assert.InDelta(t, 0.20, out.ConfidenceScore, 1e-9)
	assert.InDelta(t, 0.0, out.NameMatchScore, 1e-9)
	assert.InDelta(t, 0.5, out.RollMatchScore, 1e-9)
}

func TestNameMatch(t *testing.T) {
	tests := []struct {
		name      string
		extracted string
		declared  string
		want      float64
	}{
		{"exact", "Jane Smith", "Jane Smith", 1.0},
		{"case and whitespace insensitive", "  jane SMITH ", "Jane Smith", 1.0},
		{"one substitution", "Jane Smyth", "Jane Smith", 0.9},
		{"extracted empty", "", "Jane Smith", 0.0},
		{"declared empty", "Jane Smith", "", 0.0},
		{"both empty", "", "", 0.0},
		{"completely different", "XXXXXXXXXX", "Jane Smith", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nameMatch(tt.extracted, tt.declared)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRollMatchTiers(t *testing.T) {
	tests := []struct {
		name      string
		extracted string
		email     string
		want      float64
	}{
		{"absent roll is neutral", "", "jane202310101110069@college.edu", 0.5},
		{"no usable local part", "202310101110069", "", 0.5},
		{"at-sign first is no local part", "202310101110069", "@college.edu", 0.5},
		{"embedded roll exact match", "202310101110069", "jane202310101110069@college.edu", 1.0},
		{"embedded roll mismatch", "202310101110070", "jane202310101110069@college.edu", 0.0},
		{"containment without embedded roll", "1234567890", "jane1234567890@college.edu", 0.7},
		{"reverse containment", "1234567890", "345678@college.edu", 0.7},
		{"no containment", "1234567890", "janesmith@college.edu", 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rollMatch(tt.extracted, tt.email)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		confidence float64
		want       Category
	}{
		{1.0, LikelyApprove},
		{0.90, LikelyApprove},
		{0.8999, ReviewManually},
		{0.70, ReviewManually},
		{0.6999, FlagSuspicious},
		{0.0, FlagSuspicious},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.confidence), "confidence %v", tt.confidence)
	}
}

func TestDecideWeightsAndRounding(t *testing.T) {
	// "Jon" vs "John": distance 1 over max length 4 -> 0.75 name score.
	// Roll absent -> 0.5. Confidence = 0.75*0.6 + 0.5*0.4 = 0.65.
	out := Decide("Jon", "", Profile{
		DeclaredName:  "John",
		DeclaredEmail: "john@college.edu",
	})

	assert.InDelta(t, 0.75, out.NameMatchScore, 1e-9)
	assert.InDelta(t, 0.65, out.ConfidenceScore, 1e-9)
	assert.Equal(t, FlagSuspicious, out.Category)
}

func TestDecideNearMissName(t *testing.T) {
	// One OCR substitution in the name with a confirmed roll stays above
	// the approval threshold: 0.9*0.6 + 1.0*0.4 = 0.94.
	out := Decide("Jane Smyth", "202310101110069", Profile{
		DeclaredName:  "Jane Smith",
		DeclaredEmail: "jane202310101110069@college.edu",
	})

	assert.Equal(t, LikelyApprove, out.Category)
	assert.InDelta(t, 0.94, out.ConfidenceScore, 1e-9)
}

func TestDecideRollContradiction(t *testing.T) {
	// A perfect name cannot outweigh a contradicted embedded roll:
	// 1.0*0.6 + 0.0*0.4 = 0.60 falls below the review threshold.
	out := Decide("Jane Smith", "202399999999999", Profile{
		DeclaredName:  "Jane Smith",
		DeclaredEmail: "jane202310101110069@college.edu",
	})

	assert.InDelta(t, 0.60, out.ConfidenceScore, 1e-9)
	assert.Equal(t, FlagSuspicious, out.Category)
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"héllo", "hello", 1}, // rune-wise, not byte-wise
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestRound2(t *testing.T) {
	require.InDelta(t, 0.94, round2(0.9400000000000001), 1e-12)
	require.InDelta(t, 0.67, round2(0.665), 1e-12)
	require.InDelta(t, 0.0, round2(0.004), 1e-12)
}
