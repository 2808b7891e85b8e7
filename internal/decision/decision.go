// Package decision compares extracted identity fields against a student's
// registered profile and classifies the result. It never fails: missing
// inputs degrade to neutral or zero scores instead of errors.
package decision

import (
	"math"
	"regexp"
	"strings"
)

// Category is the categorical verification outcome.
type Category string

const (
	LikelyApprove  Category = "LIKELY_APPROVE"
	ReviewManually Category = "REVIEW_MANUALLY"
	FlagSuspicious Category = "FLAG_SUSPICIOUS"
)

// Classification thresholds (inclusive lower bounds) and score weights.
// Fixed policy constants, not runtime-configurable.
const (
	approveThreshold = 0.90
	reviewThreshold  = 0.70
	nameWeight       = 0.6
	rollWeight       = 0.4
)

// Profile is the requester's known-good reference, supplied by the account
// system and read-only here.
type Profile struct {
	DeclaredName  string `json:"declared_name"`
	DeclaredEmail string `json:"declared_email"`
}

// Outcome is the immutable result of scoring one extraction against one
// profile.
type Outcome struct {
	Category        Category `json:"category"`
	ConfidenceScore float64  `json:"confidence_score"`
	NameMatchScore  float64  `json:"name_match_score"`
	RollMatchScore  float64  `json:"roll_match_score"`
}

// emailRoll finds a 15-digit roll number beginning with "20" embedded in
// an email local part.
var emailRoll = regexp.MustCompile(`20\d{13}`)

// Decide computes the weighted confidence score and category for the
// extracted name and roll (empty string = not detected) against the
// profile.
func Decide(extractedName, extractedRoll string, profile Profile) Outcome {
	nameScore := nameMatch(extractedName, profile.DeclaredName)
	rollScore := rollMatch(extractedRoll, profile.DeclaredEmail)

	confidence := round2(nameScore*nameWeight + rollScore*rollWeight)

	return Outcome{
		Category:        classify(confidence),
		ConfidenceScore: confidence,
		NameMatchScore:  nameScore,
		RollMatchScore:  rollScore,
	}
}

// nameMatch computes a normalized edit-distance similarity over
// lower-cased, trimmed names. Name absence is a real penalty (0.0), unlike
// roll absence: the name is the primary matchable signal, the roll a
// secondary, often-undetected one.
func nameMatch(extracted, declared string) float64 {
	a := strings.ToLower(strings.TrimSpace(extracted))
	b := strings.ToLower(strings.TrimSpace(declared))
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	d := levenshtein(a, b)
	return float64(maxLen-d) / float64(maxLen)
}

// rollMatch applies the tiered roll comparison:
//  1. no roll extracted: 0.5 (neutral, "we couldn't read it")
//  2. email local part carries an embedded 15-digit roll: exact equality
//     decides 1.0 / 0.0
//  3. no embedded roll: substring containment between extracted roll and
//     local part decides 0.7 / 0.3
func rollMatch(extracted, declaredEmail string) float64 {
	if extracted == "" {
		return 0.5
	}
	local := emailLocalPart(declaredEmail)
	if local == "" {
		return 0.5
	}
	if embedded := emailRoll.FindString(local); embedded != "" {
		if embedded == extracted {
			return 1.0
		}
		return 0.0
	}
	if strings.Contains(local, extracted) || strings.Contains(extracted, local) {
		return 0.7
	}
	return 0.3
}

// classify maps a confidence score onto the category bands.
func classify(confidence float64) Category {
	switch {
	case confidence >= approveThreshold:
		return LikelyApprove
	case confidence >= reviewThreshold:
		return ReviewManually
	default:
		return FlagSuspicious
	}
}

// emailLocalPart returns the part of an address before '@', lower-cased.
func emailLocalPart(email string) string {
	email = strings.TrimSpace(email)
	idx := strings.Index(email, "@")
	if idx <= 0 {
		return ""
	}
	return strings.ToLower(email[:idx])
}

// levenshtein computes the edit distance between two strings by runes.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func minInt(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
