// Package fields recovers structured identity fields from raw OCR text.
// Each field has a fixed, ordered list of candidate patterns tried in
// priority order; the first pattern producing a non-empty capture wins.
// Absence of a match is a valid outcome, never an error.
package fields

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ExtractionResult holds the fields recovered from one document. Empty
// strings mean the field was not detected; all fields are best-effort.
type ExtractionResult struct {
	RawText   string `json:"raw_text"`
	Name      string `json:"extracted_name,omitempty"`
	Roll      string `json:"extracted_roll,omitempty"`
	CollegeID string `json:"extracted_college_id,omitempty"`
}

// candidate is one pattern in a field's priority list. The pattern's first
// capture group is the field value; post cleans up the raw capture.
type candidate struct {
	label string
	re    *regexp.Regexp
	post  func(string) string
}

// match runs the candidate list against text, first-match-wins.
func match(text string, candidates []candidate) string {
	for _, c := range candidates {
		m := c.re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		val := strings.TrimSpace(m[1])
		if c.post != nil {
			val = c.post(val)
		}
		if val != "" {
			return val
		}
	}
	return ""
}

// labelStopWords terminate a captured name sequence: OCR text runs labels
// together on one line, so a greedy capitalized-word capture would
// otherwise swallow the next label.
var labelStopWords = map[string]bool{
	"Roll": true, "No": true, "Registration": true, "Enrollment": true,
	"Id": true, "ID": true, "College": true, "Student": true, "Card": true,
	"Dob": true, "DOB": true, "Date": true,
}

// trimAtLabel cuts a captured word sequence at the first label token.
func trimAtLabel(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if labelStopWords[w] {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}

var (
	// Name candidates: label tokens followed by a capitalized-word
	// sequence. Labels match case-insensitively; the value must be
	// capitalized words. Most specific labels first.
	nameCandidates = []candidate{
		{
			label: "student name",
			re:    regexp.MustCompile(`(?i:student\s+name)\s*[:\-]?\s*([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*)`),
			post:  trimAtLabel,
		},
		{
			label: "full name",
			re:    regexp.MustCompile(`(?i:full\s+name)\s*[:\-]?\s*([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*)`),
			post:  trimAtLabel,
		},
		{
			label: "name",
			re:    regexp.MustCompile(`(?i:name)\s*[:\-]?\s*([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*)`),
			post:  trimAtLabel,
		},
	}

	// Roll tier 1: a bare digit run of exactly 15 digits beginning with
	// "20". Tried against newline-preserved text because roll numbers
	// embed in noisy output without reliable labels, but have a
	// recognizable fixed-width shape.
	rollExact = regexp.MustCompile(`(?:^|\D)(20\d{13})(?:\D|$)`)

	// Roll tier 2: generic labeled-number fallback on collapsed text.
	rollCandidates = []candidate{
		{
			label: "roll no",
			re:    regexp.MustCompile(`(?i:roll\s*no\.?)\s*[:\-]?\s*(\d{10,15})`),
		},
		{
			label: "registration no",
			re:    regexp.MustCompile(`(?i:registration\s*no\.?)\s*[:\-]?\s*(\d{10,15})`),
		},
		{
			label: "enrollment no",
			re:    regexp.MustCompile(`(?i:enrollment\s*no\.?)\s*[:\-]?\s*(\d{10,15})`),
		},
	}

	// College ID candidates: labeled alphanumeric codes, upper-cased on
	// capture. The bare "ID" label goes last.
	collegeIDCandidates = []candidate{
		{
			label: "college id",
			re:    regexp.MustCompile(`(?i:college\s*id)\s*[:\-]?\s*([A-Za-z0-9][A-Za-z0-9/\-]*)`),
			post:  strings.ToUpper,
		},
		{
			label: "student id",
			re:    regexp.MustCompile(`(?i:student\s*id)\s*[:\-]?\s*([A-Za-z0-9][A-Za-z0-9/\-]*)`),
			post:  strings.ToUpper,
		},
		{
			label: "card no",
			re:    regexp.MustCompile(`(?i:card\s*no\.?)\s*[:\-]?\s*([A-Za-z0-9][A-Za-z0-9/\-]*)`),
			post:  strings.ToUpper,
		},
		{
			label: "id",
			re:    regexp.MustCompile(`(?i:\bid)\s*[:\-]\s*([A-Za-z0-9][A-Za-z0-9/\-]*)`),
			post:  strings.ToUpper,
		},
	}
)

// Parse extracts all three fields from raw OCR text. Field extractions are
// independent; a miss on one never blocks the others.
func Parse(rawText string) ExtractionResult {
	res := ExtractionResult{RawText: rawText}
	if strings.TrimSpace(rawText) == "" {
		return res
	}

	// OCR engines emit inconsistent unicode forms; fold before matching.
	folded := norm.NFKC.String(rawText)
	collapsed := collapseWhitespace(folded)

	res.Name = match(collapsed, nameCandidates)
	res.Roll = parseRoll(folded, collapsed)
	res.CollegeID = match(collapsed, collegeIDCandidates)
	return res
}

// parseRoll applies the two-tier roll strategy: the precise 15-digit
// pattern on newline-preserved text first, labeled fallbacks second.
func parseRoll(preserved, collapsed string) string {
	if m := rollExact.FindStringSubmatch(preserved); len(m) >= 2 {
		return m[1]
	}
	return match(collapsed, rollCandidates)
}

// collapseWhitespace folds all whitespace runs (including newlines) into
// single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
