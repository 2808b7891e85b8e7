package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCleanCard(t *testing.T) {
	text := "Student Name: Jane Smith\nRoll No: 202310101110069\nCollege ID: CLG-4471"

	res := Parse(text)

	assert.Equal(t, text, res.RawText)
	assert.Equal(t, "Jane Smith", res.Name)
	assert.Equal(t, "202310101110069", res.Roll)
	assert.Equal(t, "CLG-4471", res.CollegeID)
}

func TestParseEmptyText(t *testing.T) {
	for _, text := range []string{"", "   \n\t  "} {
		res := Parse(text)
		assert.Empty(t, res.Name)
		assert.Empty(t, res.Roll)
		assert.Empty(t, res.CollegeID)
	}
}

func TestParseNameStopsAtNextLabel(t *testing.T) {
	// Collapsed OCR output often runs the fields together on one line; the
	// capitalized-word capture must not swallow the next label.
	res := Parse("Student Name: Jane Smith Roll No: 1234567890")

	assert.Equal(t, "Jane Smith", res.Name)
	assert.Equal(t, "1234567890", res.Roll)
}

func TestParseNameCandidatePriority(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"student name label", "Student Name: Jane Smith", "Jane Smith"},
		{"full name label", "Full Name: Jane Smith", "Jane Smith"},
		{"bare name label", "Name - Jane Smith", "Jane Smith"},
		{"lowercase label", "student name: Jane Smith", "Jane Smith"},
		{"no label", "Jane Smith 202310101110069", ""},
		{"label without capitalized value", "Student Name: 12345", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text).Name)
		})
	}
}

func TestParseRollPrefersBareFifteenDigitRun(t *testing.T) {
	// The fixed-shape 15-digit run outranks any labeled number.
	res := Parse("Roll No: 1234567890\nSerial 202310101110069 issued")

	assert.Equal(t, "202310101110069", res.Roll)
}

func TestParseRoll(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare run without label", "id card 202310101110069 valid", "202310101110069"},
		{"labeled roll fallback", "Roll No: 1234567890", "1234567890"},
		{"labeled registration fallback", "Registration No. 123456789012", "123456789012"},
		{"labeled enrollment fallback", "Enrollment No: 1234567890123", "1234567890123"},
		{"sixteen digit run is not a roll", "20231010111006912", ""},
		{"wrong prefix is not a bare roll", "192310101110069", ""},
		{"too short labeled number", "Roll No: 123456", ""},
		{"nothing", "no numbers here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text).Roll)
		})
	}
}

func TestParseCollegeID(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"college id label", "College ID: CLG-4471", "CLG-4471"},
		{"upper-cases capture", "college id: clg-4471", "CLG-4471"},
		{"student id label", "Student ID: ab/123", "AB/123"},
		{"card no label", "Card No. X99-01", "X99-01"},
		{"bare id needs separator", "ID: C123", "C123"},
		{"bare id without separator misses", "id card here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text).CollegeID)
		})
	}
}

func TestParseUnicodeFolding(t *testing.T) {
	// Fullwidth digits fold to ASCII under NFKC before matching.
	res := Parse("Roll No: ２０２３１０１０１１１００６９")

	assert.Equal(t, "202310101110069", res.Roll)
}

func TestParseFieldIndependence(t *testing.T) {
	// A miss on one field never blocks the others.
	res := Parse("Roll No: 202310101110069")

	assert.Empty(t, res.Name)
	assert.Equal(t, "202310101110069", res.Roll)
	assert.Empty(t, res.CollegeID)
}

func TestTrimAtLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jane Smith", "Jane Smith"},
		{"Jane Smith Roll", "Jane Smith"},
		{"Jane Smith College ID", "Jane Smith"},
		{"Registration", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, trimAtLabel(tt.in), "input %q", tt.in)
	}
}
