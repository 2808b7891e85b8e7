package engine

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// Charset maps CTC output indices to characters. Index 0 is the blank
// token; dictionary entries start at index 1.
type Charset struct {
	tokens []string
}

// LoadCharset reads a dictionary file with one character per line.
func LoadCharset(path string) (*Charset, error) {
	if path == "" {
		return nil, errors.New("dictionary path cannot be empty")
	}
	f, err := os.Open(path) //nolint:gosec // G304: Opening user-provided dictionary file is expected
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	tokens := make([]string, 0, 512)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading dictionary: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("dictionary is empty: %s", path)
	}
	return &Charset{tokens: tokens}, nil
}

// Size returns the number of dictionary entries (excluding the blank).
func (c *Charset) Size() int { return len(c.tokens) }

// Decode maps a collapsed CTC index to its character. Index 0 (blank) and
// out-of-range indices decode to the empty string.
func (c *Charset) Decode(idx int) string {
	if idx <= 0 || idx > len(c.tokens) {
		return ""
	}
	return c.tokens[idx-1]
}
