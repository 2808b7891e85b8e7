// Package emailgen synthesizes institutional email addresses for approved
// requests. An address is the student's first name plus the last two
// digits of the extracted roll number; on collision a numeric suffix is
// appended.
package emailgen

import (
	"errors"
	"fmt"
	"strings"
)

// TakenFunc reports whether an address is already issued. The account
// system supplies it.
type TakenFunc func(address string) bool

// Generator builds addresses under a fixed domain.
type Generator struct {
	Domain string
}

// New creates a Generator for the given domain.
func New(domain string) *Generator {
	return &Generator{Domain: domain}
}

// Generate synthesizes an address from the declared name and extracted
// roll number. Issuance is gated on an approved request with a non-empty
// roll, so both inputs are required here.
func (g *Generator) Generate(declaredName, extractedRoll string, taken TakenFunc) (string, error) {
	first := firstName(declaredName)
	if first == "" {
		return "", errors.New("declared name has no usable first name")
	}
	if len(extractedRoll) < 2 {
		return "", errors.New("extracted roll too short")
	}
	base := first + extractedRoll[len(extractedRoll)-2:]

	addr := fmt.Sprintf("%s@%s", base, g.Domain)
	if taken == nil || !taken(addr) {
		return addr, nil
	}
	for i := 1; i < 1000; i++ {
		addr = fmt.Sprintf("%s%d@%s", base, i, g.Domain)
		if !taken(addr) {
			return addr, nil
		}
	}
	return "", fmt.Errorf("no free address for %s", base)
}

// firstName lower-cases the first word of a name and strips anything that
// is not a letter or digit.
func firstName(name string) string {
	words := strings.Fields(strings.TrimSpace(name))
	if len(words) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(words[0]) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
