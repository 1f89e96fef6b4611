// Package hexscan rewrites hex color literals in text using an ordered
// mapping table. Four layered pattern rules cover bare, 0x-prefixed, and
// alpha-prefixed literals.
package hexscan

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/walteh/recolor/pkg/mapping"
	"gitlab.com/tozd/go/errors"
)

// rule is a single pattern + replacement-template pair. Rules are matched
// and rewritten independently against the current text state, so the rule
// ordering and the alpha-preservation behavior stay explicit and testable.
type rule struct {
	pattern  *regexp.Regexp
	template string
}

func (r rule) apply(text string) (string, int) {
	n := len(r.pattern.FindAllStringIndex(text, -1))
	if n == 0 {
		return text, 0
	}
	return r.pattern.ReplaceAllString(text, r.template), n
}

// rulesFor builds the four substitution rules for one mapping, in the fixed
// order they must run:
//  1. #RRGGBB    -> #NEW
//  2. 0xRRGGBB   -> 0xNEW
//  3. #AARRGGBB  -> #AANEW  (alpha digits preserved verbatim)
//  4. 0xAARRGGBB -> 0xAANEW
//
// Matching is case-insensitive on hex digits; output is always the uppercase
// NEW stored in the mapping.
func rulesFor(m mapping.Mapping) [4]rule {
	oldHex := m.OldHex
	newHex := m.NewHex
	return [4]rule{
		{regexp.MustCompile(`(?i)#(` + oldHex + `)`), "#" + newHex},
		{regexp.MustCompile(`(?i)0x(` + oldHex + `)`), "0x" + newHex},
		{regexp.MustCompile(`(?i)#([0-9A-F]{2})(` + oldHex + `)`), "#${1}" + newHex},
		{regexp.MustCompile(`(?i)0x([0-9A-F]{2})(` + oldHex + `)`), "0x${1}" + newHex},
	}
}

// Result contains the outcome of a text replacement pass.
type Result struct {
	// WasModified indicates if any replacements were made
	WasModified bool

	// ReplacementCount is the total number of pattern matches rewritten
	ReplacementCount int

	// OriginalContent is the content before replacements
	OriginalContent []byte

	// ModifiedContent is the content after replacements
	ModifiedContent []byte
}

// Replacer applies a mapping table to text. Rules are compiled once at
// construction and the Replacer is safe for reuse across files.
type Replacer struct {
	rules [][4]rule
}

// New compiles the four rules for every mapping in table order.
func New(table mapping.Table) *Replacer {
	r := &Replacer{rules: make([][4]rule, 0, len(table))}
	for _, m := range table {
		r.rules = append(r.rules, rulesFor(m))
	}
	return r
}

// ReplaceString applies every mapping, in table order, to text. For each
// mapping the four rules run in their fixed order against the running text.
// The returned count is the sum of all rule match counts. A later mapping may
// match text emitted by an earlier one when A.new equals B.old; that chaining
// is accepted behavior, not a defect.
func (r *Replacer) ReplaceString(text string) (string, int) {
	total := 0
	for _, rules := range r.rules {
		for _, rl := range rules {
			var n int
			text, n = rl.apply(text)
			total += n
		}
	}
	return text, total
}

// ReplaceText reads all content and applies the table. Invalid UTF-8 is
// tolerated: offending bytes are replaced before scanning, matching the
// best-effort decoding the adapter promises for text files.
func (r *Replacer) ReplaceText(ctx context.Context, content io.Reader) (*Result, error) {
	originalContent, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}

	text := strings.ToValidUTF8(string(originalContent), "�")
	modified, count := r.ReplaceString(text)

	return &Result{
		WasModified:      count > 0,
		ReplacementCount: count,
		OriginalContent:  originalContent,
		ModifiedContent:  []byte(modified),
	}, nil
}
