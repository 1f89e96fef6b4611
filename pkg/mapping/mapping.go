// Package mapping parses color map files into an ordered replacement table.
package mapping

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// RGB is an 8-bit-per-channel color triple.
type RGB struct {
	R, G, B uint8
}

// Mapping is a single old→new color pair. Hex forms are uppercase 6-digit
// triples without a leading '#'; the RGB forms are decoded from them at load
// time. A Mapping is immutable once constructed.
type Mapping struct {
	OldHex string
	NewHex string
	OldRGB RGB
	NewRGB RGB
}

// String returns the mapping in map-file display form.
func (m Mapping) String() string {
	return fmt.Sprintf("#%s -> #%s", m.OldHex, m.NewHex)
}

// Table is an ordered list of mappings. Insertion order is significant: for
// pixel replacement the earliest mapping that matches a pixel wins, and for
// text replacement mappings are applied one after another against the running
// content. Duplicate old colors are allowed; later duplicates are simply
// never reached for a given pixel.
type Table []Mapping

// FormatError reports a malformed line in a map file.
type FormatError struct {
	Line   int    // 1-based line number
	Raw    string // the line as read, before any stripping
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid mapping format at line %d (%s): %q", e.Line, e.Reason, e.Raw)
}

// ErrEmptyTable is returned when a map file yields zero mappings.
var ErrEmptyTable = errors.New("no valid mappings found in map file")

var (
	hex6RE            = regexp.MustCompile(`^[0-9A-F]{6}$`)
	trailingCommentRE = regexp.MustCompile(`\s#.*$`)
)

// ParseRGB decodes a validated uppercase 6-hex-digit triple.
func ParseRGB(hex6 string) (RGB, error) {
	if !hex6RE.MatchString(hex6) {
		return RGB{}, errors.Errorf("not a 6-hex-digit color: %q", hex6)
	}
	r, _ := strconv.ParseUint(hex6[0:2], 16, 8)
	g, _ := strconv.ParseUint(hex6[2:4], 16, 8)
	b, _ := strconv.ParseUint(hex6[4:6], 16, 8)
	return RGB{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}

// Load parses a map file from r. Each non-empty, non-comment line must split
// into at least two whitespace-separated tokens, each exactly six hex digits
// (case-insensitive, stored uppercase). A trailing comment introduced by
// whitespace and '#' is stripped before tokenizing. Invalid UTF-8 bytes are
// tolerated and replaced, never fatal.
func Load(r io.Reader) (Table, error) {
	var table Table

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.ToValidUTF8(scanner.Text(), "�")

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		line = strings.TrimSpace(trailingCommentRE.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			return nil, &FormatError{Line: lineNo, Raw: raw, Reason: "need OLDHEX and NEWHEX"}
		}

		oldHex := strings.ToUpper(parts[0])
		newHex := strings.ToUpper(parts[1])

		oldRGB, err := ParseRGB(oldHex)
		if err != nil {
			return nil, &FormatError{Line: lineNo, Raw: raw, Reason: "old color must be 6 hex digits"}
		}
		newRGB, err := ParseRGB(newHex)
		if err != nil {
			return nil, &FormatError{Line: lineNo, Raw: raw, Reason: "new color must be 6 hex digits"}
		}

		table = append(table, Mapping{
			OldHex: oldHex,
			NewHex: newHex,
			OldRGB: oldRGB,
			NewRGB: newRGB,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Errorf("reading map file: %w", err)
	}

	if len(table) == 0 {
		return nil, ErrEmptyTable
	}
	return table, nil
}

// LoadFile loads a map file from disk.
func LoadFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening map file: %w", err)
	}
	defer f.Close()

	table, err := Load(f)
	if err != nil {
		return nil, err
	}
	return table, nil
}
