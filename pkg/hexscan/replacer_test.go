package hexscan

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/recolor/pkg/mapping"
)

func mustTable(t *testing.T, lines string) mapping.Table {
	t.Helper()
	table, err := mapping.Load(strings.NewReader(lines))
	require.NoError(t, err)
	return table
}

func TestReplaceString(t *testing.T) {
	tests := []struct {
		name      string
		mapLines  string
		content   string
		want      string
		wantCount int
	}{
		{
			name:      "hash_prefixed",
			mapLines:  "BAC3FF BFD8C0",
			content:   "color: #BAC3FF;",
			want:      "color: #BFD8C0;",
			wantCount: 1,
		},
		{
			name:      "hash_prefixed_lowercase",
			mapLines:  "BAC3FF BFD8C0",
			content:   "color: #bac3ff;",
			want:      "color: #BFD8C0;",
			wantCount: 1,
		},
		{
			name:      "zero_x_prefixed",
			mapLines:  "BAC3FF BFD8C0",
			content:   "val c = 0xBAC3FF",
			want:      "val c = 0xBFD8C0",
			wantCount: 1,
		},
		{
			// An uppercase 0X prefix still matches, but the rewrite always
			// emits the canonical lowercase 0x prefix.
			name:      "zero_x_mixed_case_prefix_canonicalized",
			mapLines:  "BAC3FF BFD8C0",
			content:   "val c = 0Xbac3ff",
			want:      "val c = 0xBFD8C0",
			wantCount: 1,
		},
		{
			name:      "hash_alpha_prefix_preserved",
			mapLines:  "BAC3FF BFD8C0",
			content:   "background: #80BAC3FF;",
			want:      "background: #80BFD8C0;",
			wantCount: 1,
		},
		{
			name:      "zero_x_alpha_prefix_preserved",
			mapLines:  "BAC3FF BFD8C0",
			content:   "const c = 0xCCbac3ff",
			want:      "const c = 0xCCBFD8C0",
			wantCount: 1,
		},
		{
			name:      "alpha_digits_kept_verbatim_lowercase",
			mapLines:  "BAC3FF BFD8C0",
			content:   "#abBAC3FF",
			want:      "#abBFD8C0",
			wantCount: 1,
		},
		{
			name:      "all_four_forms_in_one_pass",
			mapLines:  "BAC3FF BFD8C0",
			content:   "#BAC3FF 0xBAC3FF #12BAC3FF 0x34BAC3FF",
			want:      "#BFD8C0 0xBFD8C0 #12BFD8C0 0x34BFD8C0",
			wantCount: 4,
		},
		{
			name:      "multiple_occurrences_counted_independently",
			mapLines:  "BAC3FF BFD8C0",
			content:   "#BAC3FF #BAC3FF #BAC3FF",
			want:      "#BFD8C0 #BFD8C0 #BFD8C0",
			wantCount: 3,
		},
		{
			name:      "no_match_untouched",
			mapLines:  "BAC3FF BFD8C0",
			content:   "color: #112233; c = 0x445566",
			want:      "color: #112233; c = 0x445566",
			wantCount: 0,
		},
		{
			name:      "bare_hex_without_prefix_untouched",
			mapLines:  "BAC3FF BFD8C0",
			content:   "BAC3FF is not a literal here",
			want:      "BAC3FF is not a literal here",
			wantCount: 0,
		},
		{
			name:      "two_mappings_applied_in_order",
			mapLines:  "BAC3FF BFD8C0\n0C1649 050A07",
			content:   "a: #BAC3FF; b: #0C1649;",
			want:      "a: #BFD8C0; b: #050A07;",
			wantCount: 2,
		},
		{
			name:      "chaining_across_mappings_is_accepted",
			mapLines:  "111111 222222\n222222 333333",
			content:   "#111111 #222222",
			want:      "#333333 #333333",
			wantCount: 3, // first mapping rewrites #111111, second rewrites both resulting #222222
		},
		{
			name:      "surrounding_text_untouched",
			mapLines:  "BAC3FF BFD8C0",
			content:   `<rect fill="#bac3ff" stroke="#000000"/>`,
			want:      `<rect fill="#BFD8C0" stroke="#000000"/>`,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(mustTable(t, tt.mapLines))
			got, count := r.ReplaceString(tt.content)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestReplaceString_Idempotent(t *testing.T) {
	// A second pass over fully converted text finds nothing, as long as no
	// mapping's old equals another mapping's new.
	r := New(mustTable(t, "BAC3FF BFD8C0\n0C1649 050A07"))

	once, n1 := r.ReplaceString("#BAC3FF 0x0C1649 #80BAC3FF")
	require.Equal(t, 3, n1)

	twice, n2 := r.ReplaceString(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, 0, n2)
}

func TestReplaceText(t *testing.T) {
	r := New(mustTable(t, "BAC3FF BFD8C0"))

	result, err := r.ReplaceText(context.Background(), strings.NewReader("color: #BAC3FF;\n"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.WasModified)
	assert.Equal(t, 1, result.ReplacementCount)
	assert.Equal(t, "color: #BAC3FF;\n", string(result.OriginalContent))
	assert.Equal(t, "color: #BFD8C0;\n", string(result.ModifiedContent))
}

func TestReplaceText_InvalidUTF8Tolerated(t *testing.T) {
	r := New(mustTable(t, "BAC3FF BFD8C0"))

	content := append([]byte("#BAC3FF "), 0xFF, 0xFE)
	result, err := r.ReplaceText(context.Background(), strings.NewReader(string(content)))
	require.NoError(t, err)
	assert.Equal(t, 1, result.ReplacementCount)
	assert.Contains(t, string(result.ModifiedContent), "#BFD8C0")
}

func TestReplaceText_NoMatchNotModified(t *testing.T) {
	r := New(mustTable(t, "BAC3FF BFD8C0"))

	result, err := r.ReplaceText(context.Background(), strings.NewReader("nothing here"))
	require.NoError(t, err)
	assert.False(t, result.WasModified)
	assert.Equal(t, 0, result.ReplacementCount)
}
