// Package chunk splits page-tagged chart text into pieces small enough for
// one model call.
package chunk

import (
	"regexp"
	"strings"
)

// DefaultChunkChars approximates a 30k-token context window at roughly four
// characters per token.
const DefaultChunkChars = 120_000

// pageMarker matches the layout extractor's page headers, e.g.
// "--- PAGE 12 ---" on its own line.
var pageMarker = regexp.MustCompile(`\n---\s*PAGE\s+\d+\s*---`)

// Split divides text into ordered chunks of at most maxChars characters each,
// cutting only at page-marker boundaries. Text that already fits the budget
// comes back as a single chunk equal to the input. A single page larger than
// the budget becomes its own oversized chunk; nothing is dropped or
// truncated, and concatenating the chunks reproduces the input exactly.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultChunkChars
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, seg := range segments(text) {
		if current.Len() > 0 && current.Len()+len(seg) > maxChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(seg)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

// segments partitions text at page markers, each marker staying attached to
// the page text that follows it. Any preamble before the first marker is its
// own segment.
func segments(text string) []string {
	marks := pageMarker.FindAllStringIndex(text, -1)
	if len(marks) == 0 {
		return []string{text}
	}
	bounds := make([]int, 0, len(marks)+2)
	if marks[0][0] != 0 {
		bounds = append(bounds, 0)
	}
	for _, m := range marks {
		bounds = append(bounds, m[0])
	}
	bounds = append(bounds, len(text))

	out := make([]string, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		out = append(out, text[bounds[i]:bounds[i+1]])
	}
	return out
}
