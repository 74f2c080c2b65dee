package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(n, size int) string {
	header := fmt.Sprintf("\n--- PAGE %d ---\n", n)
	return header + strings.Repeat("x", size)
}

func TestSplitTextWithinBudgetIsSingleChunk(t *testing.T) {
	text := "no markers at all, just a short chart"
	chunks := Split(text, 1000)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitEmptyText(t *testing.T) {
	chunks := Split("", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0])
}

func TestSplitCutsOnlyAtPageMarkers(t *testing.T) {
	text := page(1, 40) + page(2, 40) + page(3, 40)
	chunks := Split(text, 60)

	require.Greater(t, len(chunks), 1)
	for i, c := range chunks[1:] {
		assert.Truef(t, strings.HasPrefix(c, "\n--- PAGE "), "chunk %d should start at a page marker", i+1)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitGreedyPacking(t *testing.T) {
	// Two small pages fit one chunk, the third starts the next.
	text := page(1, 10) + page(2, 10) + page(3, 10)
	perPage := len(page(1, 10))
	chunks := Split(text, 2*perPage)

	require.Len(t, chunks, 2)
	assert.Equal(t, page(1, 10)+page(2, 10), chunks[0])
	assert.Equal(t, page(3, 10), chunks[1])
}

func TestSplitOversizedPageBecomesOwnChunk(t *testing.T) {
	big := page(2, 500)
	text := page(1, 10) + big + page(3, 10)
	chunks := Split(text, 100)

	require.Len(t, chunks, 3)
	assert.Equal(t, big, chunks[1])
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitPreambleBeforeFirstMarker(t *testing.T) {
	preamble := strings.Repeat("p", 50)
	text := preamble + page(1, 80) + page(2, 80)
	chunks := Split(text, 100)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasPrefix(chunks[0], preamble))
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitNoMarkersOverBudget(t *testing.T) {
	// Unsplittable text over budget still comes back whole.
	text := strings.Repeat("y", 300)
	chunks := Split(text, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitMarkerVariants(t *testing.T) {
	// Extra whitespace inside the marker still counts as a boundary.
	text := strings.Repeat("a", 80) + "\n---  PAGE  7  ---\n" + strings.Repeat("b", 80)
	chunks := Split(text, 100)
	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[1], "\n---  PAGE  7  ---"))
}

func TestSplitZeroBudgetUsesDefault(t *testing.T) {
	text := "tiny"
	chunks := Split(text, 0)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}
