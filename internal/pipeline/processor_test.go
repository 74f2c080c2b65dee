package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tissuetrace/donor-audit/internal/record"
)

// stubExtractor fabricates a record per chunk from the page numbers it sees,
// so tests can observe which chunk produced which contribution.
type stubExtractor struct {
	mu    sync.Mutex
	calls []string
	fail  map[int]error // call index (1-based) to error
}

var pageNum = regexp.MustCompile(`PAGE\s+(\d+)`)

func (s *stubExtractor) ExtractChunk(_ context.Context, text string) (record.Record, []byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, text)
	n := len(s.calls)
	s.mu.Unlock()

	if err := s.fail[n]; err != nil {
		return record.Record{}, nil, err
	}

	first := ""
	if m := pageNum.FindStringSubmatch(text); m != nil {
		first = m[1]
	}
	rec := record.Record{
		Identity: record.Identity{DonorID: "D-page-" + first},
		ClinicalSummary: record.ClinicalSummary{
			PastMedicalHistory: []string{"dx-from-page-" + first},
		},
	}
	return rec, nil, nil
}

func page(n int, size int) string {
	return fmt.Sprintf("\n--- PAGE %d ---\n%s", n, strings.Repeat("x", size))
}

func TestExtractDocumentEmptyTextReturnsSeed(t *testing.T) {
	seed := record.Record{Identity: record.Identity{DonorID: "D-seed"}}
	p := NewProcessor(nil, Config{}, &stubExtractor{})

	got, chunks, err := p.ExtractDocument(context.Background(), seed, "   \n\t ")
	require.NoError(t, err)
	assert.Equal(t, 0, chunks)
	assert.Equal(t, "D-seed", got.Identity.DonorID)
}

func TestExtractDocumentSingleChunk(t *testing.T) {
	stub := &stubExtractor{}
	p := NewProcessor(nil, Config{ChunkChars: 10_000}, stub)

	got, chunks, err := p.ExtractDocument(context.Background(), record.Record{}, page(1, 100))
	require.NoError(t, err)
	assert.Equal(t, 1, chunks)
	assert.Len(t, stub.calls, 1)
	assert.Equal(t, "D-page-1", got.Identity.DonorID)
}

func TestExtractDocumentMergesIntoSeed(t *testing.T) {
	seed := record.Record{Identity: record.Identity{DonorID: "D-existing"}}
	p := NewProcessor(nil, Config{ChunkChars: 10_000}, &stubExtractor{})

	got, _, err := p.ExtractDocument(context.Background(), seed, page(1, 100))
	require.NoError(t, err)
	// First writer already present in the seed keeps the identity.
	assert.Equal(t, "D-existing", got.Identity.DonorID)
	assert.Equal(t, []string{"dx-from-page-1"}, got.ClinicalSummary.PastMedicalHistory)
}

func TestExtractDocumentMultiChunkFoldsInPageOrder(t *testing.T) {
	text := page(1, 200) + page(2, 200) + page(3, 200)
	stub := &stubExtractor{}
	p := NewProcessor(nil, Config{ChunkChars: 250, Workers: 3}, stub)

	got, chunks, err := p.ExtractDocument(context.Background(), record.Record{}, text)
	require.NoError(t, err)
	assert.Equal(t, 3, chunks)
	// Identity is first-writer-wins, so page order must put page 1 first
	// regardless of which worker finished first.
	assert.Equal(t, "D-page-1", got.Identity.DonorID)
	assert.Equal(t, []string{"dx-from-page-1", "dx-from-page-2", "dx-from-page-3"},
		got.ClinicalSummary.PastMedicalHistory)
}

func TestExtractDocumentChunkFailureFailsDocument(t *testing.T) {
	text := page(1, 200) + page(2, 200) + page(3, 200)
	boom := errors.New("model unavailable")
	stub := &stubExtractor{fail: map[int]error{2: boom}}
	p := NewProcessor(nil, Config{ChunkChars: 250, Workers: 1}, stub)

	_, _, err := p.ExtractDocument(context.Background(), record.Record{}, text)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestNewProcessorDefaults(t *testing.T) {
	p := NewProcessor(nil, Config{}, &stubExtractor{})
	assert.Equal(t, 120_000, p.Cfg.ChunkChars)
	assert.Equal(t, 1, p.Cfg.Workers)
	assert.NotNil(t, p.Logger)
}
