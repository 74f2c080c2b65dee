// Package pipeline sequences chunking, per-chunk extraction, and the merge
// fold for one document.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tissuetrace/donor-audit/internal/chunk"
	"github.com/tissuetrace/donor-audit/internal/llm"
	"github.com/tissuetrace/donor-audit/internal/merge"
	"github.com/tissuetrace/donor-audit/internal/record"
)

// Config holds chunking and concurrency knobs for the extraction pipeline.
type Config struct {
	ChunkChars int // character budget per chunk; default chunk.DefaultChunkChars
	Workers    int // concurrent chunk extractions; default 1 (sequential)
}

type Processor struct {
	Logger    *slog.Logger
	Cfg       Config
	Extractor llm.ChartExtractor
}

func NewProcessor(logger *slog.Logger, cfg Config, extractor llm.ChartExtractor) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ChunkChars <= 0 {
		cfg.ChunkChars = chunk.DefaultChunkChars
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Processor{Logger: logger, Cfg: cfg, Extractor: extractor}
}

// ExtractDocument folds a document's chunk extractions into the seed record
// and returns the new master plus the number of chunks extracted. Chunks may
// be extracted concurrently, but results are folded strictly in page order:
// the fold is order-sensitive (first-writer identity, serology sequencing).
//
// Any chunk failure fails the whole document. A chunk is never silently
// replaced by an empty extraction; losing identity or serology data without
// notice is worse than an explicit failure. The seed is returned unchanged
// for empty or whitespace-only text.
func (p *Processor) ExtractDocument(ctx context.Context, seed record.Record, text string) (record.Record, int, error) {
	if strings.TrimSpace(text) == "" {
		p.Logger.Warn("pipeline.extract.empty_text")
		return seed, 0, nil
	}

	start := time.Now()
	if len(text) <= p.Cfg.ChunkChars {
		rec, _, err := p.Extractor.ExtractChunk(ctx, text)
		if err != nil {
			return record.Record{}, 0, fmt.Errorf("extract chunk: %w", err)
		}
		p.Logger.Info("pipeline.extract.ok",
			"chunks", 1, "text_len", len(text),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return merge.Merge(seed, rec), 1, nil
	}

	chunks := chunk.Split(text, p.Cfg.ChunkChars)
	p.Logger.Info("pipeline.extract.chunked", "chunks", len(chunks), "text_len", len(text))

	results := make([]record.Record, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Cfg.Workers)
	for i, c := range chunks {
		g.Go(func() error {
			rec, _, err := p.Extractor.ExtractChunk(gctx, c)
			if err != nil {
				return fmt.Errorf("extract chunk %d/%d: %w", i+1, len(chunks), err)
			}
			results[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return record.Record{}, 0, err
	}

	master := merge.Fold(seed, results)
	p.Logger.Info("pipeline.extract.ok",
		"chunks", len(chunks), "text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return master, len(chunks), nil
}
