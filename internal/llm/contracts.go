package llm

import (
	"context"

	"github.com/tissuetrace/donor-audit/internal/record"
)

// ChartExtractor turns one chunk of page-tagged chart text into a structured
// extraction. The raw JSON the model produced is returned alongside the
// decoded record for auditing. Implementations must be safe for concurrent
// use; the pipeline may extract several chunks at once.
type ChartExtractor interface {
	ExtractChunk(ctx context.Context, text string) (record.Record, []byte, error)
}
