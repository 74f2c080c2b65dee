// Package screening runs the document lifecycle: claim an uploaded chart,
// extract and fold it into the donor's master record, evaluate eligibility,
// and persist the outcome.
package screening

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tissuetrace/donor-audit/internal/common"
	"github.com/tissuetrace/donor-audit/internal/eligibility"
	"github.com/tissuetrace/donor-audit/internal/entity"
	"github.com/tissuetrace/donor-audit/internal/metrics"
	"github.com/tissuetrace/donor-audit/internal/pipeline"
	"github.com/tissuetrace/donor-audit/internal/repository"
)

type Service struct {
	logger    *slog.Logger
	donors    repository.DonorRepository
	documents repository.DocumentRepository
	processor *pipeline.Processor
}

func NewService(logger *slog.Logger, donors repository.DonorRepository, documents repository.DocumentRepository, processor *pipeline.Processor) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, donors: donors, documents: documents, processor: processor}
}

// Register creates the document row for an uploaded chart, creating the donor
// on first sight of the external ID.
func (s *Service) Register(ctx context.Context, externalID, filename, content string) (*entity.Document, error) {
	donor, err := s.donors.GetOrCreateByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	doc, err := s.documents.Create(ctx, donor.ID, filename, content)
	if err != nil {
		return nil, err
	}
	s.logger.Info("screening.document.registered",
		"document_id", doc.ID, "donor_id", donor.ID, "external_id", externalID,
		"content_len", len(content),
	)
	return doc, nil
}

// ProcessDocument claims a specific document and runs it to completion.
func (s *Service) ProcessDocument(ctx context.Context, documentID uuid.UUID) error {
	doc, content, err := s.documents.Claim(ctx, documentID)
	if err != nil {
		return err
	}
	return s.run(ctx, doc, content)
}

// DrainQueue processes queued documents oldest-first until the queue is empty
// or the context is cancelled. Safe to run from multiple workers; claims skip
// rows locked by peers.
func (s *Service) DrainQueue(ctx context.Context) (int, error) {
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		doc, content, err := s.documents.NextQueued(ctx)
		if err != nil {
			return processed, err
		}
		if doc == nil {
			return processed, nil
		}
		if err := s.run(ctx, doc, content); err != nil {
			s.logger.Error("screening.document.failed", "document_id", doc.ID, "error", err)
		}
		processed++
	}
}

// run folds one claimed document into its donor's record. On extraction
// failure the document is marked FAILED and the donor's last-known-good
// record is left untouched.
func (s *Service) run(ctx context.Context, doc *entity.Document, content string) error {
	start := time.Now()
	log := s.logger.With("document_id", doc.ID, "donor_id", doc.DonorID)

	donor, err := s.donors.GetByID(ctx, doc.DonorID)
	if err != nil {
		s.fail(ctx, doc.ID, "load donor: "+err.Error())
		return err
	}

	master, chunks, err := s.processor.ExtractDocument(ctx, donor.Record, content)
	if err != nil {
		log.Error("screening.extract.failed", "error", err)
		s.fail(ctx, doc.ID, err.Error())
		return common.WrapError(err, "extract document")
	}
	metrics.ChunksExtracted.Add(float64(chunks))

	result := eligibility.Evaluate(master)
	if err := s.donors.SaveScreening(ctx, donor.ID, master, result.Status, result.Flags); err != nil {
		log.Error("screening.persist.failed", "error", err)
		s.fail(ctx, doc.ID, "persist screening: "+err.Error())
		return err
	}
	if err := s.documents.FinishSuccess(ctx, doc.ID, chunks); err != nil {
		return err
	}

	metrics.DocumentsProcessed.WithLabelValues("extracted").Inc()
	metrics.ScreeningOutcomes.WithLabelValues(string(result.Status)).Inc()
	metrics.ProcessDuration.Observe(time.Since(start).Seconds())
	log.Info("screening.document.done",
		"chunks", chunks, "status", result.Status, "flag_count", len(result.Flags),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *Service) fail(ctx context.Context, documentID uuid.UUID, message string) {
	metrics.DocumentsProcessed.WithLabelValues("failed").Inc()
	if err := s.documents.FinishFailure(ctx, documentID, message); err != nil {
		s.logger.Error("screening.document.mark_failed_error", "document_id", documentID, "error", err)
	}
}
