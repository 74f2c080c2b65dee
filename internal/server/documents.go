package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tissuetrace/donor-audit/internal/async"
	"github.com/tissuetrace/donor-audit/internal/common"
)

type uploadDocumentRequest struct {
	ExternalID string `json:"external_id"`
	Filename   string `json:"filename"`
	Content    string `json:"content"`
}

type uploadDocumentResponse struct {
	DocumentID string `json:"document_id"`
	DonorID    string `json:"donor_id"`
	Status     string `json:"status"`
}

type documentStatusResponse struct {
	DocumentID   string `json:"document_id"`
	DonorID      string `json:"donor_id"`
	Filename     string `json:"filename"`
	Status       string `json:"status"`
	ChunkCount   int    `json:"chunk_count"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// handleUploadDocument registers a chart and queues it for processing.
// Processing is asynchronous; poll /documents/{id}/status for the outcome.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	var req uploadDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.NewAppError("BAD_REQUEST", "invalid JSON body", common.ErrInvalidInput))
		return
	}
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	if req.ExternalID == "" {
		writeError(w, common.NewAppError("BAD_REQUEST", "external_id is required", common.ErrInvalidInput))
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, common.NewAppError("BAD_REQUEST", "content is required", common.ErrInvalidInput))
		return
	}
	if req.Filename == "" {
		req.Filename = "chart.txt"
	}

	doc, err := s.screening.Register(r.Context(), req.ExternalID, req.Filename, req.Content)
	if err != nil {
		s.logger.Error("document upload failed", "external_id", req.ExternalID, "error", err)
		writeError(w, err)
		return
	}

	if err := s.queue.Enqueue(r.Context(), async.Job{DocumentID: doc.ID, SubmittedAt: time.Now().UTC()}); err != nil {
		s.logger.Error("enqueue failed", "document_id", doc.ID, "error", err)
	}

	writeJSON(w, http.StatusAccepted, uploadDocumentResponse{
		DocumentID: doc.ID.String(),
		DonorID:    doc.DonorID.String(),
		Status:     string(doc.Status),
	})
}

func (s *Server) handleDocumentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, common.NewAppError("BAD_REQUEST", "id must be a UUID", common.ErrInvalidInput))
		return
	}

	doc, err := s.documents.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentStatusResponse{
		DocumentID:   doc.ID.String(),
		DonorID:      doc.DonorID.String(),
		Filename:     doc.Filename,
		Status:       string(doc.Status),
		ChunkCount:   doc.ChunkCount,
		ErrorMessage: doc.ErrorMessage,
		CreatedAt:    doc.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    doc.UpdatedAt.UTC().Format(time.RFC3339),
	})
}
