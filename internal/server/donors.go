package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tissuetrace/donor-audit/internal/common"
	"github.com/tissuetrace/donor-audit/internal/entity"
	"github.com/tissuetrace/donor-audit/internal/record"
)

type donorSummary struct {
	ID         string   `json:"id"`
	ExternalID string   `json:"external_id"`
	Status     string   `json:"status"`
	Flags      []string `json:"flags"`
	UpdatedAt  string   `json:"updated_at"`
}

type donorDetail struct {
	donorSummary
	Record record.Record `json:"record"`
}

func summarize(d *entity.Donor) donorSummary {
	flags := d.Flags
	if flags == nil {
		flags = []string{}
	}
	return donorSummary{
		ID:         d.ID.String(),
		ExternalID: d.ExternalID,
		Status:     string(d.Status),
		Flags:      flags,
		UpdatedAt:  d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListDonors(w http.ResponseWriter, r *http.Request) {
	donors, err := s.donors.List(r.Context())
	if err != nil {
		s.logger.Error("list donors failed", "error", err)
		writeError(w, err)
		return
	}
	out := make([]donorSummary, 0, len(donors))
	for _, d := range donors {
		out = append(out, summarize(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"donors": out})
}

func (s *Server) handleGetDonor(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, common.NewAppError("BAD_REQUEST", "id must be a UUID", common.ErrInvalidInput))
		return
	}
	d, err := s.donors.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, donorDetail{donorSummary: summarize(d), Record: d.Record})
}

func (s *Server) handleExportDonors(w http.ResponseWriter, r *http.Request) {
	xlsx, err := s.exporter.ExportDonorsXLSX(r.Context())
	if err != nil {
		s.logger.Error("export failed", "error", err)
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="donor-screening.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}
