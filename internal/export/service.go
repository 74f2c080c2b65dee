package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tissuetrace/donor-audit/internal/entity"
	"github.com/tissuetrace/donor-audit/internal/repository"
)

// Row is one donor line in the screening summary workbook.
type Row struct {
	ExternalID  string
	DonorID     string
	UNOSID      string
	Age         string
	Status      string
	Documents   int
	Flags       []string
	LastUpdated time.Time
}

// Service is a tiny façade over the repositories that produces XLSX bytes.
type Service struct {
	donors    repository.DonorRepository
	documents repository.DocumentRepository
	logger    *slog.Logger
}

func NewService(donors repository.DonorRepository, documents repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{donors: donors, documents: documents, logger: logger}
}

// ExportDonorsXLSX returns a workbook summarizing every donor's current
// screening state: identity fields, status, and the flags behind it.
func (s *Service) ExportDonorsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	donors, err := s.donors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query donors: %w", err)
	}

	rows := make([]Row, 0, len(donors))
	for _, d := range donors {
		row := rowFromDonor(d)
		if n, err := s.documents.CountByDonor(ctx, d.ID); err == nil {
			row.Documents = n
		}
		rows = append(rows, row)
	}

	buf, err := BuildWorkbook(rows)
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf, nil
}

func rowFromDonor(d *entity.Donor) Row {
	age := ""
	if d.Record.Identity.Age != nil {
		age = fmt.Sprintf("%v", d.Record.Identity.Age)
	}
	return Row{
		ExternalID:  d.ExternalID,
		DonorID:     d.Record.Identity.DonorID,
		UNOSID:      d.Record.Identity.UNOSID,
		Age:         age,
		Status:      string(d.Status),
		Flags:       d.Flags,
		LastUpdated: d.UpdatedAt,
	}
}

// BuildWorkbook renders rows into a single-sheet XLSX workbook.
func BuildWorkbook(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Screening"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet if it is not ours.
	if defaultIdx, _ := f.GetSheetIndex("Sheet1"); defaultIdx != -1 && sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"External ID",
		"Donor ID",
		"UNOS ID",
		"Age",
		"Status",
		"Documents",
		"Flags",
		"Last Updated",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	rowNum := 2
	for _, r := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.ExternalID)
		write(2, r.DonorID)
		write(3, r.UNOSID)
		write(4, r.Age)
		write(5, r.Status)
		write(6, r.Documents)
		write(7, strings.Join(r.Flags, "; "))
		if !r.LastUpdated.IsZero() {
			write(8, r.LastUpdated.UTC().Format("2006-01-02 15:04"))
		} else {
			write(8, "")
		}

		rowNum++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "C", 18)
	_ = f.SetColWidth(sheet, "D", "F", 12)
	_ = f.SetColWidth(sheet, "G", "G", 72) // flags
	_ = f.SetColWidth(sheet, "H", "H", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
