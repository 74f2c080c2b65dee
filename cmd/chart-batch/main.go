// chart-batch processes a directory of chart text files without a server or
// Postgres: each file is extracted, folded into a per-donor record keyed by
// the file name stem, evaluated, and summarized into an XLSX workbook. A
// local sqlite ledger makes re-runs skip files already processed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tissuetrace/donor-audit/constants"
	"github.com/tissuetrace/donor-audit/internal/common"
	"github.com/tissuetrace/donor-audit/internal/eligibility"
	"github.com/tissuetrace/donor-audit/internal/export"
	"github.com/tissuetrace/donor-audit/internal/llm/openai"
	"github.com/tissuetrace/donor-audit/internal/pipeline"
	"github.com/tissuetrace/donor-audit/internal/record"
	"github.com/tissuetrace/donor-audit/internal/repository"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type donorState struct {
	record record.Record
	result eligibility.Result
	files  int
	when   time.Time
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory of chart .txt files to process (required)")
		out        = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		ledgerPath = flag.String("ledger", "", "sqlite ledger path (optional, defaults to <dir>/.chart-batch.db)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "donor-screening.xlsx")
	}
	if *ledgerPath == "" {
		*ledgerPath = filepath.Join(*dir, ".chart-batch.db")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		printError("Error: OPENAI_API_KEY is required\n")
		os.Exit(1)
	}

	ledger, err := repository.OpenLedger(*ledgerPath)
	if err != nil {
		logger.Error("failed to open ledger", "path", *ledgerPath, "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	extractor := openai.NewClient(openai.Config{
		BaseURL:         cfg.LLM.BaseURL,
		APIKey:          cfg.LLM.APIKey,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		Timeout:         cfg.LLM.Timeout,
		LenientSections: cfg.LLM.LenientSections,
	}, logger)

	processor := pipeline.NewProcessor(logger, pipeline.Config{
		ChunkChars: cfg.Pipeline.ChunkChars,
		Workers:    cfg.Pipeline.Workers,
	}, extractor)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Error("failed to read directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".txt") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	logger.Info("starting batch", "dir", *dir, "files", len(files))

	donors := map[string]*donorState{}
	processed := 0
	skipped := 0
	failures := 0

	for _, name := range files {
		seen, err := ledger.Seen(ctx, name)
		if err != nil {
			logger.Error("ledger check failed", "file", name, "error", err)
			os.Exit(1)
		}
		if seen {
			logger.Info("skipping processed file", "file", name)
			skipped++
			continue
		}

		externalID := externalIDFor(name)
		state := donors[externalID]
		if state == nil {
			state = &donorState{}
			donors[externalID] = state
		}

		text, err := os.ReadFile(filepath.Join(*dir, name))
		if err != nil {
			logger.Error("failed to read file", "file", name, "error", err)
			recordOutcome(ctx, ledger, logger, name, externalID, constants.StatusPending, nil, 0, err)
			failures++
			continue
		}

		master, chunks, err := processor.ExtractDocument(ctx, state.record, string(text))
		if err != nil {
			logger.Error("failed to process file", "file", name, "error", err)
			recordOutcome(ctx, ledger, logger, name, externalID, constants.StatusPending, nil, 0, err)
			failures++
			continue
		}

		state.record = master
		state.result = eligibility.Evaluate(master)
		state.files++
		state.when = time.Now().UTC()
		recordOutcome(ctx, ledger, logger, name, externalID, state.result.Status, state.result.Flags, chunks, nil)
		processed++
	}

	rows := make([]export.Row, 0, len(donors))
	for externalID, state := range donors {
		rows = append(rows, export.Row{
			ExternalID:  externalID,
			DonorID:     state.record.Identity.DonorID,
			UNOSID:      state.record.Identity.UNOSID,
			Age:         ageString(state.record.Identity.Age),
			Status:      string(state.result.Status),
			Documents:   state.files,
			Flags:       state.result.Flags,
			LastUpdated: state.when,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ExternalID < rows[j].ExternalID })

	xlsxBytes, err := export.BuildWorkbook(rows)
	if err != nil {
		logger.Error("failed to build workbook", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch complete",
		"files_processed", processed,
		"files_skipped", skipped,
		"failures", failures,
		"donors", len(donors),
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files processed: %d\n", processed)
	fmt.Printf("- Files skipped: %d\n", skipped)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", *out)
}

// externalIDFor keys charts to donors by the part of the file name before the
// first underscore, so "D-1042_hospital.txt" and "D-1042_labs.txt" fold into
// one donor. A name without an underscore is its own donor.
func externalIDFor(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if i := strings.Index(stem, "_"); i > 0 {
		return stem[:i]
	}
	return stem
}

func ageString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func recordOutcome(ctx context.Context, ledger *repository.Ledger, logger *slog.Logger,
	filename, externalID string, status constants.EligibilityStatus, flags []string, chunks int, procErr error) {
	entry := repository.LedgerEntry{
		Filename:   filename,
		ExternalID: externalID,
		Status:     status,
		Flags:      flags,
		ChunkCount: chunks,
	}
	if procErr != nil {
		entry.Error = procErr.Error()
	}
	if err := ledger.Record(ctx, entry); err != nil {
		logger.Error("ledger write failed", "file", filename, "error", err)
	}
}
