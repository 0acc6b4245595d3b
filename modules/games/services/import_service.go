// Package services orchestrates the game content pipeline: parsing,
// validation, preflight and persistence on the import side; reads and
// format generation on the export side.
package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
	"github.com/lekbanken/gamedesk/modules/games/importer"
	"github.com/lekbanken/gamedesk/pkg/composables"
	"github.com/lekbanken/gamedesk/pkg/metrics"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// ImportRequest is one import call: raw payload plus behavior flags.
type ImportRequest struct {
	Data      []byte
	Format    string
	DryRun    bool
	Upsert    bool
	TenantID  string
	ProductID string
}

// ImportStats counts what a live run did per game.
type ImportStats struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// DryRunResult is the full validation report. It is also what a live run
// returns when validation blocks the batch.
type DryRunResult struct {
	Valid        bool                   `json:"valid"`
	TotalRows    int                    `json:"total_rows"`
	ValidCount   int                    `json:"valid_count"`
	WarningCount int                    `json:"warning_count"`
	ErrorCount   int                    `json:"error_count"`
	Games        []importer.GamePreview `json:"games"`
	Errors       []game.ImportError     `json:"errors"`
	Warnings     []game.ImportError     `json:"warnings"`
}

// ImportResult summarizes a live run.
type ImportResult struct {
	RunID    string             `json:"run_id"`
	Stats    ImportStats        `json:"stats"`
	Errors   []game.ImportError `json:"errors,omitempty"`
	Warnings []game.ImportError `json:"warnings,omitempty"`
}

// ImportResponse carries exactly one of the two report shapes: DryRun for
// preview calls and validation-blocked live calls, Live for runs that
// reached the write phase.
type ImportResponse struct {
	DryRun *DryRunResult `json:"dry_run,omitempty"`
	Live   *ImportResult `json:"result,omitempty"`
}

type ImportService struct {
	repo             GameContentRepository
	log              *logrus.Logger
	maxBatch         int
	tenantScopedKeys bool
}

func NewImportService(repo GameContentRepository, log *logrus.Logger) *ImportService {
	return &ImportService{repo: repo, log: log}
}

// WithMaxBatchSize caps how many games one batch may carry. Zero means
// unlimited.
func (s *ImportService) WithMaxBatchSize(n int) *ImportService {
	s.maxBatch = n
	return s
}

// WithTenantScopedKeys makes upsert matching use (tenant_id, game_key)
// instead of treating game_key as globally unique.
func (s *ImportService) WithTenantScopedKeys(scoped bool) *ImportService {
	s.tenantScopedKeys = scoped
	return s
}

// Import runs one batch end to end. Batch-shape problems (unknown format,
// payload that is not an array) are returned as errors; per-row problems
// are reported inside the response. Validation errors block the entire
// write phase; per-game write errors do not abort sibling games.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*ImportResponse, error) {
	format := strings.ToLower(req.Format)

	var parsed importer.ParseResult
	switch format {
	case FormatCSV:
		parsed = importer.ParseCSVGames(bytes.NewReader(req.Data))
	case FormatJSON:
		var err error
		parsed, err = importer.ParseJSONGames(req.Data)
		if err != nil {
			metrics.ImportRunsTotal.WithLabelValues(format, "rejected").Inc()
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported import format %q (expected csv or json)", req.Format)
	}

	if s.maxBatch > 0 && len(parsed.Games) > s.maxBatch {
		metrics.ImportRunsTotal.WithLabelValues(format, "rejected").Inc()
		return nil, fmt.Errorf("batch carries %d games, the limit is %d", len(parsed.Games), s.maxBatch)
	}

	batch := importer.ValidateGames(parsed.Games)
	report := buildReport(parsed, batch)
	metrics.ImportValidationErrors.WithLabelValues(string(game.SeverityError)).Add(float64(report.ErrorCount))
	metrics.ImportValidationErrors.WithLabelValues(string(game.SeverityWarning)).Add(float64(report.WarningCount))

	s.log.WithFields(logrus.Fields{
		"format":     format,
		"dry_run":    req.DryRun,
		"total_rows": report.TotalRows,
		"valid":      report.ValidCount,
		"errors":     report.ErrorCount,
		"warnings":   report.WarningCount,
	}).Info("import.start")

	if req.DryRun {
		metrics.ImportRunsTotal.WithLabelValues(format, "dry_run").Inc()
		return &ImportResponse{DryRun: report}, nil
	}
	if !report.Valid {
		metrics.ImportRunsTotal.WithLabelValues(format, "rejected").Inc()
		s.log.WithFields(logrus.Fields{
			"errors": report.ErrorCount,
		}).Warn("import.blocked")
		return &ImportResponse{DryRun: report}, nil
	}

	result := s.writeBatch(ctx, req, batch)
	result.Warnings = report.Warnings
	metrics.ImportRunsTotal.WithLabelValues(format, "applied").Inc()
	metrics.ImportGamesWritten.Add(float64(result.Stats.Created + result.Stats.Updated))

	s.log.WithFields(logrus.Fields{
		"run_id":  result.RunID,
		"total":   result.Stats.Total,
		"created": result.Stats.Created,
		"updated": result.Stats.Updated,
		"skipped": result.Stats.Skipped,
		"failed":  result.Stats.Failed,
	}).Info("import.done")

	return &ImportResponse{Live: result}, nil
}

func (s *ImportService) writeBatch(ctx context.Context, req ImportRequest, batch importer.BatchResult) *ImportResult {
	runID := uuid.New()
	meta := WriteMeta{ImportRunID: runID, TenantID: req.TenantID, ProductID: req.ProductID}

	// Row-level security reads the tenant from the context when writes open
	// their transaction.
	if req.TenantID != "" {
		if tid, err := uuid.Parse(req.TenantID); err == nil {
			ctx = composables.WithTenantID(ctx, tid)
		}
	}
	result := &ImportResult{RunID: runID.String(), Stats: ImportStats{Total: len(batch.ValidGames)}}

	s.log.WithFields(logrus.Fields{
		"run_id": runID.String(),
		"games":  len(batch.ValidGames),
	}).Info("db.write.begin")

	for _, g := range batch.ValidGames {
		if err := s.writeGame(ctx, g, req.Upsert, meta, result); err != nil {
			result.Stats.Failed++
			result.Errors = append(result.Errors, game.Errorf(g.SourceRow, "game_key", "game %s: %v", g.GameKey, err))
			s.log.WithFields(logrus.Fields{
				"run_id":   runID.String(),
				"game_key": g.GameKey,
				"error":    err.Error(),
			}).Error("db.write.fail")
		}
	}

	s.log.WithFields(logrus.Fields{
		"run_id": runID.String(),
	}).Info("db.write.done")
	return result
}

func (s *ImportService) writeGame(ctx context.Context, g game.ParsedGame, upsert bool, meta WriteMeta, result *ImportResult) error {
	plan, preflightErrs := importer.RunPreflight(g)
	if len(preflightErrs) > 0 {
		s.log.WithFields(logrus.Fields{
			"run_id":   meta.ImportRunID.String(),
			"game_key": g.GameKey,
			"findings": len(preflightErrs),
		}).Error("preflight.fail")
		result.Errors = append(result.Errors, preflightErrs...)
		return fmt.Errorf("preflight produced %d blocking findings", len(preflightErrs))
	}

	keyTenant := ""
	if s.tenantScopedKeys {
		keyTenant = meta.TenantID
	}
	existingID, found, err := s.repo.FindGameIDByKey(ctx, g.GameKey, keyTenant)
	if err != nil {
		return fmt.Errorf("lookup by key: %w", err)
	}
	if found && !upsert {
		result.Stats.Skipped++
		result.Warnings = append(result.Warnings, game.Warnf(g.SourceRow, "game_key",
			"game %s already exists and upsert is disabled, skipped", g.GameKey))
		return nil
	}

	_, applied, err := s.repo.WriteGame(ctx, g, existingID, plan, meta)
	if err != nil {
		return fmt.Errorf("write game: %w", err)
	}
	if !applied {
		// Same run id seen before, a retried batch.
		result.Stats.Skipped++
		return nil
	}
	if found {
		result.Stats.Updated++
	} else {
		result.Stats.Created++
	}
	return nil
}

// buildReport folds parse findings and validation findings into the report
// the caller sees. Rows that failed to parse count toward total_rows even
// though no game was produced for them.
func buildReport(parsed importer.ParseResult, batch importer.BatchResult) *DryRunResult {
	errs := append([]game.ImportError{}, parsed.Errors...)
	errs = append(errs, batch.AllErrors...)
	warns := append([]game.ImportError{}, parsed.Warnings...)
	warns = append(warns, batch.AllWarnings...)

	seen := make(map[int]struct{}, len(parsed.Games))
	for _, g := range parsed.Games {
		seen[g.SourceRow] = struct{}{}
	}
	total := len(parsed.Games)
	for _, e := range parsed.Errors {
		if e.Row == 0 {
			continue
		}
		if _, ok := seen[e.Row]; !ok {
			seen[e.Row] = struct{}{}
			total++
		}
	}

	return &DryRunResult{
		Valid:        len(errs) == 0,
		TotalRows:    total,
		ValidCount:   len(batch.ValidGames),
		WarningCount: len(warns),
		ErrorCount:   len(errs),
		Games:        batch.Preview,
		Errors:       errs,
		Warnings:     warns,
	}
}
