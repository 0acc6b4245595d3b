package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lekbanken/gamedesk/modules/games/infrastructure/persistence"
	"github.com/lekbanken/gamedesk/modules/games/services"
	"github.com/lekbanken/gamedesk/pkg/composables"
	"github.com/lekbanken/gamedesk/pkg/configuration"
	"github.com/lekbanken/gamedesk/pkg/logging"
)

type importOptions struct {
	input   string
	format  string
	apply   bool
	upsert  bool
	tenant  string
	product string
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import games from a CSV or JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "Input file, .csv or .json (required)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Input format: csv or json (default: inferred from extension)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Write to DB (default is dry-run)")
	cmd.Flags().BoolVar(&opts.upsert, "upsert", false, "Update games whose game_key already exists")
	cmd.Flags().StringVar(&opts.tenant, "tenant", "", "Tenant UUID")
	cmd.Flags().StringVar(&opts.product, "product", "", "Product UUID assigned to imported games")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// inferFormat maps a file extension to an import format when no explicit
// --format was given.
func inferFormat(path, explicit string) (string, error) {
	if explicit != "" {
		return strings.ToLower(strings.TrimSpace(explicit)), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return services.FormatCSV, nil
	case ".json":
		return services.FormatJSON, nil
	}
	return "", fmt.Errorf("cannot infer format from %q, pass --format", path)
}

func runImport(ctx context.Context, opts importOptions) error {
	if strings.TrimSpace(opts.input) == "" {
		return withCode(exitUsage, fmt.Errorf("--input is required"))
	}
	for _, id := range []string{opts.tenant, opts.product} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return withCode(exitUsage, fmt.Errorf("invalid uuid %q: %w", id, err))
		}
	}
	format, err := inferFormat(opts.input, opts.format)
	if err != nil {
		return withCode(exitUsage, err)
	}
	data, err := os.ReadFile(opts.input)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("read %s: %w", opts.input, err))
	}

	if opts.apply {
		pool, err := connectDB(ctx)
		if err != nil {
			return withCode(exitDB, err)
		}
		defer pool.Close()
		ctx = composables.WithPool(ctx, pool)
	}

	conf := configuration.Use()
	svc := services.NewImportService(persistence.NewGameContentRepository(), logging.ConsoleLogger(logrus.WarnLevel)).
		WithMaxBatchSize(conf.Import.MaxBatchSize).
		WithTenantScopedKeys(conf.Import.TenantScopedKeys)
	resp, err := svc.Import(ctx, services.ImportRequest{
		Data:      data,
		Format:    format,
		DryRun:    !opts.apply,
		Upsert:    opts.upsert,
		TenantID:  opts.tenant,
		ProductID: opts.product,
	})
	if err != nil {
		return withCode(exitValidation, err)
	}

	if resp.Live != nil {
		if err := writeJSONReport(resp.Live); err != nil {
			return err
		}
		if resp.Live.Stats.Failed > 0 {
			return withCode(exitDB, fmt.Errorf("%d of %d games failed to write", resp.Live.Stats.Failed, resp.Live.Stats.Total))
		}
		return nil
	}

	if err := writeJSONReport(resp.DryRun); err != nil {
		return err
	}
	if !resp.DryRun.Valid {
		msg := "validation failed"
		if opts.apply {
			msg = "validation failed, nothing was written"
		}
		return withCode(exitValidation, fmt.Errorf("%s: %d errors", msg, resp.DryRun.ErrorCount))
	}
	return nil
}

func writeJSONReport(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return withCode(exitDB, fmt.Errorf("json encode: %w", err))
	}
	return nil
}
