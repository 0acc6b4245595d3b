package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lekbanken/gamedesk/modules/games/infrastructure/persistence"
	"github.com/lekbanken/gamedesk/modules/games/services"
	"github.com/lekbanken/gamedesk/pkg/composables"
	"github.com/lekbanken/gamedesk/pkg/logging"
)

type exportOptions struct {
	output        string
	format        string
	tenant        string
	ids           []string
	includeDrafts bool
	sections      services.ExportSections
}

func newExportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export games to a CSV, JSON or XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.output, "output", "", "Output file, .csv, .json or .xlsx (required)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Export format: csv, json or xlsx (default: inferred from extension)")
	cmd.Flags().StringVar(&opts.tenant, "tenant", "", "Limit to games owned by this tenant UUID")
	cmd.Flags().StringSliceVar(&opts.ids, "ids", nil, "Limit to specific game UUIDs")
	cmd.Flags().BoolVar(&opts.includeDrafts, "include-drafts", false, "Include draft games (default exports published only)")
	cmd.Flags().BoolVar(&opts.sections.Steps, "include-steps", true, "Include steps")
	cmd.Flags().BoolVar(&opts.sections.Materials, "include-materials", true, "Include materials")
	cmd.Flags().BoolVar(&opts.sections.Phases, "include-phases", true, "Include phases")
	cmd.Flags().BoolVar(&opts.sections.Roles, "include-roles", true, "Include roles")
	cmd.Flags().BoolVar(&opts.sections.BoardConfig, "include-board-config", true, "Include board config")

	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func inferExportFormat(path, explicit string) (string, error) {
	if explicit != "" {
		return strings.ToLower(strings.TrimSpace(explicit)), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return services.FormatCSV, nil
	case ".json":
		return services.FormatJSON, nil
	case ".xlsx":
		return services.FormatXLSX, nil
	}
	return "", fmt.Errorf("cannot infer format from %q, pass --format", path)
}

func runExport(ctx context.Context, opts exportOptions) error {
	if strings.TrimSpace(opts.output) == "" {
		return withCode(exitUsage, fmt.Errorf("--output is required"))
	}
	format, err := inferExportFormat(opts.output, opts.format)
	if err != nil {
		return withCode(exitUsage, err)
	}

	pool, err := connectDB(ctx)
	if err != nil {
		return withCode(exitDB, err)
	}
	defer pool.Close()
	ctx = composables.WithPool(ctx, pool)

	svc := services.NewExportService(persistence.NewGameContentRepository(), logging.ConsoleLogger(logrus.WarnLevel))
	res, err := svc.Export(ctx, services.ExportQuery{
		Format:        format,
		IDs:           opts.ids,
		TenantID:      opts.tenant,
		IncludeDrafts: opts.includeDrafts,
		Sections:      &opts.sections,
	})
	if err != nil {
		return withCode(exitDB, err)
	}

	if err := os.WriteFile(opts.output, res.Data, 0o644); err != nil {
		return withCode(exitDB, fmt.Errorf("write %s: %w", opts.output, err))
	}
	for _, note := range res.ScopeNotes {
		fmt.Fprintln(os.Stderr, "note:", note)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", opts.output, len(res.Data))
	return nil
}
