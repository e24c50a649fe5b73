package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tally/internal/export"
	"tally/internal/services"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		source    sourceFlags
		filter    filterFlags
		format    string
		noHeaders bool
		out       string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export expenses as csv, json or a summary report",
		Example: `  tallyctl export --input expenses.json --format csv --out report.csv
  tallyctl export --db ./data/tally.db --user alice --category food --start 2024-01-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format == "" {
				format = a.file.Export.Format
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return fmt.Errorf("%w (want one of %v)", err, export.Formats())
			}
			opts := export.Options{Format: f, IncludeHeaders: a.file.Export.IncludeHeaders}
			if cmd.Flags().Changed("no-headers") {
				opts.IncludeHeaders = export.Bool(!noHeaders)
			}

			filterOpts, err := filter.options()
			if err != nil {
				return err
			}
			svc, user, err := a.openService(source)
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.Export(cmd.Context(), user, filterOpts, opts)
			if err != nil {
				return err
			}
			return a.writeExport(res, out)
		},
	}

	source.register(cmd)
	filter.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format: csv, json or summary (default from config file)")
	cmd.Flags().BoolVar(&noHeaders, "no-headers", false, "Omit the report header and category block")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout, or output_dir from config file)")
	return cmd
}

// writeExport writes to out, to the configured output directory under the
// export's file name, or to stdout.
func (a *app) writeExport(res services.ExportResult, out string) error {
	if out == "" && a.file.Export.OutputDir != "" {
		out = filepath.Join(a.file.Export.OutputDir, res.FileName)
	}
	if out == "" {
		_, err := fmt.Fprint(a.out, res.Body)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := os.WriteFile(out, []byte(res.Body), 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintf(a.errOut, "  Wrote %s\n", out)
	return nil
}
