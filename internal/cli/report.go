package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"futureweaver/internal/export"
	"futureweaver/internal/report"

	"github.com/spf13/cobra"
)

// NewReportCommand creates the report command
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	var kind, outPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the policy recommendation report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != "md" && kind != "html" {
				return fmt.Errorf("unsupported report type %q: must be md or html", kind)
			}

			ctx := cmd.Context()
			s, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			in, err := s.svc.PolicyReport(ctx)
			if err != nil {
				return err
			}
			doc := report.HTML(*in)
			if kind == "md" {
				doc = report.Markdown(*in)
			}
			return writeOutput(cmd.OutOrStdout(), outPath, doc)
		},
	}

	cmd.Flags().StringVar(&kind, "type", "html", "report type (md|html)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

// NewExportCommand creates the export command
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var kind, outPath string

	cmd := &cobra.Command{
		Use:   "export <table>",
		Short: "Export a table as CSV or XLSX",
		Long: `Export one of the store tables. With --out set to a directory the file is named
<table>_<YYYY-MM-DD>.<ext>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(kind)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			table := args[0]
			rows, err := s.svc.ListTable(ctx, table)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := export.Write(&buf, format, export.ColumnsFor(table, rows), rows); err != nil {
				return err
			}

			if outPath != "" {
				if info, err := os.Stat(outPath); err == nil && info.IsDir() {
					outPath = outPath + string(os.PathSeparator) + export.FileName(table, format, time.Now())
				}
			}
			return writeOutput(cmd.OutOrStdout(), outPath, buf.Bytes())
		},
	}

	cmd.Flags().StringVar(&kind, "type", "csv", "file type (csv|xlsx)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file or directory instead of stdout")
	return cmd
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
