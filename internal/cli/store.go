package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"futureweaver/adapters/tablefile"
	"futureweaver/domain/core"
	"futureweaver/domain/records"
	"futureweaver/internal/config"
	apperrors "futureweaver/internal/errors"
	"futureweaver/internal/migration"
	"futureweaver/internal/testkit"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the SQL store schema",
		Long:  `Apply the record table migrations to the postgres or sqlite store. Migrations are idempotent.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.sql == nil {
				return fmt.Errorf("migrate needs a SQL backend, store backend is %q", s.cfg.Store.Backend)
			}

			var runner migration.Migrator = migration.NewRunner(s.sql.DB().DriverName())
			if err := runner.Run(ctx, s.sql.DB()); err != nil {
				return err
			}

			out := newPrinter(rootOpts, cmd.OutOrStdout())
			if out.json() {
				return out.writeJSON(map[string]string{"backend": s.cfg.Store.Backend, "version": runner.Version()})
			}
			out.line("Migrations complete (%s, schema %s)", s.cfg.Store.Backend, runner.Version())
			return nil
		},
	}
}

// importResult is the per-table outcome of an import
type importResult struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

// NewImportCommand creates the import command
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <data-dir>",
		Short: "Copy CSV/XLSX tables into the SQL store",
		Long: `Read every known table from a directory of CSV or XLSX files and append its rows
to the configured postgres or sqlite store. Tables absent from the directory are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.sql == nil {
				return fmt.Errorf("import needs a SQL backend, store backend is %q", s.cfg.Store.Backend)
			}

			src, err := tablefile.New(args[0], config.Default().Store.CacheSize)
			if err != nil {
				return err
			}

			var results []importResult
			for _, name := range records.ReadableTables {
				rows, err := src.LoadTable(ctx, name)
				if errors.Is(err, core.ErrTableNotFound) {
					continue
				}
				if err != nil {
					return fmt.Errorf("read %s: %w", name, err)
				}
				n, err := s.sql.ImportRecords(ctx, name, rows)
				if err != nil {
					return fmt.Errorf("import %s: %w", name, err)
				}
				results = append(results, importResult{Table: name, Rows: n})
			}

			out := newPrinter(rootOpts, cmd.OutOrStdout())
			if out.json() {
				if results == nil {
					results = []importResult{}
				}
				return out.writeJSON(results)
			}
			if len(results) == 0 {
				out.line("No tables found in %s", args[0])
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Table, strconv.Itoa(r.Rows)})
			}
			return out.table([]string{"TABLE", "ROWS"}, rows)
		},
	}
}

// NewSeedCommand creates the seed command
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	gen := testkit.DefaultDistrictConfig()

	cmd := &cobra.Command{
		Use:   "seed <data-dir>",
		Short: "Write a synthetic districts table for local development",
		Long: `Generate districts whose drought, water stress, crop failure and migration
indicators move together, and append them to districts.csv in data-dir.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if gen.DistrictCount <= 0 {
				return apperrors.InvalidInput("--count must be positive")
			}
			if gen.MissingRate < 0 || gen.MissingRate >= 1 {
				return apperrors.InvalidInput("--missing must be within [0, 1)")
			}
			if err := os.MkdirAll(args[0], 0o755); err != nil {
				return err
			}
			dst, err := tablefile.New(args[0], 0)
			if err != nil {
				return err
			}

			rows := testkit.NewDistrictGenerator(gen).Generate()
			for _, row := range rows {
				if _, err := dst.AppendRecord(cmd.Context(), records.TableDistricts, row); err != nil {
					return err
				}
			}

			out := newPrinter(rootOpts, cmd.OutOrStdout())
			if out.json() {
				return out.writeJSON(importResult{Table: records.TableDistricts, Rows: len(rows)})
			}
			out.line("Wrote %d districts to %s", len(rows), args[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&gen.DistrictCount, "count", gen.DistrictCount, "number of districts")
	cmd.Flags().Float64Var(&gen.MissingRate, "missing", gen.MissingRate, "share of indicator cells left empty")
	cmd.Flags().Int64Var(&gen.Seed, "seed", gen.Seed, "generator seed")
	return cmd
}
