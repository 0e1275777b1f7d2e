// Package cli implements the fw command-line interface using Cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"futureweaver/adapters/memstore"
	"futureweaver/adapters/rng"
	"futureweaver/adapters/sqlstore"
	"futureweaver/app"
	"futureweaver/domain/core"
	"futureweaver/domain/records"
	"futureweaver/internal/config"
	"futureweaver/internal/container"
	"futureweaver/internal/presets"
	"futureweaver/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// StoreOpener opens the table store named by the store config
type StoreOpener func(ctx context.Context, cfg config.StoreConfig) (ports.TableStore, *sqlstore.Store, error)

// RootOptions holds global flags and the collaborators shared by all commands
type RootOptions struct {
	Format  string
	EnvFile string

	// LoadConfig and OpenStore default to config.Load and container.OpenStore
	LoadConfig func() (*config.Config, error)
	OpenStore  StoreOpener
}

// NewRootCommand creates the root command for the fw CLI
func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.Load
	}
	if opts.OpenStore == nil {
		opts.OpenStore = container.OpenStore
	}

	cmd := &cobra.Command{
		Use:   "fw",
		Short: "FutureWeaver drought and migration analytics",
		Long: `fw runs the FutureWeaver analytics engines against the configured table store.

Store selection and server settings come from the environment (FW_STORE_BACKEND,
FW_DATA_DIR, DATABASE_URL, FW_SQLITE_PATH) or the TOML file named by FW_CONFIG_FILE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != FormatText && opts.Format != FormatJSON {
				return fmt.Errorf("invalid format %q: must be %s or %s", opts.Format, FormatText, FormatJSON)
			}
			if opts.EnvFile != "" {
				if err := godotenv.Load(opts.EnvFile); err != nil {
					return fmt.Errorf("failed to load env file: %w", err)
				}
			}
			return nil
		},
	}

	format := opts.Format
	if format == "" {
		format = FormatText
	}
	cmd.PersistentFlags().StringVar(&opts.Format, "format", format, "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "load environment variables from this file first")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewDiscoverCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))
	cmd.AddCommand(NewRecommendCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

// Execute runs the root command. Called from cmd/fw.
func Execute(version string) {
	container.Version = version
	cmd := NewRootCommand(&RootOptions{})
	cmd.Version = version

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// session is an opened store plus the service built over it
type session struct {
	cfg     *config.Config
	store   ports.TableStore
	sql     *sqlstore.Store
	presets *presets.Set
	svc     *app.AnalyticsService
}

func (o *RootOptions) open(ctx context.Context) (*session, error) {
	cfg, err := o.LoadConfig()
	if err != nil {
		return nil, err
	}
	store, sql, err := o.OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	set, err := presets.Load(cfg.Presets.File)
	if err != nil {
		if sql != nil {
			sql.Close()
		}
		return nil, err
	}
	s := &session{cfg: cfg, store: store, sql: sql, presets: set}
	s.svc = s.service(store)
	return s, nil
}

func (s *session) service(store ports.TableStore) *app.AnalyticsService {
	return app.NewAnalyticsService(store, rng.NewSeeded(s.cfg.Analysis.Seed)).WithPresets(s.presets)
}

// detach copies every readable table into memory so writes never reach the real store
func (s *session) detach(ctx context.Context) error {
	mem := memstore.New()
	for _, name := range records.ReadableTables {
		rows, err := s.store.LoadTable(ctx, name)
		if errors.Is(err, core.ErrTableNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		mem.Seed(name, rows)
	}
	s.svc = s.service(mem)
	return nil
}

func (s *session) Close() error {
	if s.sql != nil {
		return s.sql.Close()
	}
	return nil
}
