package container

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"futureweaver/adapters/memstore"
	"futureweaver/adapters/rng"
	"futureweaver/adapters/sqlstore"
	"futureweaver/adapters/tablefile"
	"futureweaver/app"
	"futureweaver/domain/records"
	"futureweaver/internal/api"
	"futureweaver/internal/config"
	apperrors "futureweaver/internal/errors"
	"futureweaver/internal/presets"
	"futureweaver/internal/telemetry"
	"futureweaver/ports"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Version is stamped at build time
var Version = "dev"

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	Store ports.TableStore
	SQL   *sqlstore.Store // set for the postgres and sqlite backends

	// Services
	Analytics  *app.AnalyticsService
	Dispatcher *api.Dispatcher

	shutdownTracing telemetry.ShutdownFunc
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg}, nil
}

// Init opens the store and builds the services and router
func (c *Container) Init(ctx context.Context) error {
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    c.Config.Telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       c.Config.Telemetry.Endpoint,
		Insecure:       c.Config.Telemetry.Insecure,
		SamplingRate:   c.Config.Telemetry.SampleRate,
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to initialize tracing")
	}
	c.shutdownTracing = shutdown

	if err := c.initStore(ctx); err != nil {
		return err
	}

	set, err := presets.Load(c.Config.Presets.File)
	if err != nil {
		return apperrors.Wrap(apperrors.ConfigInvalid(err.Error()), "failed to load presets")
	}

	c.Analytics = app.NewAnalyticsService(c.Store, rng.NewSeeded(c.Config.Analysis.Seed)).WithPresets(set)

	gin.SetMode(c.Config.Server.GinMode)
	c.Dispatcher = api.NewDispatcher(c.Analytics, c.Config.Server)

	log.Printf("[Container] Initialized with %s store", c.Config.Store.Backend)
	return nil
}

// OpenStore opens the configured table store. The returned SQL store is nil for
// file and memory backends.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (ports.TableStore, *sqlstore.Store, error) {
	switch cfg.Backend {
	case config.BackendCSV:
		s, err := tablefile.New(cfg.DataDir, cfg.CacheSize)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to open data directory")
		}
		return s, nil, nil
	case config.BackendPostgres:
		s, err := sqlstore.Open(ctx, sqlstore.DriverPostgres, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to open postgres store")
		}
		return s, s, nil
	case config.BackendSQLite:
		s, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, cfg.SQLitePath)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to open sqlite store")
		}
		return s, s, nil
	case config.BackendMemory:
		return memstore.New(), nil, nil
	default:
		return nil, nil, apperrors.ConfigInvalid(fmt.Sprintf("unknown store backend %q", cfg.Backend))
	}
}

func (c *Container) initStore(ctx context.Context) error {
	store, sql, err := OpenStore(ctx, c.Config.Store)
	if err != nil {
		return err
	}
	c.Store, c.SQL = store, sql
	return nil
}

// HealthCheck reports whether the store can serve the districts table
func (c *Container) HealthCheck(ctx context.Context) error {
	if c.SQL != nil {
		if err := c.SQL.DB().PingContext(ctx); err != nil {
			return err
		}
	}
	_, err := c.Store.LoadTable(ctx, records.TableDistricts)
	return err
}

// Serve runs the API listener, and the ops listener when enabled, until ctx is done
func (c *Container) Serve(ctx context.Context) error {
	if c.Dispatcher == nil {
		return fmt.Errorf("container not initialized")
	}
	server := c.Config.Server

	servers := []*http.Server{{
		Addr:         ":" + server.Port,
		Handler:      c.Dispatcher.Handler(),
		ReadTimeout:  server.ReadTimeout,
		WriteTimeout: server.WriteTimeout,
	}}
	if c.Config.Ops.Enabled {
		servers = append(servers, &http.Server{
			Addr:        ":" + c.Config.Ops.Port,
			Handler:     api.NewOpsRouter(c.HealthCheck),
			ReadTimeout: server.ReadTimeout,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			log.Printf("[Server] Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listener %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("[Server] Shutdown of %s failed: %v", srv.Addr, err)
			}
		}
		return nil
	})
	return g.Wait()
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error
	if c.shutdownTracing != nil {
		if err := c.shutdownTracing(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.SQL != nil {
		if err := c.SQL.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
