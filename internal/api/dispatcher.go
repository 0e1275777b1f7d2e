// Package api maps HTTP requests onto the analytics service.
package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"futureweaver/app"
	"futureweaver/domain/core"
	"futureweaver/domain/records"
	"futureweaver/internal/analysis/causal"
	"futureweaver/internal/analysis/fairness"
	"futureweaver/internal/analysis/policy"
	"futureweaver/internal/analysis/recommend"
	"futureweaver/internal/config"
	apperrors "futureweaver/internal/errors"
	"futureweaver/internal/metrics"
	"futureweaver/internal/presets"
	"futureweaver/internal/report"
	"futureweaver/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

// Analytics is the service surface the dispatcher serves
type Analytics interface {
	ListDistricts(ctx context.Context) ([]records.Record, error)
	ListTable(ctx context.Context, name string) ([]records.Record, error)
	AppendLog(ctx context.Context, name string, rec records.Record) (records.Record, error)
	ResilienceScorecard(ctx context.Context) ([]records.Record, error)
	FairnessAudit(ctx context.Context) (*fairness.Report, error)
	Recommendations(ctx context.Context) ([]recommend.Recommendation, error)
	DiscoverCausality(ctx context.Context) ([]causal.Link, error)
	SimulatePolicy(ctx context.Context, req app.SimulateRequest) (*policy.Result, error)
	GenerateCounterfactual(ctx context.Context, params policy.CounterfactualParams) ([]policy.Scenario, error)
	PredictImpact(ctx context.Context, id core.DistrictID, params policy.ImpactParams) (*policy.Prediction, error)
	PolicyReport(ctx context.Context) (*report.Input, error)
	Presets() []presets.Preset
	Preset(name string) (presets.Preset, error)
}

// Dispatcher routes /api requests to the analytics service and serializes results.
// Failures are written as {"error": message} with the mapped status.
type Dispatcher struct {
	svc     Analytics
	engine  *gin.Engine
	limiter *rate.Limiter
	origins []string
	now     core.Clock
}

// NewDispatcher builds the router. A zero rate limit disables limiting.
func NewDispatcher(svc Analytics, cfg config.ServerConfig) *Dispatcher {
	d := &Dispatcher{
		svc:     svc,
		engine:  gin.New(),
		origins: cfg.CORSOrigins,
		now:     core.SystemClock,
	}
	if cfg.RateLimit > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	d.engine.Use(gin.Logger(), gin.CustomRecovery(recovered))
	d.engine.Use(d.tracing(), d.instrument(), d.rateLimit())
	d.engine.NoRoute(func(c *gin.Context) {
		fail(c, apperrors.NotFound("route "+c.Request.URL.Path))
	})
	d.setupRoutes()
	return d
}

// WithClock pins the clock used for export file names
func (d *Dispatcher) WithClock(clock core.Clock) *Dispatcher {
	d.now = clock
	return d
}

// Engine exposes the gin engine
func (d *Dispatcher) Engine() *gin.Engine {
	return d.engine
}

// Handler wraps the router with CORS handling
func (d *Dispatcher) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: d.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders: []string{"Content-Disposition", "Content-Length", "Content-Type"},
		MaxAge:         86400,
	}).Handler(d.engine)
}

func (d *Dispatcher) setupRoutes() {
	api := d.engine.Group("/api")

	api.GET("/districts", d.handleDistricts)
	for _, table := range []string{
		records.TableCausalLinks,
		records.TableCounterfactualScenarios,
		records.TableResilienceScores,
		records.TableMigrationEvents,
		records.TablePolicyInterventions,
	} {
		api.GET("/"+table, d.handleListTable(table))
	}
	for _, table := range records.AppendableTables {
		api.GET("/"+table, d.handleListTable(table))
		api.POST("/"+table, d.handleAppendLog(table))
	}

	api.GET("/resilience_scorecard", d.handleResilienceScorecard)
	api.GET("/fairness_audit", d.handleFairnessAudit)
	api.GET("/ai_recommendations", d.handleRecommendations)
	api.GET("/discover_causality", d.handleDiscoverCausality)
	api.POST("/simulate_policy", d.handleSimulatePolicy)
	api.POST("/generate_dynamic_counterfactuals", d.handleCounterfactuals)
	api.POST("/predict_impact", d.handlePredictImpact)

	api.GET("/presets", d.handlePresets)
	api.GET("/policy_report", d.handlePolicyReport)
	api.GET("/export/:table", d.handleExport)
}

// fail writes err as {"error": message} with its mapped status
func fail(c *gin.Context, err error) {
	appErr := apperrors.FromDomain(err)
	status := apperrors.HTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		log.Printf("[Dispatcher] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": appErr.Message})
}

// recovered answers a panicking handler with a 500 and no panic detail
func recovered(c *gin.Context, err any) {
	log.Printf("[Dispatcher] panic in %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	fail(c, apperrors.InternalError("Internal server error"))
}

// tracing starts a server span per request
func (d *Dispatcher) tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), c.Request.Method+" "+route(c))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// instrument records request counts and latency per route
func (d *Dispatcher) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		r := route(c)
		metrics.HTTPRequests.WithLabelValues(r, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(r).Observe(time.Since(start).Seconds())
	}
}

// rateLimit rejects requests beyond the configured rate with 429
func (d *Dispatcher) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if d.limiter != nil && !d.limiter.Allow() {
			metrics.RateLimited.Inc()
			fail(c, apperrors.New(apperrors.CodeRateLimited, "Too many requests"))
			return
		}
		c.Next()
	}
}

func route(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}
