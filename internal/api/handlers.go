package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"futureweaver/app"
	"futureweaver/domain/core"
	"futureweaver/domain/records"
	"futureweaver/internal/analysis/policy"
	"futureweaver/internal/export"
	"futureweaver/internal/report"

	"github.com/gin-gonic/gin"
)

func (d *Dispatcher) handleDistricts(c *gin.Context) {
	rows, err := d.svc.ListDistricts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}

func (d *Dispatcher) handleListTable(table string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := d.svc.ListTable(c.Request.Context(), table)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(rows))
	}
}

func (d *Dispatcher) handleAppendLog(table string) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := readBody(c)
		if err != nil {
			fail(c, err)
			return
		}
		saved, err := d.svc.AppendLog(c.Request.Context(), table, b.record())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, saved)
	}
}

func (d *Dispatcher) handleResilienceScorecard(c *gin.Context) {
	rows, err := d.svc.ResilienceScorecard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}

func (d *Dispatcher) handleFairnessAudit(c *gin.Context) {
	audit, err := d.svc.FairnessAudit(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, audit)
}

func (d *Dispatcher) handleRecommendations(c *gin.Context) {
	recs, err := d.svc.Recommendations(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (d *Dispatcher) handleDiscoverCausality(c *gin.Context) {
	links, err := d.svc.DiscoverCausality(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if links == nil {
		c.JSON(http.StatusOK, []interface{}{})
		return
	}
	c.JSON(http.StatusOK, links)
}

// handleSimulatePolicy starts from the named preset, or the default levers, and applies
// any lever given explicitly in the body on top
func (d *Dispatcher) handleSimulatePolicy(c *gin.Context) {
	b, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}

	levers := policy.DefaultLevers()
	runName := "Simulation"
	if b.has("preset") {
		preset, err := d.svc.Preset(b.text("preset", ""))
		if err != nil {
			fail(c, err)
			return
		}
		levers = preset.Levers
		runName = preset.Name
	}

	levers, err = leversFrom(b, levers)
	if err != nil {
		fail(c, err)
		return
	}

	result, err := d.svc.SimulatePolicy(c.Request.Context(), app.SimulateRequest{
		RunName: b.text("run_name", runName),
		Levers:  levers,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (d *Dispatcher) handleCounterfactuals(c *gin.Context) {
	b, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	params := policy.DefaultCounterfactualParams()
	params.InterventionName = b.text("intervention_name", params.InterventionName)
	if params.WaterSubsidy, err = b.number("water_subsidy", params.WaterSubsidy); err != nil {
		fail(c, err)
		return
	}
	if params.ClimatePolicy, err = b.number("climate_policy", params.ClimatePolicy); err != nil {
		fail(c, err)
		return
	}

	scenarios, err := d.svc.GenerateCounterfactual(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, scenarios)
}

func (d *Dispatcher) handlePredictImpact(c *gin.Context) {
	b, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	params := policy.DefaultImpactParams()
	if params.Budget, err = b.number("budget", params.Budget); err != nil {
		fail(c, err)
		return
	}
	if params.TimeHorizon, err = b.number("time_horizon", params.TimeHorizon); err != nil {
		fail(c, err)
		return
	}
	if params.Scale, err = b.number("scale", params.Scale); err != nil {
		fail(c, err)
		return
	}

	id, err := core.ParseDistrictID(b.text("district_id", ""))
	if err != nil {
		fail(c, err)
		return
	}
	prediction, err := d.svc.PredictImpact(c.Request.Context(), id, params)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction)
}

func (d *Dispatcher) handlePresets(c *gin.Context) {
	c.JSON(http.StatusOK, d.svc.Presets())
}

func (d *Dispatcher) handlePolicyReport(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "html"))
	if format != "html" && format != "md" {
		fail(c, core.NewInvalidInputError("format", fmt.Sprintf("unsupported report format %q", format)))
		return
	}

	in, err := d.svc.PolicyReport(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if format == "md" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", report.Markdown(*in))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(*in))
}

func (d *Dispatcher) handleExport(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		fail(c, err)
		return
	}

	table := c.Param("table")
	rows, err := d.svc.ListTable(c.Request.Context(), table)
	if err != nil {
		fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, export.ColumnsFor(table, rows), rows); err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(table, format, d.now())))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// leversFrom overrides base with the levers present in b
func leversFrom(b body, base policy.Levers) (policy.Levers, error) {
	var err error
	if base.WaterSubsidy, err = b.number("water_subsidy_input", base.WaterSubsidy); err != nil {
		return base, err
	}
	if base.ClimatePolicy, err = b.number("climate_policy_input", base.ClimatePolicy); err != nil {
		return base, err
	}
	if base.MonsoonModifier, err = b.number("monsoon_modifier", base.MonsoonModifier); err != nil {
		return base, err
	}
	if base.ButterflyEffect, err = b.flag("butterfly_effect_enabled", base.ButterflyEffect); err != nil {
		return base, err
	}
	return base, nil
}

func nonNil(rows []records.Record) []records.Record {
	if rows == nil {
		return []records.Record{}
	}
	return rows
}
