package app

import (
	"context"
	"errors"
	"fmt"

	"futureweaver/domain/core"
	"futureweaver/domain/district"
	"futureweaver/domain/records"
	"futureweaver/internal/analysis/fairness"
	"futureweaver/internal/analysis/recommend"
	"futureweaver/internal/report"

	"golang.org/x/sync/errgroup"
)

// ListTable returns a readable table verbatim, in store order
func (s *AnalyticsService) ListTable(ctx context.Context, name string) ([]records.Record, error) {
	if !records.IsReadable(name) {
		return nil, core.NewNotFoundError("table", name)
	}
	var rows []records.Record
	err := s.observe(ctx, "list_"+name, func(ctx context.Context) error {
		var err error
		rows, err = s.load(ctx, name)
		return err
	})
	return rows, err
}

// AppendLog appends rec to one of the append-only result logs
func (s *AnalyticsService) AppendLog(ctx context.Context, name string, rec records.Record) (records.Record, error) {
	if !records.IsAppendable(name) {
		return nil, fmt.Errorf("%w: %s", core.ErrReadOnlyTable, name)
	}
	if rec == nil {
		return nil, core.NewInvalidInputError("record", "must be a JSON object")
	}
	var saved records.Record
	err := s.observe(ctx, "append_"+name, func(ctx context.Context) error {
		var err error
		saved, err = s.append(ctx, name, rec)
		return err
	})
	return saved, err
}

// ResilienceScorecard returns every district with a resilience_scores list holding its
// score rows. Both tables are loaded concurrently.
func (s *AnalyticsService) ResilienceScorecard(ctx context.Context) ([]records.Record, error) {
	var out []records.Record
	err := s.observe(ctx, "resilience_scorecard", func(ctx context.Context) error {
		var districts, scores []records.Record
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			districts, err = s.load(gctx, records.TableDistricts)
			return err
		})
		g.Go(func() error {
			var err error
			scores, err = s.load(gctx, records.TableResilienceScores)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		byDistrict := make(map[string][]records.Record)
		for _, row := range scores {
			id := row.String("district_id")
			byDistrict[id] = append(byDistrict[id], row)
		}

		out = make([]records.Record, 0, len(districts))
		for _, d := range districts {
			joined := d.Clone()
			list := byDistrict[d.String(records.FieldID)]
			if list == nil {
				list = []records.Record{}
			}
			joined["resilience_scores"] = list
			out = append(out, joined)
		}
		return nil
	})
	return out, err
}

// PolicyReport gathers the inputs of the policy brief. Only the districts table is
// required; missing logs count as empty and analyses that cannot run are left out.
func (s *AnalyticsService) PolicyReport(ctx context.Context) (*report.Input, error) {
	in := &report.Input{}
	err := s.observe(ctx, "policy_report", func(ctx context.Context) error {
		var rows, runs, certs []records.Record
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			rows, err = s.load(gctx, records.TableDistricts)
			return err
		})
		g.Go(func() error {
			var err error
			runs, err = s.optional(gctx, records.TableSimulationRuns)
			return err
		})
		g.Go(func() error {
			var err error
			certs, err = s.optional(gctx, records.TableCausalCertificates)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		table := district.FromRecords(rows)
		in.GeneratedAt = s.now()
		in.DistrictCount = table.Len()
		in.Runs = runs
		in.Certificates = certs

		recs, err := recommend.Generate(table)
		if err == nil {
			in.Recommendations = recs
		} else if !skippable(err) {
			return err
		}

		var audit *fairness.Report
		audit, err = s.auditor.Audit(table)
		if err == nil {
			in.Fairness = audit
		} else if !skippable(err) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// optional loads a table that may not exist yet
func (s *AnalyticsService) optional(ctx context.Context, name string) ([]records.Record, error) {
	rows, err := s.load(ctx, name)
	if errors.Is(err, core.ErrTableNotFound) {
		return nil, nil
	}
	return rows, err
}

func skippable(err error) bool {
	return errors.Is(err, core.ErrDegenerateInput) || errors.Is(err, core.ErrDataUnavailable)
}
