package cli

import (
	"fmt"
	"strconv"

	"futureweaver/app"
	"futureweaver/internal/analysis/numeric"
	"futureweaver/internal/analysis/policy"

	"github.com/spf13/cobra"
)

type simulateOptions struct {
	preset    string
	runName   string
	water     float64
	climate   float64
	monsoon   float64
	butterfly bool
	dryRun    bool
}

// NewSimulateCommand creates the simulate command
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &simulateOptions{}
	defaults := policy.DefaultLevers()

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the policy simulator and record the run",
		Long: `Project the policy levers across every district and append the run to
simulation_runs. Levers start from --preset (or the defaults) and any lever flag
given explicitly overrides it. --dry-run works on an in-memory copy of the store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.preset, "preset", "", "start from a named lever preset")
	cmd.Flags().StringVar(&opts.runName, "run-name", "", "name recorded with the run")
	cmd.Flags().Float64Var(&opts.water, "water", defaults.WaterSubsidy, "water subsidy lever")
	cmd.Flags().Float64Var(&opts.climate, "climate", defaults.ClimatePolicy, "climate policy lever")
	cmd.Flags().Float64Var(&opts.monsoon, "monsoon", defaults.MonsoonModifier, "monsoon modifier lever")
	cmd.Flags().BoolVar(&opts.butterfly, "butterfly", defaults.ButterflyEffect, "enable the butterfly effect")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "simulate without writing to the store")

	return cmd
}

func runSimulate(cmd *cobra.Command, rootOpts *RootOptions, opts *simulateOptions) error {
	ctx := cmd.Context()
	s, err := rootOpts.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.dryRun {
		if err := s.detach(ctx); err != nil {
			return err
		}
	}

	levers := policy.DefaultLevers()
	runName := "Simulation"
	if opts.preset != "" {
		preset, err := s.svc.Preset(opts.preset)
		if err != nil {
			return err
		}
		levers, runName = preset.Levers, preset.Name
	}
	flags := cmd.Flags()
	if flags.Changed("water") {
		levers.WaterSubsidy = opts.water
	}
	if flags.Changed("climate") {
		levers.ClimatePolicy = opts.climate
	}
	if flags.Changed("monsoon") {
		levers.MonsoonModifier = opts.monsoon
	}
	if flags.Changed("butterfly") {
		levers.ButterflyEffect = opts.butterfly
	}
	if opts.runName != "" {
		runName = opts.runName
	}

	result, err := s.svc.SimulatePolicy(ctx, app.SimulateRequest{RunName: runName, Levers: levers})
	if err != nil {
		return err
	}

	out := newPrinter(rootOpts, cmd.OutOrStdout())
	if out.json() {
		return out.writeJSON(result)
	}

	rows := make([][]string, 0, len(result.Districts))
	for _, d := range result.Districts {
		rows = append(rows, []string{
			d.DistrictName,
			numeric.FormatDecimal(d.SimulatedDrought),
			strconv.Itoa(d.SimulatedMigration),
			d.MigrationRisk,
			strconv.FormatBool(d.IsSuitableDestination),
		})
	}
	if err := out.table([]string{"DISTRICT", "DROUGHT", "MIGRATION", "RISK", "SUITABLE"}, rows); err != nil {
		return err
	}
	sum := result.Summary
	out.line("")
	out.line("Levers:                %s", describeLevers(levers))
	out.line("Prevented migration:   %d", sum.TotalPreventedMigration)
	out.line("Drought reduction:     %s%% (effective %s%%)",
		numeric.FormatDecimal(sum.AvgDroughtReduction), numeric.FormatDecimal(sum.AvgEffectiveDroughtReduction))
	out.line("Suitable destinations: %d", sum.SuitableDestinationsCount)
	out.line("Confidence:            %s", numeric.FormatDecimal(sum.ConfidenceScore))
	if opts.dryRun {
		out.line("Dry run: %q was not recorded", runName)
	} else {
		out.line("Recorded run %q", runName)
	}
	return nil
}

// NewDiscoverCommand creates the discover command
func NewDiscoverCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Discover causal links between district indicators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			links, err := s.svc.DiscoverCausality(ctx)
			if err != nil {
				return err
			}

			out := newPrinter(rootOpts, cmd.OutOrStdout())
			if out.json() {
				return out.writeJSON(links)
			}
			if len(links) == 0 {
				out.line("No causal links above threshold")
				return nil
			}
			rows := make([][]string, 0, len(links))
			for _, l := range links {
				rows = append(rows, []string{
					string(l.CauseVariable),
					string(l.EffectVariable),
					numeric.FormatDecimal(l.Strength),
					numeric.FormatDecimal(l.ConfidenceScore),
					strconv.Itoa(l.LagDays),
					strconv.FormatBool(l.IsNonlinear),
				})
			}
			return out.table([]string{"CAUSE", "EFFECT", "STRENGTH", "CONFIDENCE", "LAG DAYS", "NONLINEAR"}, rows)
		},
	}
}

// NewAuditCommand creates the audit command
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Run the fairness audit across districts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			audit, err := s.svc.FairnessAudit(ctx)
			if err != nil {
				return err
			}

			out := newPrinter(rootOpts, cmd.OutOrStdout())
			if out.json() {
				return out.writeJSON(audit)
			}
			rows := make([][]string, 0, len(audit.Metrics))
			for _, m := range audit.Metrics {
				rows = append(rows, []string{m.Name, numeric.FormatDecimal(m.Value), m.Category})
			}
			if err := out.table([]string{"METRIC", "VALUE", "CATEGORY"}, rows); err != nil {
				return err
			}
			v := audit.AIVerification
			out.line("")
			out.line("Verification: %s (%s%% confidence)", v.Status, numeric.FormatDecimal(v.Confidence))
			out.line("%s", v.Reasoning)
			return nil
		},
	}
}

// NewRecommendCommand creates the recommend command
func NewRecommendCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "Generate policy recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			recs, err := s.svc.Recommendations(ctx)
			if err != nil {
				return err
			}

			out := newPrinter(rootOpts, cmd.OutOrStdout())
			if out.json() {
				return out.writeJSON(recs)
			}
			for i, r := range recs {
				if i > 0 {
					out.line("")
				}
				out.line("%d. [%s] %s", i+1, r.Priority, r.Title)
				out.line("   %s", r.Description)
				out.line("   Impact: %s", r.Impact)
				out.line("   Cost:   %s", r.Cost)
			}
			return nil
		},
	}
}

func describeLevers(l policy.Levers) string {
	return fmt.Sprintf("water=%s climate=%s monsoon=%s butterfly=%t",
		numeric.FormatDecimal(l.WaterSubsidy), numeric.FormatDecimal(l.ClimatePolicy),
		numeric.FormatDecimal(l.MonsoonModifier), l.ButterflyEffect)
}
