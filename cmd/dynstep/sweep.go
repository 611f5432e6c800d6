package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/dynstep/internal/experiment"
	"github.com/san-kum/dynstep/internal/storage"
	"github.com/san-kum/dynstep/internal/sweep"
	"github.com/san-kum/dynstep/internal/viz"
)

var (
	sweepParam  string
	sweepFrom   float64
	sweepTo     float64
	sweepPoints int

	gridSpecs  []string
	gridMetric string

	amplitude float64
	trials    int
	seed      uint64
	bound     float64
)

func addSweepCommands(root *cobra.Command) {
	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "vary one scenario parameter and summarise each run",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "sweep", "", "parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 5, "number of values")
	_ = sweepCmd.MarkFlagRequired("sweep")

	tuneCmd := &cobra.Command{
		Use:   "tune [scenario]",
		Short: "grid search scenario parameters for the smallest metric",
		Args:  cobra.ExactArgs(1),
		RunE:  runTune,
	}
	addRunFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&gridSpecs, "grid", nil, "parameter values, name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&gridMetric, "metric", "energy_drift", "metric to minimise")
	_ = tuneCmd.MarkFlagRequired("grid")

	perturbCmd := &cobra.Command{
		Use:   "perturb [scenario]",
		Short: "rerun from randomly shifted starts and count bounded outcomes",
		Args:  cobra.ExactArgs(1),
		RunE:  runPerturb,
	}
	addRunFlags(perturbCmd)
	perturbCmd.Flags().Float64Var(&amplitude, "amplitude", 0.01, "largest shift per component")
	perturbCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	perturbCmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	perturbCmd.Flags().Float64Var(&bound, "bound", 1e6, "largest final |component| counted as stable")

	batchCmd := &cobra.Command{
		Use:   "batch [plan.yaml]",
		Short: "run every entry of a plan file and store the results",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	root.AddCommand(sweepCmd, tuneCmd, perturbCmd, batchCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	s := &sweep.ParamSweep{Base: base, Param: sweepParam, Min: sweepFrom, Max: sweepTo, Points: sweepPoints}

	ctx, cancel := signalContext()
	defer cancel()

	points, err := s.Run(ctx, experiment.NewRegistry(), opts.Logger)
	if err != nil {
		return err
	}

	fmt.Printf("sweep %s over %s (%s, dt=%g)\n\n", sweepParam, base.Scenario, base.Scheme, base.Dt)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tSTEPS\tSTOPPED\tFINAL x0\tENERGY MIN\tENERGY MAX\tERROR")
	for _, p := range points {
		if p.Final == nil {
			fmt.Fprintf(w, "%g\t-\t-\t-\t-\t-\t%v\n", p.Value, p.Err)
			continue
		}
		errText := "-"
		if p.Err != nil {
			errText = p.Err.Error()
		}
		fmt.Fprintf(w, "%g\t%d\t%t\t%.6g\t%.6g\t%.6g\t%s\n",
			p.Value, p.Steps, p.Stopped, p.Final[0], p.EnergyMin, p.EnergyMax, errText)
	}
	return w.Flush()
}

// parseGrid reads name=v1,v2,... specs in flag order.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	var (
		names  []string
		values [][]float64
	)
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("grid %q: want name=v1,v2,...", spec)
		}
		var vs []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", name, err)
			}
			vs = append(vs, v)
		}
		names = append(names, strings.TrimSpace(name))
		values = append(values, vs)
	}
	return names, values, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	names, values, err := parseGrid(gridSpecs)
	if err != nil {
		return err
	}
	g, err := sweep.NewGridSearch(names, values)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	best, val, err := g.Search(ctx, base, experiment.NewRegistry(), gridMetric, opts.Logger)
	if err != nil {
		return err
	}

	fmt.Println(viz.HeaderStyle.Render("best parameters"))
	keys := make([]string, 0, len(best))
	for k := range best {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s = %g\n", k, best[k])
	}
	fmt.Println(viz.KeyValue(gridMetric, fmt.Sprintf("%.6g", val)))
	return nil
}

func runPerturb(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	p := &sweep.Perturb{Base: base, Amplitude: amplitude, Trials: trials, Seed: seed, Bound: bound}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := p.Run(ctx, experiment.NewRegistry(), opts.Logger)
	if err != nil {
		return err
	}
	stable, unstable := sweep.Stats(results)

	fmt.Printf("%d trials of %s, shifts up to %g\n", len(results), base.Scenario, amplitude)
	fmt.Println(viz.KeyValue("stable", viz.GoodStyle.Render(strconv.Itoa(stable))))
	style := viz.GoodStyle
	if unstable > 0 {
		style = viz.ErrorStyle
	}
	fmt.Println(viz.KeyValue("unstable", style.Render(strconv.Itoa(unstable))))
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	plan, err := sweep.LoadPlan(args[0])
	if err != nil {
		return err
	}

	st, err := storage.Open(opts.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := signalContext()
	defer cancel()

	outcomes, runErr := sweep.RunPlan(ctx, plan, experiment.NewRegistry(), opts.Logger)

	reg := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSCENARIO\tSCHEME\tRUN ID\tSTEPS\tSTATUS")
	for i, o := range outcomes {
		if o.Trajectory == nil {
			fmt.Fprintf(w, "%d\t%s\t%s\t-\t-\t%v\n", i+1, o.Config.Scenario, o.Config.Scheme, o.Err)
			continue
		}
		meta := &storage.RunMetadata{
			Scenario: o.Config.Scenario,
			Scheme:   o.Config.Scheme,
			Dt:       o.Config.Dt,
			Labels:   scenarioLabels(reg, o.Config.Scenario, len(o.Trajectory.Last())),
		}
		id, err := st.Save(meta, o.Trajectory, o.Err)
		if err != nil {
			return err
		}
		status := "ok"
		if o.Err != nil {
			status = o.Err.Error()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", i+1, meta.Scenario, meta.Scheme, id, meta.Steps, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func scenarioLabels(reg *experiment.Registry, scenario string, dim int) []string {
	s, err := reg.GetScenario(scenario)
	if err != nil || len(s.Labels) != dim {
		return nil
	}
	return s.Labels
}
