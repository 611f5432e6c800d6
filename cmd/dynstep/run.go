package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynstep/internal/analysis"
	"github.com/san-kum/dynstep/internal/config"
	"github.com/san-kum/dynstep/internal/dynamo"
	"github.com/san-kum/dynstep/internal/experiment"
	"github.com/san-kum/dynstep/internal/integrators"
	"github.com/san-kum/dynstep/internal/physics"
	"github.com/san-kum/dynstep/internal/storage"
	"github.com/san-kum/dynstep/internal/viz"
)

// resolveConfig layers the run configuration: defaults, then the preset, then
// the config file, then any flag set explicitly on the command line.
func resolveConfig(cmd *cobra.Command, scenario string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(scenario, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(scenario))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.Scenario = scenario

	flags := cmd.Flags()
	if flags.Changed("scheme") {
		cfg.Scheme = scheme
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("stop") {
		cfg.Stop = stopName
	}
	if flags.Changed("init") {
		cfg.Init = append([]float64(nil), initState...)
	}
	if flags.Changed("param") {
		parsed, err := parseParams(params)
		if err != nil {
			return nil, err
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, len(parsed))
		}
		for k, v := range parsed {
			cfg.Params[k] = v
		}
	}
	if f := flags.Lookup("states-out"); f != nil && f.Changed {
		cfg.Output.States = statesOut
	}
	if f := flags.Lookup("energies-out"); f != nil && f.Changed {
		cfg.Output.Energies = energiesOut
	}
	return cfg, nil
}

func parseParams(raw map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for name, s := range raw {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// signalContext cancels on Ctrl-C so a long run stops at the next step.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
	}

	st, err := storage.Open(opts.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	exp := experiment.New(cfg, experiment.NewRegistry(), opts.Logger)
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s with %s...\n", cfg.Scenario, cfg.Scheme)
	start := time.Now()
	tr, runErr := exp.Run(ctx)
	elapsed := time.Since(start)
	if tr == nil {
		return runErr
	}

	meta := &storage.RunMetadata{
		Scenario: cfg.Scenario,
		Scheme:   cfg.Scheme,
		Dt:       cfg.Dt,
		Labels:   exp.Labels(),
	}
	runID, err := st.Save(meta, tr, runErr)
	if err != nil {
		return err
	}

	fmt.Println(viz.KeyValue("run id", runID))
	fmt.Println(viz.KeyValue("completed in", elapsed.String()))
	fmt.Println(viz.KeyValue("steps", strconv.Itoa(tr.StepsTaken)))
	fmt.Println(viz.KeyValue("final time", fmt.Sprintf("%.6g", tr.Times[tr.Len()-1])))
	if cfg.Stop != "" {
		fmt.Println(viz.KeyValue("stopped", strconv.FormatBool(tr.Stopped)))
	}
	if len(tr.Energies) > 0 {
		fmt.Println(viz.KeyValue("energy drift", viz.DriftStyle(tr.EnergyDrift).Render(fmt.Sprintf("%.3e", tr.EnergyDrift))))
	}
	printState(exp.Labels(), tr.Last())

	if len(tr.Metrics) > 0 {
		fmt.Println()
		fmt.Println(viz.HeaderStyle.Render("metrics"))
		names := make([]string, 0, len(tr.Metrics))
		for name := range tr.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %.6f\n", name, tr.Metrics[name])
		}
	}

	if plotEnergy {
		if chart := viz.PlotEnergy(tr, 80, 10); chart != "" {
			fmt.Println()
			fmt.Println(chart)
		}
	}

	if runErr != nil {
		fmt.Println(viz.ErrorStyle.Render("run failed, partial trajectory stored"))
	}
	return runErr
}

func printState(labels []string, x dynamo.State) {
	fmt.Println()
	fmt.Println(viz.HeaderStyle.Render("final state"))
	for i, v := range x {
		label := fmt.Sprintf("x%d", i)
		if i < len(labels) {
			label = labels[i]
		}
		fmt.Printf("  %s = %.6g\n", label, v)
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.NewRegistry(), opts.Logger)
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	tr, runErr := exp.Run(ctx)
	if tr == nil {
		return runErr
	}

	title := fmt.Sprintf("%s / %s / dt=%g", cfg.Scenario, cfg.Scheme, cfg.Dt)
	p := tea.NewProgram(viz.NewModel(title, exp.System(), tr, exp.Labels(), runErr))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func compareSchemes(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	schemes := args[1:]
	if len(schemes) == 0 {
		sys, err := reg.GetSystem(base.Scenario)
		if err != nil {
			return err
		}
		schemes = integrators.NamesFor(sys.Dim())
	}

	var (
		jobs  []dynamo.Job
		infos []integrators.Info
	)
	for _, name := range schemes {
		info, err := integrators.Lookup(name)
		if err != nil {
			return err
		}
		cfg := base.Clone()
		cfg.Scheme = name

		// each job gets its own experiment so params and stops resolve per system
		exp := experiment.New(cfg, reg, opts.Logger)
		if err := exp.Setup(); err != nil {
			return err
		}
		until, err := reg.GetStop(cfg.Scenario, cfg.Stop, exp.System())
		if err != nil {
			return err
		}
		jobs = append(jobs, dynamo.Job{
			System:  exp.System(),
			Stepper: info.New(),
			X0:      exp.InitialState(),
			Config:  dynamo.Config{Dt: cfg.Dt, Steps: cfg.Steps, Until: until},
		})
		infos = append(infos, info)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("comparing schemes for %s (dt=%g, steps=%d)\n\n", base.Scenario, base.Dt, base.Steps)
	start := time.Now()
	results, errs := dynamo.RunEach(ctx, jobs)
	elapsed := time.Since(start)

	var failed []error

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCHEME\tORDER\tSTAGES\tSTEPS\tFINAL x0\tENERGY DRIFT\tSTATUS")
	for i, tr := range results {
		info := infos[i]
		if tr == nil {
			fmt.Fprintf(w, "%s\t%d\t%d\t-\t-\t-\tnot run\n", info.Name, info.Order, info.Stages)
			if errs[i] != nil {
				failed = append(failed, fmt.Errorf("%s: %w", info.Name, errs[i]))
			}
			continue
		}
		drift := "-"
		if len(tr.Energies) > 0 {
			drift = fmt.Sprintf("%.3e", tr.EnergyDrift)
		}
		status := "ok"
		switch {
		case errs[i] != nil && !errors.Is(errs[i], dynamo.ErrStepLimit):
			status = "failed"
			failed = append(failed, fmt.Errorf("%s: %w", info.Name, errs[i]))
		case tr.Stopped:
			status = "stopped"
		case tr.StepsTaken < stepLimit(jobs[i].Config):
			status = "incomplete"
		case jobs[i].Config.Until != nil:
			status = "step limit"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.6g\t%s\t%s\n",
			info.Name, info.Order, info.Stages, tr.StepsTaken, tr.Last()[0], drift, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\ntotal %v\n", elapsed)

	return errors.Join(failed...)
}

func stepLimit(cfg dynamo.Config) int {
	if cfg.Until != nil && cfg.Steps == 0 {
		return dynamo.DefaultMaxSteps
	}
	return cfg.Steps
}

func runConvergence(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	sys, err := reg.GetSystem(args[0])
	if err != nil {
		return err
	}
	exact, ok := sys.(physics.Exact)
	if !ok {
		return fmt.Errorf("scenario %s has no exact solution", args[0])
	}
	d, ok := sys.(experiment.Defaulter)
	if !ok {
		return fmt.Errorf("scenario %s has no default state", args[0])
	}
	if levels < 2 {
		return fmt.Errorf("levels must be at least 2, got %d", levels)
	}

	schemes := args[1:]
	if len(schemes) == 0 {
		schemes = integrators.NamesFor(sys.Dim())
	}

	dts := make([]float64, levels)
	for i := range dts {
		dts[i] = coarseDt / float64(int(1)<<i)
	}

	ctx, cancel := signalContext()
	defer cancel()

	for _, name := range schemes {
		info, err := integrators.Lookup(name)
		if err != nil {
			return err
		}
		rows, err := analysis.Convergence(ctx, sys, info.New, d.DefaultState(), exact.Exact, dts, duration)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("%s (expected order %d)", name, info.Order)))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DT\tSTEPS\tERROR\tRATIO\tORDER")
		for i, row := range rows {
			if i == 0 {
				fmt.Fprintf(w, "%g\t%d\t%.3e\t-\t-\n", row.Dt, row.Steps, row.Error)
				continue
			}
			fmt.Fprintf(w, "%g\t%d\t%.3e\t%.2f\t%.2f\n", row.Dt, row.Steps, row.Error, row.Ratio, row.Order)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}
