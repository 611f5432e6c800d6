package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/dynstep/internal/config"
)

var (
	opts *settings

	// run flags, shared by run, live and compare
	scheme      string
	dt          float64
	steps       int
	stopName    string
	configFile  string
	preset      string
	initState   []float64
	params      map[string]string
	statesOut   string
	energiesOut string
	saveConfig  string

	// phase
	xAxis int
	yAxis int

	// convergence
	coarseDt float64
	duration float64
	levels   int

	// phase section
	section   int
	threshold float64

	plotEnergy bool
	overlay    bool
	exportJSON bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dynstep",
		Short:         "time-stepping lab for physics lessons",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			opts = s
			return nil
		},
	}

	rootCmd.PersistentFlags().String(keyData, defaultDataDir, "data directory")
	rootCmd.PersistentFlags().BoolP(keyVerbose, "v", false, "log diagnostics to stderr")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario and store the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&statesOut, "states-out", "", "write per-step states to this csv")
	runCmd.Flags().StringVar(&energiesOut, "energies-out", "", "write per-step energies to this csv")
	runCmd.Flags().BoolVar(&plotEnergy, "plot", false, "plot the energy series after the run")
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the resolved run config to this yaml file")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a scenario and play it back in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	compareCmd := &cobra.Command{
		Use:   "compare [scenario] [schemes...]",
		Short: "run one scenario under several schemes",
		Long:  "Runs the scenario once per scheme, concurrently, and tabulates final state and energy drift. With no schemes listed, every registered scheme is used.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareSchemes,
	}
	addRunFlags(compareCmd)

	convergenceCmd := &cobra.Command{
		Use:   "convergence [scenario] [schemes...]",
		Short: "measure global error against the exact solution",
		Long:  "Halves dt repeatedly and reports the error at a fixed end time together with the observed order. The scenario needs a closed-form solution (oscillator, decay).",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runConvergence,
	}
	convergenceCmd.Flags().Float64Var(&coarseDt, "dt", 0.1, "coarsest timestep")
	convergenceCmd.Flags().Float64Var(&duration, "time", 1.0, "end time, a multiple of dt")
	convergenceCmd.Flags().IntVar(&levels, "levels", 5, "number of step sizes")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot state components of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().BoolVar(&overlay, "overlay", false, "draw all components on one chart")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of two state components",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for the x axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for the y axis")
	phaseCmd.Flags().IntVar(&section, "section", -1, "plot only upward crossings of this component through --threshold")
	phaseCmd.Flags().Float64Var(&threshold, "threshold", 0, "crossing level for --section")

	exportCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "print a run's states as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().BoolVar(&exportJSON, "json", false, "print metadata and states as json instead")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list presets, for one scenario or all",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list scenarios and schemes",
		Args:  cobra.NoArgs,
		RunE:  listScenarios,
	}

	rootCmd.AddCommand(runCmd, liveCmd, compareCmd, convergenceCmd, listCmd, plotCmd,
		phaseCmd, exportCmd, presetsCmd, scenariosCmd)
	addSweepCommands(rootCmd)
	addExportCommands(rootCmd)
	return rootCmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&scheme, "scheme", config.DefaultScheme, "integration scheme")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "step count, or the cap when --stop is set")
	cmd.Flags().StringVar(&stopName, "stop", "", "named stop condition of the scenario")
	cmd.Flags().StringVar(&configFile, "config", "", "run config file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64SliceVar(&initState, "init", nil, "initial state, comma separated")
	cmd.Flags().StringToStringVar(&params, "param", nil, "scenario parameter, name=value")
}
