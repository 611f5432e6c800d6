package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/dynstep/internal/config"
	"github.com/san-kum/dynstep/internal/dynamo"
	"github.com/san-kum/dynstep/internal/experiment"
	"github.com/san-kum/dynstep/internal/integrators"
)

func listPresets(cmd *cobra.Command, args []string) error {
	var scenarios []string
	if len(args) == 1 {
		if _, ok := config.Presets[args[0]]; !ok {
			return fmt.Errorf("no presets for scenario: %s", args[0])
		}
		scenarios = args
	} else {
		for name := range config.Presets {
			scenarios = append(scenarios, name)
		}
		sort.Strings(scenarios)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tPRESET\tSCHEME\tDT\tSTEPS\tSTOP\tOVERRIDES")
	for _, scenario := range scenarios {
		for _, name := range config.ListPresets(scenario) {
			p := config.GetPreset(scenario, name)
			steps := "-"
			if p.Steps > 0 {
				steps = fmt.Sprint(p.Steps)
			}
			stop := p.Stop
			if stop == "" {
				stop = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%s\t%s\t%s\n",
				scenario, name, p.Scheme, p.Dt, steps, stop, overrides(p))
		}
	}
	return w.Flush()
}

func overrides(cfg *config.Config) string {
	var parts []string
	if len(cfg.Init) > 0 {
		parts = append(parts, fmt.Sprintf("init=%v", cfg.Init))
	}
	names := make([]string, 0, len(cfg.Params))
	for name := range cfg.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%g", name, cfg.Params[name]))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func listScenarios(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tDIM\tSTOPS\tPARAMS\tDESCRIPTION")
	for _, name := range reg.ListScenarios() {
		s, err := reg.GetScenario(name)
		if err != nil {
			return err
		}
		sys := s.New()

		stops := strings.Join(s.StopNames(), ",")
		if stops == "" {
			stops = "-"
		}
		paramList := "-"
		if c, ok := sys.(dynamo.Configurable); ok {
			ps := c.GetParams()
			keys := make([]string, 0, len(ps))
			for k := range ps {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			paramList = strings.Join(keys, ",")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", name, sys.Dim(), stops, paramList, s.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCHEME\tORDER\tSTAGES\tSTATEFUL")
	for _, name := range integrators.Names() {
		info, err := integrators.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%t\n", info.Name, info.Order, info.Stages, info.Stateful)
	}
	return w.Flush()
}
