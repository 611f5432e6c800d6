package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/dynstep/internal/analysis"
	"github.com/san-kum/dynstep/internal/sink"
	"github.com/san-kum/dynstep/internal/storage"
	"github.com/san-kum/dynstep/internal/viz"
)

const (
	plotWidth  = 80
	plotHeight = 10
	maxPlots   = 6
)

func openStore() (*storage.Store, error) {
	return storage.Open(opts.DataDir)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tSCHEME\tTIME\tDT\tSTEPS\tDRIFT\tSTATUS")

	for _, run := range runs {
		status := "ok"
		switch {
		case run.Error != "":
			status = "failed"
		case run.Stopped:
			status = "stopped"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%d\t%.2e\t%s\n",
			run.ID,
			run.Scenario,
			run.Scheme,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Dt,
			run.Steps,
			run.EnergyDrift,
			status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s (%s, dt=%g)\n", meta.Scenario, meta.Scheme, meta.Dt)
	fmt.Printf("samples: %d\n\n", tr.Len())
	if meta.Error != "" {
		fmt.Println(viz.ErrorStyle.Render("run failed: " + meta.Error))
		fmt.Println()
	}

	labels := meta.Labels
	if len(labels) != len(tr.States[0]) {
		labels = sink.ComponentLabels(len(tr.States[0]))
	}

	n := min(len(labels), maxPlots)
	if overlay {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		chart, err := viz.PlotComponents(tr, labels, indices, plotWidth, 2*plotHeight)
		if err != nil {
			return err
		}
		fmt.Println(chart)
		return nil
	}
	for i := 0; i < n; i++ {
		fmt.Println(viz.Plot(tr.Component(i), labels[i]+" vs time", plotWidth, plotHeight))
		fmt.Println()
	}

	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	var portrait *analysis.PhasePortrait
	if section >= 0 {
		portrait, err = analysis.PoincareSectionOf(tr, section, threshold, xAxis, yAxis)
	} else {
		portrait, err = analysis.NewPhasePortrait(tr, xAxis, yAxis)
	}
	if err != nil {
		return err
	}
	if len(portrait.Points) == 0 {
		return fmt.Errorf("no crossings of %g by component %d", threshold, section)
	}

	name := func(i int) string {
		if i < len(meta.Labels) {
			return meta.Labels[i]
		}
		return fmt.Sprintf("x%d", i)
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("x-axis: %s, y-axis: %s\n", name(xAxis), name(yAxis))
	if section >= 0 {
		fmt.Printf("section: %s = %g, %d crossings\n", name(section), threshold, len(portrait.Points))
	}
	fmt.Println()
	fmt.Print(portrait.ASCII(70, 20))

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if exportJSON {
		return st.ExportJSON(os.Stdout, args[0])
	}
	return st.ExportCSV(os.Stdout, args[0])
}
