package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/dynstep/internal/analysis"
	"github.com/san-kum/dynstep/internal/export"
)

var (
	svgOut  string
	svgDots bool
)

func addExportCommands(root *cobra.Command) {
	svgCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw two state components of a run as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for the x axis")
	svgCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for the y axis")
	svgCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default stdout)")
	svgCmd.Flags().BoolVar(&svgDots, "dots", false, "render the terminal canvas as dots instead of a path")
	root.AddCommand(svgCmd)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	tr, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	portrait, err := analysis.NewPhasePortrait(tr, xAxis, yAxis)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if svgDots {
		err = export.CanvasSVG(w, export.PortraitCanvas(portrait, 80, 40), 4)
	} else {
		err = export.PathSVG(w, portrait.Points, 800, 600, export.PathColor)
	}
	if err != nil {
		return err
	}
	if svgOut != "" {
		fmt.Fprintf(os.Stderr, "wrote %s\n", svgOut)
	}
	return nil
}
