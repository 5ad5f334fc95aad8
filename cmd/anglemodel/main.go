// Command anglemodel trains the flat polynomial angle-error model from a
// JSON shot dataset and writes the JavaScript predictor artifact.
//
// Usage:
//
//	anglemodel [flags] <shot_data.json>
//
//	-degree N     polynomial degree (default 2)
//	-o, -output   output JavaScript file (default angle_model.js)
//	-a, -analyze  print the detailed per-range analysis
//	-plot PATH    write a residual scatter plot (format by extension)
//	-elimination  use the dependency-free elimination solver
//	-log-level    debug|info|warn|error (default info)
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cuelab/aimcal/dataset"
	"github.com/cuelab/aimcal/linear"
	"github.com/cuelab/aimcal/pkg/log"
	"github.com/cuelab/aimcal/trainer"
)

func main() {
	degree := flag.Int("degree", 2, "polynomial degree")
	output := flag.String("output", "angle_model.js", "output JavaScript file")
	flag.StringVar(output, "o", "angle_model.js", "output JavaScript file (shorthand)")
	analyze := flag.Bool("analyze", false, "show detailed analysis")
	flag.BoolVar(analyze, "a", false, "show detailed analysis (shorthand)")
	plotPath := flag.String("plot", "", "write a residual scatter plot to this path")
	elimination := flag.Bool("elimination", false, "use the dependency-free elimination solver")
	logLevel := flag.String("log-level", "info", "log level (debug|info|warn|error)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: anglemodel [flags] <shot_data.json>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	input := flag.Arg(0)

	log.SetupLogger(*logLevel)

	records, err := dataset.LoadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d shots from %s\n", len(records), input)

	cfg := trainer.DefaultFlatConfig()
	cfg.Degree = *degree
	if *elimination {
		cfg.Solver = linear.Elimination{}
	}

	model, err := trainer.FitFlat(records, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Extracted %d valid samples (%d dropped)\n", model.Report.Retained, model.Report.Dropped)
	for _, col := range model.Report.Columns {
		fmt.Printf("  %s range: [%.2f, %.2f]\n", col.Name, col.Min, col.Max)
	}

	fmt.Printf("\nPolynomial features (degree %d): %d terms\n", model.Degree, len(model.TermNames))

	fmt.Println("\n=== Model Performance ===")
	fmt.Printf("  R-squared: %.4f\n", model.R2)
	fmt.Printf("  RMSE: %.4f degrees\n", model.RMSE)
	fmt.Printf("  Mean Absolute Error: %.4f degrees\n", model.MAE)

	fmt.Println("\nSignificant coefficients:")
	for _, c := range model.SignificantCoefficients(10) {
		fmt.Printf("  %-20s: %+.6f\n", c.Term, c.Value)
	}

	if *analyze {
		if err := model.WriteAnalysis(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *plotPath != "" {
		if err := model.SaveResidualPlot(*plotPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote residual plot: %s\n", *plotPath)
	}

	if err := os.WriteFile(*output, []byte(model.JS()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nGenerated JavaScript model: %s\n", *output)
}
