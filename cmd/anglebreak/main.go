// Command anglebreak trains the fixed-breakpoint angle-error model: a cubic
// in cutAngle at or below the break angle and a linear model in (cutAngle,
// power, distance, cutAngle·distance) above it. The fitted model is written
// as a JavaScript predictor artifact.
//
// Usage:
//
//	anglebreak -o <model.js> [-break-deg N] <shot_data.json>
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuelab/aimcal/dataset"
	"github.com/cuelab/aimcal/pkg/log"
	"github.com/cuelab/aimcal/trainer"
)

func main() {
	output := flag.String("output", "", "output JavaScript file (required)")
	flag.StringVar(output, "o", "", "output JavaScript file (shorthand)")
	breakDeg := flag.Float64("break-deg", 30.0, "cut-angle breakpoint in degrees")
	logLevel := flag.String("log-level", "info", "log level (debug|info|warn|error)")
	flag.Parse()

	if flag.NArg() != 1 || *output == "" {
		fmt.Fprintln(os.Stderr, "usage: anglebreak -o <model.js> [flags] <shot_data.json>")
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

	model, err := trainer.FitFixedBreak(records, trainer.FixedBreakConfig{BreakDeg: *breakDeg})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if dir := filepath.Dir(*output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if err := os.WriteFile(*output, []byte(model.JS()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Model written to %s\n", *output)
	fmt.Printf("R² = %.6f\n", model.R2)
	fmt.Printf("RMSE = %.6f deg\n", model.RMSE)
}
