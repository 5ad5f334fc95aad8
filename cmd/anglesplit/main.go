// Command anglesplit trains the adaptive piecewise angle-error model:
// power brackets, a searched cut-angle split per bracket, and two
// ridge-polynomial sub-models per split. The fitted model is written as a
// JavaScript predictor artifact.
//
// Usage:
//
//	anglesplit [flags] <shot_data.json>
//
//	-o, -output   output JavaScript file (required)
//	-degree N     per-side polynomial degree (default 3)
//	-brackets N   number of auto-generated power brackets (default 55)
//	-split-min    lowest candidate split threshold (default 10)
//	-split-max    highest candidate split threshold (default 60)
//	-split-step   candidate grid step (default 1)
//	-alpha        ridge regularization strength (default 1.0)
//	-test-size    held-out fraction per bracket (default 0.2)
//	-seed         random seed for the holdout shuffle (default 42)
//	-clip         symmetric output clip in degrees (default 15)
//	-log-level    debug|info|warn|error (default info)
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
	degree := flag.Int("degree", 3, "per-side polynomial degree")
	brackets := flag.Int("brackets", 55, "number of auto-generated power brackets")
	splitMin := flag.Int("split-min", 10, "lowest candidate split threshold")
	splitMax := flag.Int("split-max", 60, "highest candidate split threshold")
	splitStep := flag.Int("split-step", 1, "candidate grid step")
	alpha := flag.Float64("alpha", 1.0, "ridge regularization strength")
	testSize := flag.Float64("test-size", 0.2, "held-out fraction per bracket")
	seed := flag.Int64("seed", 42, "random seed for the holdout shuffle")
	clip := flag.Float64("clip", 15.0, "symmetric output clip in degrees")
	logLevel := flag.String("log-level", "info", "log level (debug|info|warn|error)")
	flag.Parse()

	if flag.NArg() != 1 || *output == "" {
		fmt.Fprintln(os.Stderr, "usage: anglesplit -o <model.js> [flags] <shot_data.json>")
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

	cfg := trainer.DefaultSplitConfig()
	cfg.Degree = *degree
	cfg.AutoBrackets = *brackets
	cfg.SplitMin = *splitMin
	cfg.SplitMax = *splitMax
	cfg.SplitStep = *splitStep
	cfg.Alpha = *alpha
	cfg.TestSize = *testSize
	cfg.Seed = *seed
	cfg.Clip = *clip

	model, err := trainer.FitPiecewise(records, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	model.TrainedOn = filepath.Base(input)

	fmt.Printf("Retained %d of %d records (%d dropped)\n",
		model.Report.Retained, model.Report.TotalRecords, model.Report.Dropped)

	for _, bm := range model.Result.Brackets {
		fmt.Printf("[Bracket %d] power [%g,%g) n=%d\n", bm.Index, bm.Bracket.Low, bm.Bracket.High, bm.N)
		fmt.Printf("  best split: cutAngle < %d\n", bm.Split)
		fmt.Printf("  RMSE=%.4f   R2=%.4f   RMSE_left=%.4f   RMSE_right=%.4f\n",
			bm.HoldoutRMSE, bm.HoldoutR2, bm.RMSELeft, bm.RMSERight)
	}
	if n := len(model.Report.SkippedBrackets); n > 0 {
		fmt.Printf("%d bracket(s) skipped (too few samples)\n", n)
	}
	if n := len(model.Report.FailedBrackets); n > 0 {
		fmt.Printf("%d bracket(s) failed (no viable split)\n", n)
	}

	fmt.Println("\n=== Overall holdout metrics ===")
	fmt.Printf("  R-squared: %.6f\n", model.Result.Pooled.R2)
	fmt.Printf("  RMSE: %.6f degrees\n", model.Result.Pooled.RMSE)
	fmt.Printf("  MAE: %.6f degrees\n", model.Result.Pooled.MAE)

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
	fmt.Printf("\nWrote JS model to: %s\n", *output)
}
