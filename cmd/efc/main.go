package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/san-kum/efc/internal/config"
	"github.com/san-kum/efc/internal/efc"
	"github.com/san-kum/efc/internal/viz"
	"github.com/spf13/cobra"
)

var (
	outputDir  string
	verbose    bool
	theme      string
	configFile string
	preset     string
	// Parameter overrides
	entropyScale   float64
	lengthScale    float64
	flowConstant   float64
	velocityScale  float64
	gridResolution int
	gridMaxRadius  float64
	seed           int64
	derivative     string
	// Dataset inputs
	datasetPath  string
	datasetPaths []string
	showPlot     bool
	// eval
	quantity string
	evalPlot bool
	// synth
	radiiList string
	noise     float64
	synthOut  string
	synthID   string
	// fit
	varyRanges  []string
	saveConfig string
)

// main registers the efc commands and exits non-zero on any error, printing
// the error kind and message to stderr.
func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", efc.Kind(err), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "efc",
		Short:         "energy-flow field evaluator and rotation-curve validator",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(verbose)
			t, ok := viz.GetTheme(theme)
			if !ok {
				return fmt.Errorf("unknown theme: %s (available: %v)", theme, viz.ThemeNames())
			}
			viz.SetTheme(t)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "efc-out", "output directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", viz.ThemeNebula.Name, "terminal color theme")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "compare the model against a reference rotation curve",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	}
	addParamFlags(validateCmd)
	validateCmd.Flags().StringVar(&datasetPath, "dataset", "", "reference dataset (csv)")
	validateCmd.Flags().BoolVar(&showPlot, "plot", false, "render an ascii chart of the fit")
	_ = validateCmd.MarkFlagRequired("dataset")

	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "evaluate the field over the configured grid",
		Args:  cobra.NoArgs,
		RunE:  runEval,
	}
	addParamFlags(evalCmd)
	evalCmd.Flags().StringVar(&quantity, "quantity", "velocity", "quantity to chart (velocity, entropy, potential)")
	evalCmd.Flags().BoolVar(&evalPlot, "plot", true, "render an ascii chart")

	synthCmd := &cobra.Command{
		Use:   "synth",
		Short: "write a synthetic reference dataset generated by the model",
		Args:  cobra.NoArgs,
		RunE:  runSynth,
	}
	addParamFlags(synthCmd)
	synthCmd.Flags().StringVar(&radiiList, "radii", "", "comma separated radii (default: the evaluation grid)")
	synthCmd.Flags().Float64Var(&noise, "noise", 0, "gaussian noise standard deviation")
	synthCmd.Flags().StringVar(&synthOut, "out", "", "dataset file to write")
	synthCmd.Flags().StringVar(&synthID, "id", "", "dataset id (default: file name)")
	_ = synthCmd.MarkFlagRequired("out")

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "grid search parameters against a reference dataset",
		Args:  cobra.NoArgs,
		RunE:  runFit,
	}
	addParamFlags(fitCmd)
	fitCmd.Flags().StringVar(&datasetPath, "dataset", "", "reference dataset (csv)")
	fitCmd.Flags().StringArrayVar(&varyRanges, "vary", nil, "parameter range name=lo:hi:n (repeatable)")
	fitCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the best parameters to this config file")
	fitCmd.Flags().BoolVar(&showPlot, "plot", false, "render an ascii chart of the best fit")
	_ = fitCmd.MarkFlagRequired("dataset")
	_ = fitCmd.MarkFlagRequired("vary")

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "validate several datasets in parallel",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}
	addParamFlags(batchCmd)
	batchCmd.Flags().StringArrayVar(&datasetPaths, "dataset", nil, "reference dataset (repeatable)")
	_ = batchCmd.MarkFlagRequired("dataset")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	listCmd.Flags().StringVar(&datasetPath, "dataset", "", "only runs for this dataset id")

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available parameter presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p, err := config.GetPreset(name).Parameters()
				if err != nil {
					return err
				}
				fmt.Printf("  %-12s %s\n", name, p)
			}
			return nil
		},
	}

	exploreCmd := &cobra.Command{
		Use:   "explore",
		Short: "tune parameters interactively",
		Args:  cobra.NoArgs,
		RunE:  runExplore,
	}
	addParamFlags(exploreCmd)
	exploreCmd.Flags().StringVar(&datasetPath, "dataset", "", "optional reference dataset")

	rootCmd.AddCommand(validateCmd, evalCmd, synthCmd, fitCmd, batchCmd, listCmd, showCmd, presetsCmd, exploreCmd)
	return rootCmd
}

func setupLogging(debug bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}
