package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/san-kum/efc/internal/config"
	"github.com/san-kum/efc/internal/dataset"
	"github.com/san-kum/efc/internal/efc"
	"github.com/san-kum/efc/internal/optim"
	"github.com/san-kum/efc/internal/storage"
	"github.com/san-kum/efc/internal/validate"
	"github.com/san-kum/efc/internal/viz"
	"github.com/spf13/cobra"
)

func newStore() *storage.Store {
	return storage.New(outputDir).WithLogger(log.Logger)
}

// recordRun adds a run to the ledger. The artifacts are already on disk,
// so a ledger failure is only reported.
func recordRun(arts *storage.Artifacts, res *validate.Result) {
	ledger, err := storage.OpenLedger(filepath.Join(outputDir, storage.LedgerFile))
	if err != nil {
		log.Warn().Err(err).Msg("ledger unavailable")
		return
	}
	defer ledger.Close()
	if err := ledger.Record(arts.RunID, arts.Dir, res); err != nil {
		log.Warn().Err(err).Str("run", arts.RunID).Msg("failed to record run")
	}
}

// modelCurve evaluates the model on its grid for plotting.
func modelCurve(p efc.Parameters) (*efc.Field, error) {
	ev, err := efc.NewEvaluator(p)
	if err != nil {
		return nil, err
	}
	return ev.Evaluate(efc.Grid(p))
}

func saveResult(sub string, p efc.Parameters, res *validate.Result) (*storage.Artifacts, error) {
	curve, err := modelCurve(p)
	if err != nil {
		return nil, err
	}
	store := newStore()
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	arts, err := store.Save(sub, res, curve)
	if err != nil {
		return nil, err
	}
	recordRun(arts, res)
	return arts, nil
}

func printResult(res *validate.Result, arts *storage.Artifacts, plot bool) {
	fmt.Println(viz.Summary(res))
	if plot {
		fmt.Println(viz.ResultChart(res))
	}
	if arts != nil {
		fmt.Printf("\nrun %s saved to %s\n", arts.RunID, arts.Dir)
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	p, err := loadParams(cmd)
	if err != nil {
		return err
	}
	ds, err := dataset.Load(datasetPath)
	if err != nil {
		return err
	}
	log.Debug().Str("dataset", ds.ID).Int("points", ds.Len()).Bool("weighted", ds.Weighted()).Msg("dataset loaded")

	res, err := validate.Validate(p, ds)
	if err != nil {
		return err
	}
	log.Info().
		Str("dataset", res.DatasetID).
		Str("metric", res.MetricType).
		Float64("fit", res.FitMetric).
		Int("clamped", res.Clamped).
		Msg("validation complete")

	arts, err := saveResult("", p, res)
	if err != nil {
		return err
	}
	printResult(res, arts, showPlot)
	return nil
}

func runEval(cmd *cobra.Command, args []string) error {
	p, err := loadParams(cmd)
	if err != nil {
		return err
	}
	ev, err := efc.NewEvaluator(p)
	if err != nil {
		return err
	}
	f, err := ev.Evaluate(efc.Grid(p))
	if err != nil {
		return err
	}
	if f.ClampedCount() > 0 {
		entry := log.Warn().Int("clamped", f.ClampedCount())
		if r, ok := ev.InflectionRadius(); ok {
			entry = entry.Float64("inflection_radius", r)
		}
		entry.Msg("velocity clamped where the potential decreases")
	}

	var chart string
	if evalPlot {
		if chart, err = viz.FieldChart(f, quantity); err != nil {
			return err
		}
	}

	store := newStore()
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	path, err := store.SaveField("", f)
	if err != nil {
		return err
	}

	if chart != "" {
		fmt.Println(chart)
	}
	fmt.Printf("%d samples (%s) written to %s\n", f.Len(), p, path)
	return nil
}

func runSynth(cmd *cobra.Command, args []string) error {
	p, err := loadParams(cmd)
	if err != nil {
		return err
	}
	radii := efc.Grid(p)
	if radiiList != "" {
		if radii, err = parseRadii(radiiList); err != nil {
			return err
		}
	}
	id := synthID
	if id == "" {
		id = dataset.IDFromPath(synthOut)
	}

	ev, err := efc.NewEvaluator(p)
	if err != nil {
		return err
	}
	ds, err := dataset.Synthesize(ev, id, radii, noise, p.Seed)
	if err != nil {
		return err
	}
	if err := dataset.Write(synthOut, ds); err != nil {
		return err
	}
	log.Info().Str("dataset", ds.ID).Int("points", ds.Len()).Float64("noise", noise).Int64("seed", p.Seed).Msg("dataset written")
	fmt.Printf("wrote %d points to %s\n", ds.Len(), synthOut)
	return nil
}

func runFit(cmd *cobra.Command, args []string) error {
	p, err := loadParams(cmd)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(varyRanges))
	ranges := make([][]float64, 0, len(varyRanges))
	for _, arg := range varyRanges {
		name, values, err := parseVary(arg)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	ds, err := dataset.Load(datasetPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out, err := optim.NewGridSearch(names, ranges).Search(ctx, p, ds)
	if err != nil {
		return err
	}
	log.Info().
		Int("evaluated", out.Evaluated).
		Int("skipped", out.Skipped).
		Float64("fit", out.Result.FitMetric).
		Msg("grid search complete")

	arts, err := saveResult("", out.Params, out.Result)
	if err != nil {
		return err
	}
	if saveConfig != "" {
		if err := config.Save(saveConfig, config.FromParameters(out.Params)); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("best parameters saved to %s\n", saveConfig)
	}
	fmt.Printf("searched %s combinations (%d skipped)\n\n", humanize.Comma(int64(out.Evaluated)), out.Skipped)
	printResult(out.Result, arts, showPlot)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	p, err := loadParams(cmd)
	if err != nil {
		return err
	}
	sets := make([]*dataset.Dataset, 0, len(datasetPaths))
	seen := make(map[string]bool, len(datasetPaths))
	for _, path := range datasetPaths {
		ds, err := dataset.Load(path)
		if err != nil {
			return err
		}
		if seen[ds.ID] {
			return fmt.Errorf("duplicate dataset id %q", ds.ID)
		}
		seen[ds.ID] = true
		sets = append(sets, ds)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := validate.New().Batch(ctx, p, sets)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATASET\tMETRIC\tFIT\tRMS\tPOINTS\tCLAMPED\tRUN")
	for _, res := range results {
		arts, err := saveResult(res.DatasetID, p, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%.6g\t%.6g\t%d\t%d\t%s\n",
			res.DatasetID, res.MetricType, res.FitMetric, res.RMS, res.Points, res.Clamped, arts.RunID)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	path := filepath.Join(outputDir, storage.LedgerFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("no runs recorded")
		return nil
	}
	ledger, err := storage.OpenLedger(path)
	if err != nil {
		return err
	}
	defer ledger.Close()

	runs, err := ledger.List(datasetPath)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tDATASET\tMETRIC\tFIT\tPOINTS\tWHEN")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.6g\t%d\t%s\n",
			r.ID, r.DatasetID, r.MetricType, r.FitMetric, r.Points, humanize.Time(r.Timestamp))
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	ledger, err := storage.OpenLedger(filepath.Join(outputDir, storage.LedgerFile))
	if err != nil {
		return err
	}
	defer ledger.Close()

	rec, err := ledger.Get(args[0])
	if err != nil {
		return err
	}
	run, err := storage.Load(rec.Dir)
	if err != nil {
		return err
	}
	if run.RunID != rec.ID {
		return fmt.Errorf("artifacts in %s were overwritten by run %s", rec.Dir, run.RunID)
	}
	fmt.Println(viz.Summary(run.Result))
	fmt.Println(viz.ResultChart(run.Result))
	fmt.Printf("\nrecorded %s in %s\n", humanize.Time(rec.Timestamp), rec.Dir)
	return nil
}

func runExplore(cmd *cobra.Command, args []string) error {
	p, err := loadParams(cmd)
	if err != nil {
		return err
	}
	var ds *dataset.Dataset
	if datasetPath != "" {
		if ds, err = dataset.Load(datasetPath); err != nil {
			return err
		}
	}
	return viz.RunExplorer(p, ds)
}
