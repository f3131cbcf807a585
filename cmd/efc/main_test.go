package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/efc/internal/config"
	"github.com/san-kum/efc/internal/dataset"
	"github.com/san-kum/efc/internal/efc"
	"github.com/san-kum/efc/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func synthDataset(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "ngc-test.csv")
	require.NoError(t, execute(t, "synth", "--preset", "baseline", "--radii", "1,5,10,20", "--out", path))
	return path
}

func TestSynthValidateListShow(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	dsPath := synthDataset(t, dir)

	ds, err := dataset.Load(dsPath)
	require.NoError(t, err)
	assert.Equal(t, "ngc-test", ds.ID)
	assert.Equal(t, 4, ds.Len())
	assert.False(t, ds.Weighted())

	require.NoError(t, execute(t, "validate", "--preset", "baseline", "--dataset", dsPath, "--output", out))
	for _, name := range []string{storage.ResultFile, storage.PredictedFile, storage.PlotFile, storage.LedgerFile} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	run, err := storage.Load(out)
	require.NoError(t, err)
	assert.Equal(t, "ngc-test", run.DatasetID)
	assert.InDelta(t, 0, run.FitMetric, 1e-12)

	require.NoError(t, execute(t, "list", "--output", out))
	require.NoError(t, execute(t, "show", run.RunID, "--output", out))
	assert.Error(t, execute(t, "show", "missing", "--output", out))
}

func TestValidateInvalidParamsWritesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	dsPath := synthDataset(t, dir)

	err := execute(t, "validate", "--dataset", dsPath, "--entropy-scale", "-1", "--output", out)
	require.Error(t, err)
	assert.Equal(t, "InvalidParameter", efc.Kind(err))
	assert.NoDirExists(t, out)
}

func TestValidateMalformedDataset(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	path := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("radius,velocity\n1,fast\n"), 0644))

	err := execute(t, "validate", "--dataset", path, "--output", out)
	require.Error(t, err)
	assert.Equal(t, "DatasetFormatError", efc.Kind(err))
	assert.NoDirExists(t, out)
}

func TestUnknownPresetAndTheme(t *testing.T) {
	assert.Error(t, execute(t, "eval", "--preset", "nope", "--output", t.TempDir()))
	assert.Error(t, execute(t, "presets", "--theme", "nope"))
}

func TestEvalWritesField(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	require.NoError(t, execute(t, "eval", "--grid-resolution", "50", "--quantity", "entropy", "--output", out))
	assert.FileExists(t, filepath.Join(out, storage.FieldFile))
}

func TestFitSavesBestConfig(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	dsPath := synthDataset(t, dir)
	best := filepath.Join(dir, "best.yaml")

	require.NoError(t, execute(t, "fit",
		"--dataset", dsPath,
		"--length-scale", "5",
		"--vary", "length_scale=5:15:3",
		"--save-config", best,
		"--output", out,
	))

	cfg, err := config.Load(best)
	require.NoError(t, err)
	assert.Equal(t, 10.0, cfg.LengthScale)
}

func TestBatchWritesPerDataset(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	first := synthDataset(t, dir)
	second := filepath.Join(dir, "second.csv")
	require.NoError(t, execute(t, "synth", "--radii", "2,4,8", "--noise", "0.01", "--seed", "3", "--out", second))

	require.NoError(t, execute(t, "batch", "--dataset", first, "--dataset", second, "--output", out))
	assert.FileExists(t, filepath.Join(out, "ngc-test", storage.ResultFile))
	assert.FileExists(t, filepath.Join(out, "second", storage.ResultFile))

	ledger, err := storage.OpenLedger(filepath.Join(out, storage.LedgerFile))
	require.NoError(t, err)
	defer ledger.Close()
	runs, err := ledger.List("")
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestParseVary(t *testing.T) {
	name, values, err := parseVary("flow_constant=1:3:3")
	require.NoError(t, err)
	assert.Equal(t, efc.ParamFlowConstant, name)
	assert.Equal(t, []float64{1, 2, 3}, values)

	for _, bad := range []string{"flow_constant", "flow_constant=1:3", "flow_constant=a:3:3", "flow_constant=1:3:0"} {
		_, _, err := parseVary(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseRadii(t *testing.T) {
	radii, err := parseRadii(" 1, 2.5 ,10,")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, 10}, radii)

	_, err = parseRadii("1,x")
	assert.Error(t, err)
	_, err = parseRadii(",")
	assert.Error(t, err)
}
