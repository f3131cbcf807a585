package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/efc/internal/dataset"
	"github.com/san-kum/efc/internal/efc"
	"github.com/san-kum/efc/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult(t *testing.T, id string, at time.Time, weighted bool) (*validate.Result, *efc.Field) {
	t.Helper()
	p, err := efc.NewParameters(1, 10, 1, 1, 20)
	require.NoError(t, err)

	sigma := 0.0
	if weighted {
		sigma = 0.1
	}
	ds := dataset.New(id, []dataset.Point{
		{Radius: 1, Velocity: 0.5, Uncertainty: sigma},
		{Radius: 5, Velocity: 0.8, Uncertainty: sigma},
		{Radius: 10, Velocity: 0.9, Uncertainty: sigma},
	}, weighted)

	res, err := validate.New().WithClock(func() time.Time { return at }).Validate(p, ds)
	require.NoError(t, err)

	ev, err := efc.NewEvaluator(p)
	require.NoError(t, err)
	curve, err := ev.Evaluate(efc.Grid(p))
	require.NoError(t, err)
	return res, curve
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	res, curve := testResult(t, "galaxy", time.Now(), false)
	art, err := st.Save("", res, curve)
	require.NoError(t, err)
	assert.NotEmpty(t, art.RunID)

	for _, path := range []string{art.Result, art.Predicted, art.Plot} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.NotZero(t, info.Size(), path)
	}

	run, err := Load(art.Dir)
	require.NoError(t, err)
	assert.Equal(t, art.RunID, run.RunID)
	assert.Equal(t, "galaxy", run.DatasetID)
	assert.Equal(t, validate.MetricRMS, run.MetricType)
	assert.Equal(t, res.FitMetric, run.FitMetric)
	assert.Equal(t, res.Parameters, run.Parameters)
	assert.Len(t, run.Predicted, 3)

	raw, err := os.ReadFile(art.Result)
	require.NoError(t, err)
	for _, key := range []string{`"dataset_id"`, `"parameters_used"`, `"fit_metric"`, `"metric_type"`} {
		assert.Contains(t, string(raw), key)
	}

	entries, err := os.ReadDir(art.Dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "."), "temporary file left behind: %s", e.Name())
	}
}

func TestStorePredictedCSV(t *testing.T) {
	st := New(t.TempDir())
	res, _ := testResult(t, "weighted", time.Now(), true)

	art, err := st.Save("weighted", res, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(st.BaseDir(), "weighted"), art.Dir)

	data, err := os.ReadFile(art.Predicted)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "radius,observed,uncertainty,predicted,residual", lines[0])
}

func TestStoreSaveField(t *testing.T) {
	st := New(t.TempDir())
	_, curve := testResult(t, "f", time.Now(), false)

	path, err := st.SaveField("", curve)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, curve.Len()+1)
	assert.Equal(t, "radius,entropy,potential,velocity,clamped", lines[0])
}

func TestStoreSaveFailureLeavesNothing(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	res, _ := testResult(t, "g", time.Now(), false)
	_, err := New(blocker).Save("", res, nil)
	assert.Error(t, err)

	_, err = New(base).Save("", nil, nil)
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(base, ResultFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLedger(t *testing.T) {
	l, err := OpenLedger(filepath.Join(t.TempDir(), LedgerFile))
	require.NoError(t, err)
	defer l.Close()

	t0 := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	older, _ := testResult(t, "alpha", t0, false)
	newer, _ := testResult(t, "beta", t0.Add(90*time.Minute), true)

	require.NoError(t, l.Record("run-1", "/out/alpha", older))
	require.NoError(t, l.Record("run-2", "/out/beta", newer))

	runs, err := l.List("")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, validate.MetricChiSquared, runs[0].MetricType)
	assert.True(t, runs[1].Timestamp.Equal(t0))
	assert.Equal(t, 10.0, runs[1].Parameters.LengthScale)

	runs, err = l.List("alpha")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "/out/alpha", runs[0].Dir)

	rec, err := l.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, older.FitMetric, rec.FitMetric)

	_, err = l.Get("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	assert.Error(t, l.Record("run-1", "/dup", older), "duplicate run id must fail")
}
