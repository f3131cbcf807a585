package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/san-kum/efc/internal/efc"
	"github.com/san-kum/efc/internal/export"
	"github.com/san-kum/efc/internal/validate"
)

const (
	ResultFile    = "result.json"
	PredictedFile = "predicted.csv"
	PlotFile      = "plot.svg"
	FieldFile     = "field.csv"
	LedgerFile    = "runs.db"

	plotWidth  = 800
	plotHeight = 500
)

// Store writes run artifacts under a base directory.
type Store struct {
	baseDir string
	log     zerolog.Logger
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, log: zerolog.Nop()}
}

func (s *Store) WithLogger(l zerolog.Logger) *Store {
	return &Store{baseDir: s.baseDir, log: l}
}

func (s *Store) BaseDir() string {
	return s.baseDir
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunFile is the on-disk form of result.json.
type RunFile struct {
	RunID string `json:"run_id"`
	*validate.Result
}

// Artifacts lists the files written for one run.
type Artifacts struct {
	RunID     string
	Dir       string
	Result    string
	Predicted string
	Plot      string
}

// Save writes result.json, predicted.csv and plot.svg into sub (relative to
// the base directory; "" for the base itself). Every file is rendered and
// written to a temporary name first and only renamed into place once all
// of them succeeded, so a failed save leaves no artifact behind.
func (s *Store) Save(sub string, res *validate.Result, curve *efc.Field) (*Artifacts, error) {
	if res == nil {
		return nil, errors.New("storage: nil result")
	}
	dir := filepath.Join(s.baseDir, sub)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	doc, err := json.MarshalIndent(RunFile{RunID: runID, Result: res}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	table, err := predictedCSV(res)
	if err != nil {
		return nil, err
	}
	plot := export.RotationCurveSVG(res, curve, plotWidth, plotHeight)

	art := &Artifacts{
		RunID:     runID,
		Dir:       dir,
		Result:    filepath.Join(dir, ResultFile),
		Predicted: filepath.Join(dir, PredictedFile),
		Plot:      filepath.Join(dir, PlotFile),
	}
	err = writeAll(map[string][]byte{
		art.Result:    append(doc, '\n'),
		art.Predicted: table,
		art.Plot:      []byte(plot),
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("run_id", runID).Str("dir", dir).Msg("artifacts written")
	return art, nil
}

// SaveField writes an evaluated field as CSV.
func (s *Store) SaveField(sub string, f *efc.Field) (string, error) {
	dir := filepath.Join(s.baseDir, sub)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	rows := [][]string{{"radius", "entropy", "potential", "velocity", "clamped"}}
	for i := 0; i < f.Len(); i++ {
		rows = append(rows, []string{
			formatFloat(f.Radii[i]),
			formatFloat(f.Entropy[i]),
			formatFloat(f.Potential[i]),
			formatFloat(f.Velocity[i]),
			strconv.FormatBool(f.Clamped[i]),
		})
	}
	data, err := encodeCSV(rows)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, FieldFile)
	if err := writeAll(map[string][]byte{path: data}); err != nil {
		return "", err
	}
	s.log.Debug().Str("path", path).Int("samples", f.Len()).Msg("field written")
	return path, nil
}

// Load reads a result.json from dir.
func Load(dir string) (*RunFile, error) {
	data, err := os.ReadFile(filepath.Join(dir, ResultFile))
	if err != nil {
		return nil, err
	}
	run := &RunFile{Result: &validate.Result{}}
	if err := json.Unmarshal(data, run); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ResultFile, err)
	}
	return run, nil
}

func predictedCSV(res *validate.Result) ([]byte, error) {
	header := []string{"radius", "observed"}
	if res.Uncertainties != nil {
		header = append(header, "uncertainty")
	}
	header = append(header, "predicted", "residual")

	rows := [][]string{header}
	for i, r := range res.Radii {
		row := []string{formatFloat(r), formatFloat(res.Observed[i])}
		if res.Uncertainties != nil {
			row = append(row, formatFloat(res.Uncertainties[i]))
		}
		row = append(row, formatFloat(res.Predicted[i]), formatFloat(res.Residuals[i]))
		rows = append(rows, row)
	}
	return encodeCSV(rows)
}

func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeAll writes every file to a temporary sibling and renames them into
// place only after all writes succeeded.
func writeAll(files map[string][]byte) error {
	tmps := make(map[string]string, len(files))
	cleanup := func() {
		for _, tmp := range tmps {
			os.Remove(tmp)
		}
	}

	for path, data := range files {
		f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
		if err != nil {
			cleanup()
			return err
		}
		tmps[path] = f.Name()
		if err := f.Chmod(0644); err != nil {
			f.Close()
			cleanup()
			return err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			cleanup()
			return err
		}
		if err := f.Close(); err != nil {
			cleanup()
			return err
		}
	}

	for path, tmp := range tmps {
		if err := os.Rename(tmp, path); err != nil {
			cleanup()
			return err
		}
		delete(tmps, path)
	}
	return nil
}
