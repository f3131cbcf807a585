// Package dataset reads and writes reference rotation-curve datasets.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/san-kum/efc/internal/efc"
)

const (
	ColRadius      = "radius"
	ColVelocity    = "velocity"
	ColUncertainty = "uncertainty"
)

// Point is one observed rotation-curve sample. Uncertainty is zero when the
// dataset carries no uncertainty column.
type Point struct {
	Radius      float64 `json:"radius"`
	Velocity    float64 `json:"velocity"`
	Uncertainty float64 `json:"uncertainty,omitempty"`
}

// Dataset is an ordered set of reference points. It is not modified after
// loading.
type Dataset struct {
	ID       string
	Path     string
	Points   []Point
	weighted bool
}

func New(id string, points []Point, weighted bool) *Dataset {
	cp := make([]Point, len(points))
	copy(cp, points)
	return &Dataset{ID: id, Points: cp, weighted: weighted}
}

func (d *Dataset) Len() int { return len(d.Points) }

// Weighted reports whether every point carries an uncertainty.
func (d *Dataset) Weighted() bool { return d.weighted }

func (d *Dataset) Radii() []float64 {
	out := make([]float64, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.Radius
	}
	return out
}

func (d *Dataset) Velocities() []float64 {
	out := make([]float64, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.Velocity
	}
	return out
}

// Uncertainties returns nil for unweighted datasets.
func (d *Dataset) Uncertainties() []float64 {
	if !d.weighted {
		return nil
	}
	out := make([]float64, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.Uncertainty
	}
	return out
}

// IDFromPath derives a dataset id from a file name.
func IDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads a CSV dataset from path.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &efc.DatasetError{Path: path, Reason: "cannot open", Err: err}
	}
	defer f.Close()

	ds, err := Parse(f, path)
	if err != nil {
		return nil, err
	}
	ds.Path = path
	return ds, nil
}

// Parse reads a CSV dataset. The first non-comment record is the header;
// radius and velocity columns are required and an uncertainty column is
// optional. Columns are matched case-insensitively and extra columns are
// ignored. When the uncertainty column is present every row must carry a
// positive uncertainty.
func Parse(r io.Reader, path string) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	fail := func(line int, format string, args ...any) error {
		return &efc.DatasetError{Path: path, Line: line, Reason: fmt.Sprintf(format, args...)}
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fail(0, "empty dataset")
	}
	if err != nil {
		return nil, &efc.DatasetError{Path: path, Reason: "malformed csv", Err: err}
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	rIdx, ok := cols[ColRadius]
	if !ok {
		return nil, fail(1, "missing %q column", ColRadius)
	}
	vIdx, ok := cols[ColVelocity]
	if !ok {
		return nil, fail(1, "missing %q column", ColVelocity)
	}
	uIdx, weighted := cols[ColUncertainty]

	ds := &Dataset{ID: IDFromPath(path), weighted: weighted}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &efc.DatasetError{Path: path, Reason: "malformed csv", Err: err}
		}
		line, _ := cr.FieldPos(0)

		radius, err := field(record, rIdx, ColRadius)
		if err != nil {
			return nil, fail(line, "%v", err)
		}
		velocity, err := field(record, vIdx, ColVelocity)
		if err != nil {
			return nil, fail(line, "%v", err)
		}
		if math.IsNaN(velocity) || math.IsInf(velocity, 0) {
			return nil, fail(line, "velocity must be finite, got %v", velocity)
		}

		p := Point{Radius: radius, Velocity: velocity}
		if weighted {
			sigma, err := field(record, uIdx, ColUncertainty)
			if err != nil {
				return nil, fail(line, "%v", err)
			}
			if !(sigma > 0) || math.IsInf(sigma, 0) {
				return nil, fail(line, "uncertainty must be finite and > 0, got %v", sigma)
			}
			p.Uncertainty = sigma
		}
		ds.Points = append(ds.Points, p)
	}

	if len(ds.Points) == 0 {
		return nil, fail(0, "empty dataset: no data rows")
	}
	return ds, nil
}

func field(record []string, idx int, name string) (float64, error) {
	if idx >= len(record) {
		return 0, fmt.Errorf("missing %s value", name)
	}
	raw := strings.TrimSpace(record[idx])
	if raw == "" {
		return 0, fmt.Errorf("missing %s value", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric %s %q", name, raw)
	}
	return v, nil
}

// Write stores ds as CSV, including the uncertainty column when weighted.
func Write(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{ColRadius, ColVelocity}
	if ds.weighted {
		header = append(header, ColUncertainty)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, p := range ds.Points {
		row := []string{
			strconv.FormatFloat(p.Radius, 'g', -1, 64),
			strconv.FormatFloat(p.Velocity, 'g', -1, 64),
		}
		if ds.weighted {
			row = append(row, strconv.FormatFloat(p.Uncertainty, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
