package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/efc/internal/efc"
)

func writeCSV(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadUnweighted(t *testing.T) {
	path := writeCSV(t, "ngc3198.csv", "# observed\nradius,velocity\n1.0,0.5\n5.0,0.8\n10.0,0.9\n")

	ds, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if ds.ID != "ngc3198" {
		t.Errorf("expected id ngc3198, got %s", ds.ID)
	}
	if ds.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", ds.Len())
	}
	if ds.Weighted() || ds.Uncertainties() != nil {
		t.Error("dataset without uncertainty column should be unweighted")
	}
	if got := ds.Radii(); got[1] != 5.0 {
		t.Errorf("expected radius 5.0, got %v", got[1])
	}
	if got := ds.Velocities(); got[2] != 0.9 {
		t.Errorf("expected velocity 0.9, got %v", got[2])
	}
}

func TestLoadWeightedAnyOrder(t *testing.T) {
	path := writeCSV(t, "w.csv", "Uncertainty, Velocity, name, Radius\n0.1,0.5,a,1\n0.2,0.8,b,5\n")

	ds, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !ds.Weighted() {
		t.Fatal("expected weighted dataset")
	}
	sig := ds.Uncertainties()
	if sig[0] != 0.1 || sig[1] != 0.2 {
		t.Errorf("unexpected uncertainties %v", sig)
	}
	if ds.Points[1].Radius != 5 {
		t.Errorf("expected radius 5, got %v", ds.Points[1].Radius)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
		line   int
	}{
		{"empty file", "", "empty dataset", 0},
		{"header only", "radius,velocity\n", "no data rows", 0},
		{"missing column", "radius,speed\n1,2\n", `missing "velocity" column`, 1},
		{"non numeric", "radius,velocity\n1,0.5\n2,fast\n", `non-numeric velocity "fast"`, 3},
		{"missing value", "radius,velocity\n1\n", "missing velocity value", 2},
		{"zero uncertainty", "radius,velocity,uncertainty\n1,0.5,0\n", "uncertainty must be finite and > 0", 2},
		{"blank uncertainty", "radius,velocity,uncertainty\n1,0.5,\n", "missing uncertainty value", 2},
	}

	for _, tt := range tests {
		_, err := Load(writeCSV(t, "bad.csv", tt.body))
		if !errors.Is(err, efc.ErrDatasetFormat) {
			t.Errorf("%s: expected ErrDatasetFormat, got %v", tt.name, err)
			continue
		}
		var de *efc.DatasetError
		if !errors.As(err, &de) {
			t.Errorf("%s: expected *DatasetError", tt.name)
			continue
		}
		if !strings.Contains(de.Reason, tt.reason) {
			t.Errorf("%s: reason %q does not contain %q", tt.name, de.Reason, tt.reason)
		}
		if de.Line != tt.line {
			t.Errorf("%s: expected line %d, got %d", tt.name, tt.line, de.Line)
		}
		if !strings.HasSuffix(de.Path, "bad.csv") {
			t.Errorf("%s: path not reported: %q", tt.name, de.Path)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"))
	if !errors.Is(err, efc.ErrDatasetFormat) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected dataset error wrapping ErrNotExist, got %v", err)
	}
}

func TestWriteLoad(t *testing.T) {
	ds := New("roundtrip", []Point{{1, 2, 0.5}, {3, 4.25, 0.75}}, true)
	path := filepath.Join(t.TempDir(), "roundtrip.csv")

	if err := Write(path, ds); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !loaded.Weighted() || loaded.Len() != 2 {
		t.Fatalf("unexpected dataset %+v", loaded)
	}
	for i := range ds.Points {
		if loaded.Points[i] != ds.Points[i] {
			t.Errorf("point %d: got %+v, want %+v", i, loaded.Points[i], ds.Points[i])
		}
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	p, err := efc.NewParameters(1, 10, 1, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	ev, err := efc.NewEvaluator(p)
	if err != nil {
		t.Fatal(err)
	}
	radii := []float64{1, 2, 4, 8}

	exact, err := Synthesize(ev, "exact", radii, 0, 1)
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if exact.Weighted() {
		t.Error("noise-free dataset should be unweighted")
	}
	for i, r := range radii {
		v, _ := ev.Velocity(r)
		if exact.Points[i].Velocity != v {
			t.Errorf("r=%v: expected exact model velocity %v, got %v", r, v, exact.Points[i].Velocity)
		}
	}

	a, _ := Synthesize(ev, "a", radii, 0.05, 7)
	b, _ := Synthesize(ev, "b", radii, 0.05, 7)
	c, _ := Synthesize(ev, "c", radii, 0.05, 8)
	same, differs := true, false
	for i := range radii {
		same = same && a.Points[i] == b.Points[i]
		differs = differs || a.Points[i] != c.Points[i]
	}
	if !same {
		t.Error("same seed produced different datasets")
	}
	if !differs {
		t.Error("different seeds produced identical datasets")
	}

	if _, err := Synthesize(ev, "bad", []float64{-1}, 0, 0); !errors.Is(err, efc.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
