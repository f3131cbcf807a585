package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/san-kum/efc/internal/efc"
	"github.com/san-kum/efc/internal/validate"
)

// timeLayout has a fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("storage: run not found")

// Ledger records completed validation runs in SQLite.
type Ledger struct {
	conn *sqlx.DB
}

// RunRecord is one ledger row.
type RunRecord struct {
	ID         string         `db:"id"`
	DatasetID  string         `db:"dataset_id"`
	Dir        string         `db:"dir"`
	FitMetric  float64        `db:"fit_metric"`
	MetricType string         `db:"metric_type"`
	Points     int            `db:"points"`
	Clamped    int            `db:"clamped"`
	ParamsJSON string         `db:"params_json"`
	CreatedAt  string         `db:"created_at"`
	Parameters efc.Parameters `db:"-"`
	Timestamp  time.Time      `db:"-"`
}

// OpenLedger opens or creates the ledger database at path.
func OpenLedger(path string) (*Ledger, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	l := &Ledger{conn: conn}
	if err := l.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return l, nil
}

func (l *Ledger) Close() error {
	return l.conn.Close()
}

func (l *Ledger) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		dataset_id TEXT NOT NULL,
		dir TEXT NOT NULL,
		fit_metric REAL NOT NULL,
		metric_type TEXT NOT NULL,
		points INTEGER NOT NULL,
		clamped INTEGER NOT NULL,
		params_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset_id);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := l.conn.Exec(schema)
	return err
}

// Record stores a completed run written to dir.
func (l *Ledger) Record(runID, dir string, res *validate.Result) error {
	params, err := json.Marshal(res.Parameters)
	if err != nil {
		return err
	}
	_, err = l.conn.NamedExec(`
		INSERT INTO runs (id, dataset_id, dir, fit_metric, metric_type, points, clamped, params_json, created_at)
		VALUES (:id, :dataset_id, :dir, :fit_metric, :metric_type, :points, :clamped, :params_json, :created_at)`,
		RunRecord{
			ID:         runID,
			DatasetID:  res.DatasetID,
			Dir:        dir,
			FitMetric:  res.FitMetric,
			MetricType: res.MetricType,
			Points:     res.Points,
			Clamped:    res.Clamped,
			ParamsJSON: string(params),
			CreatedAt:  res.Timestamp.UTC().Format(timeLayout),
		})
	return err
}

// List returns all runs, newest first, optionally filtered by dataset id.
func (l *Ledger) List(datasetID string) ([]RunRecord, error) {
	var rows []RunRecord
	query := `SELECT * FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if datasetID != "" {
		query = `SELECT * FROM runs WHERE dataset_id = ? ORDER BY created_at DESC, id`
		args = append(args, datasetID)
	}
	if err := l.conn.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	for i := range rows {
		if err := rows[i].decode(); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func (l *Ledger) Get(runID string) (*RunRecord, error) {
	var rec RunRecord
	err := l.conn.Get(&rec, `SELECT * FROM runs WHERE id = ?`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	if err := rec.decode(); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RunRecord) decode() error {
	if err := json.Unmarshal([]byte(r.ParamsJSON), &r.Parameters); err != nil {
		return fmt.Errorf("run %s: decode params: %w", r.ID, err)
	}
	ts, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("run %s: decode timestamp: %w", r.ID, err)
	}
	r.Timestamp = ts
	return nil
}
