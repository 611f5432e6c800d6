// Package storage keeps finished runs on disk: one directory per run holding
// states.csv, and a SQLite catalog (runs.db) with the run metadata.
package storage

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/dynstep/internal/dynamo"
	"github.com/san-kum/dynstep/internal/sink"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	scenario      TEXT NOT NULL,
	scheme        TEXT NOT NULL,
	dt            REAL NOT NULL,
	steps         INTEGER NOT NULL,
	stopped       INTEGER NOT NULL,
	energy_drift  REAL NOT NULL,
	metrics_json  TEXT,
	labels_json   TEXT,
	error         TEXT,
	created_at    TEXT NOT NULL
);
`

// ErrNotFound is returned for an unknown run id.
var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	db      *sql.DB
}

// Open creates baseDir if needed and opens its run catalog.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filepath.Join(baseDir, "runs.db"))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{baseDir: baseDir, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RunMetadata is the catalog row of a stored run.
type RunMetadata struct {
	ID          string             `json:"id"`
	Scenario    string             `json:"scenario"`
	Scheme      string             `json:"scheme"`
	Dt          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	Stopped     bool               `json:"stopped"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Labels      []string           `json:"labels,omitempty"`
	Error       string             `json:"error,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}

// Save stores a trajectory, including a partial one from a failed run, and
// fills in meta.ID, meta.Steps and meta.Timestamp. runErr may be nil.
func (s *Store) Save(meta *RunMetadata, tr *dynamo.Trajectory, runErr error) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("run id: %w", err)
	}
	meta.ID = id.String()
	meta.Timestamp = time.Now().UTC()
	meta.Steps = tr.StepsTaken
	meta.Stopped = tr.Stopped
	meta.EnergyDrift = tr.EnergyDrift
	meta.Metrics = tr.Metrics
	if runErr != nil {
		meta.Error = runErr.Error()
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, "states.csv"), meta.Labels, tr); err != nil {
		return "", fmt.Errorf("write states: %w", err)
	}

	metricsJSON, err := json.Marshal(meta.Metrics)
	if err != nil {
		return "", fmt.Errorf("marshal metrics: %w", err)
	}
	labelsJSON, err := json.Marshal(meta.Labels)
	if err != nil {
		return "", fmt.Errorf("marshal labels: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO runs (id, scenario, scheme, dt, steps, stopped, energy_drift, metrics_json, labels_json, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Scenario, meta.Scheme, meta.Dt, meta.Steps, boolInt(meta.Stopped), meta.EnergyDrift,
		string(metricsJSON), string(labelsJSON), meta.Error, meta.Timestamp.Format(createdAtLayout),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return meta.ID, nil
}

func writeStates(path string, labels []string, tr *dynamo.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := sink.NewStateCSV(f, labels)
	for i, x := range tr.States {
		w.OnStep(i, tr.Times[i], x)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// createdAtLayout is fixed width so created_at sorts as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectRuns = `SELECT id, scenario, scheme, dt, steps, stopped, energy_drift, metrics_json, labels_json, error, created_at FROM runs`

// List returns all runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	rows, err := s.db.Query(selectRuns + ` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *meta)
	}
	return runs, rows.Err()
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	row := s.db.QueryRow(selectRuns+` WHERE id = ?`, runID)
	meta, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return meta, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*RunMetadata, error) {
	var (
		meta                    RunMetadata
		metricsJSON, labelsJSON sql.NullString
		runErr                  sql.NullString
		createdAt               string
	)
	err := sc.Scan(&meta.ID, &meta.Scenario, &meta.Scheme, &meta.Dt, &meta.Steps, &meta.Stopped,
		&meta.EnergyDrift, &metricsJSON, &labelsJSON, &runErr, &createdAt)
	if err != nil {
		return nil, err
	}
	if metricsJSON.Valid && metricsJSON.String != "" {
		if err := json.Unmarshal([]byte(metricsJSON.String), &meta.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
	}
	if labelsJSON.Valid && labelsJSON.String != "" {
		if err := json.Unmarshal([]byte(labelsJSON.String), &meta.Labels); err != nil {
			return nil, fmt.Errorf("unmarshal labels: %w", err)
		}
	}
	meta.Error = runErr.String
	meta.Timestamp, err = time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &meta, nil
}

// LoadStates reads a stored run back as a trajectory of states and times.
func (s *Store) LoadStates(runID string) (*dynamo.Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	tr := &dynamo.Trajectory{}
	if len(records) < 2 {
		return tr, nil
	}

	for i, record := range records[1:] {
		if len(record) < 2 {
			return nil, fmt.Errorf("states.csv line %d: too few fields", i+2)
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("states.csv line %d: %w", i+2, err)
		}
		state := make(dynamo.State, len(record)-2)
		for j, field := range record[2:] {
			state[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("states.csv line %d: %w", i+2, err)
			}
		}
		tr.Times = append(tr.Times, t)
		tr.States = append(tr.States, state)
	}
	tr.StepsTaken = len(tr.States) - 1
	return tr, nil
}

// StatesPath is where a run's states.csv lives.
func (s *Store) StatesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, "states.csv")
}
