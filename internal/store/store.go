package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Agrid-Dev/radiantctl/internal/ports"
	"github.com/Agrid-Dev/radiantctl/internal/radiant"
)

var ErrRunNotFound = errors.New("run not found")

// Store persists simulation runs and daily zone summaries in SQLite.
type Store struct {
	db *sql.DB
}

type Run struct {
	ID         uuid.UUID
	BuildingID string
	StartedAt  time.Time
	FinishedAt *time.Time
	Steps      int
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		building_id TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		steps INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS day_summaries (
		run_id TEXT NOT NULL,
		environment TEXT NOT NULL,
		zone TEXT NOT NULL,
		day INTEGER NOT NULL,
		day_of_week INTEGER NOT NULL,
		design_day INTEGER NOT NULL,
		mode INTEGER NOT NULL,
		slab_setpoint REAL NOT NULL,
		cooling_error REAL NOT NULL,
		heating_error REAL NOT NULL,
		max_ctrl_temp REAL NOT NULL,
		min_ctrl_temp REAL NOT NULL,
		cool_hours REAL NOT NULL,
		heat_hours REAL NOT NULL,
		setback INTEGER NOT NULL,
		outdoor_mean REAL NOT NULL,
		slab_mean REAL NOT NULL,
		PRIMARY KEY (run_id, environment, zone, day),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_day_summaries_zone ON day_summaries(run_id, zone);
	`
	_, err := s.db.Exec(schema)
	return err
}

// StartRun registers a new run and returns a recorder bound to it.
func (s *Store) StartRun(ctx context.Context, buildingID string) (*Recorder, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, building_id, started_at) VALUES (?, ?, ?)`,
		id.String(), buildingID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("starting run: %w", err)
	}
	return &Recorder{store: s, RunID: id}, nil
}

func (s *Store) FinishRun(ctx context.Context, id uuid.UUID, steps int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, steps = ? WHERE id = ?`,
		time.Now().UTC(), steps, id.String())
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var (
		r        Run
		rawID    string
		finished sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, building_id, started_at, finished_at, steps FROM runs WHERE id = ?`, id.String()).
		Scan(&rawID, &r.BuildingID, &r.StartedAt, &finished, &r.Steps)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	if r.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("parsing run id: %w", err)
	}
	if finished.Valid {
		r.FinishedAt = &finished.Time
	}
	return &r, nil
}

func (s *Store) saveDay(ctx context.Context, runID uuid.UUID, d radiant.DaySummary) error {
	query := `INSERT OR REPLACE INTO day_summaries
		(run_id, environment, zone, day, day_of_week, design_day, mode, slab_setpoint, cooling_error, heating_error,
		 max_ctrl_temp, min_ctrl_temp, cool_hours, heat_hours, setback, outdoor_mean, slab_mean)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		runID.String(), d.Environment, d.Zone, d.Day, d.DayOfWeek, boolToInt(d.DesignDay), int(d.Mode), d.SlabSetpoint,
		d.CoolingError, d.HeatingError, d.MaxCtrlTemp, d.MinCtrlTemp, d.CoolHours, d.HeatHours,
		boolToInt(d.Setback), d.OutdoorMean, d.SlabMean)
	return err
}

// DaySummaries returns a zone's run period summaries in day order.
func (s *Store) DaySummaries(ctx context.Context, runID uuid.UUID, zone string) ([]radiant.DaySummary, error) {
	return s.querySummaries(ctx, `run_id = ? AND zone = ? AND design_day = 0`, runID.String(), zone)
}

// EnvironmentSummaries returns every zone's summaries of one environment,
// ordered by day then zone.
func (s *Store) EnvironmentSummaries(ctx context.Context, runID uuid.UUID, environment string) ([]radiant.DaySummary, error) {
	return s.querySummaries(ctx, `run_id = ? AND environment = ?`, runID.String(), environment)
}

func (s *Store) querySummaries(ctx context.Context, where string, args ...any) ([]radiant.DaySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT environment, zone, day, day_of_week, design_day, mode, slab_setpoint, cooling_error, heating_error,
		       max_ctrl_temp, min_ctrl_temp, cool_hours, heat_hours, setback, outdoor_mean, slab_mean
		FROM day_summaries WHERE `+where+` ORDER BY day, zone`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []radiant.DaySummary
	for rows.Next() {
		var (
			d               radiant.DaySummary
			design, setback int
			mode            int
		)
		if err := rows.Scan(&d.Environment, &d.Zone, &d.Day, &d.DayOfWeek, &design, &mode, &d.SlabSetpoint, &d.CoolingError,
			&d.HeatingError, &d.MaxCtrlTemp, &d.MinCtrlTemp, &d.CoolHours, &d.HeatHours, &setback,
			&d.OutdoorMean, &d.SlabMean); err != nil {
			return nil, err
		}
		d.DesignDay = design != 0
		d.Setback = setback != 0
		d.Mode = radiant.Mode(mode)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Recorder writes day summaries of one run.
type Recorder struct {
	store *Store
	RunID uuid.UUID
}

var _ ports.DayRecorder = (*Recorder)(nil)

func (r *Recorder) RecordDay(ctx context.Context, d radiant.DaySummary) error {
	return r.store.saveDay(ctx, r.RunID, d)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
