package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	terrors "tracelink/internal/errors"
	"tracelink/internal/output"
	"tracelink/internal/report"
)

// RunSummary is the denormalized view of one recorded scan.
type RunSummary struct {
	RunID             string    `json:"runId"`
	CreatedAt         time.Time `json:"createdAt"`
	Scope             string    `json:"scope"`
	Roots             []string  `json:"roots"`
	Score             float64   `json:"score"`
	Grade             string    `json:"grade"`
	NoData            bool      `json:"noData"`
	OrphanRatio       float64   `json:"orphanRatio"`
	ChainCompleteness float64   `json:"chainCompleteness"`
	FormatCompliance  float64   `json:"formatCompliance"`
	TotalOccurrences  int       `json:"totalOccurrences"`
	Orphaned          int       `json:"orphaned"`
	Malformed         int       `json:"malformed"`
	RootCount         int       `json:"rootCount"`
	SpecRoots         int       `json:"specRoots"`
	CompleteRoots     int       `json:"completeRoots"`
}

// RunDelta is the change in score and ratios between two runs.
type RunDelta struct {
	Score             float64 `json:"score"`
	OrphanRatio       float64 `json:"orphanRatio"`
	ChainCompleteness float64 `json:"chainCompleteness"`
	FormatCompliance  float64 `json:"formatCompliance"`
}

// Delta computes cur minus prev for trend display.
func Delta(prev, cur *RunSummary) RunDelta {
	return RunDelta{
		Score:             output.RoundFloat(cur.Score - prev.Score),
		OrphanRatio:       output.RoundFloat(cur.OrphanRatio - prev.OrphanRatio),
		ChainCompleteness: output.RoundFloat(cur.ChainCompleteness - prev.ChainCompleteness),
		FormatCompliance:  output.RoundFloat(cur.FormatCompliance - prev.FormatCompliance),
	}
}

// SaveRun records a scan. The record itself is stored as deterministic
// JSON; run id and timestamp exist only in the summary columns.
func (db *DB) SaveRun(rec *report.Record) (*RunSummary, error) {
	if rec == nil || rec.Health == nil {
		return nil, terrors.New(terrors.InternalError, "cannot save a run without a health report")
	}

	recordJSON, err := report.EncodeJSON(rec)
	if err != nil {
		return nil, terrors.Wrap(terrors.HistoryUnavailable, "failed to encode record", err)
	}
	rootsJSON, err := json.Marshal(rec.Scan.Roots)
	if err != nil {
		return nil, terrors.Wrap(terrors.HistoryUnavailable, "failed to encode roots", err)
	}

	s := &RunSummary{
		RunID:             uuid.New().String(),
		CreatedAt:         time.Now().UTC().Truncate(time.Second),
		Scope:             rec.Scan.Scope,
		Roots:             rec.Scan.Roots,
		Score:             rec.Health.Score,
		Grade:             string(rec.Health.Grade),
		NoData:            rec.Health.NoData,
		OrphanRatio:       rec.Health.Ratios.OrphanRatio,
		ChainCompleteness: rec.Health.Ratios.ChainCompleteness,
		FormatCompliance:  rec.Health.Ratios.FormatCompliance,
		TotalOccurrences:  rec.Tally.TotalOccurrences,
		Orphaned:          rec.Tally.Orphaned,
		Malformed:         rec.Tally.Malformed,
		RootCount:         rec.Tally.RootCount,
		SpecRoots:         rec.Tally.SpecRoots,
		CompleteRoots:     rec.Tally.CompleteRoots,
	}

	_, err = db.Exec(`
		INSERT INTO runs (
			run_id, created_at, scope, roots_json,
			score, grade, no_data,
			orphan_ratio, chain_completeness, format_compliance,
			total_occurrences, orphaned, malformed,
			root_count, spec_roots, complete_roots,
			record_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.RunID, s.CreatedAt.Format(time.RFC3339), s.Scope, string(rootsJSON),
		s.Score, s.Grade, boolToInt(s.NoData),
		s.OrphanRatio, s.ChainCompleteness, s.FormatCompliance,
		s.TotalOccurrences, s.Orphaned, s.Malformed,
		s.RootCount, s.SpecRoots, s.CompleteRoots,
		string(recordJSON),
	)
	if err != nil {
		return nil, terrors.Wrap(terrors.HistoryUnavailable, "failed to insert run", err)
	}

	return s, nil
}

const runSummaryColumns = `
	run_id, created_at, scope, roots_json,
	score, grade, no_data,
	orphan_ratio, chain_completeness, format_compliance,
	total_occurrences, orphaned, malformed,
	root_count, spec_roots, complete_roots`

// ListRuns returns recorded runs, newest first. A non-positive limit
// returns all runs.
func (db *DB) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unlimited
	}
	rows, err := db.Query(`
		SELECT `+runSummaryColumns+`
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, terrors.Wrap(terrors.HistoryUnavailable, "failed to list runs", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		s, err := scanRunSummary(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *s)
	}
	return runs, rows.Err()
}

// GetRun returns the summary of one run by id.
func (db *DB) GetRun(runID string) (*RunSummary, error) {
	row := db.QueryRow(`
		SELECT `+runSummaryColumns+`
		FROM runs
		WHERE run_id = ?
	`, runID)

	s, err := scanRunSummary(row)
	if err == sql.ErrNoRows {
		return nil, terrors.New(terrors.RunNotFound, "run "+runID+" not found")
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetRecord returns the full stored record of one run by id.
func (db *DB) GetRecord(runID string) (*report.Record, error) {
	var recordJSON string
	err := db.QueryRow(`
		SELECT record_json FROM runs WHERE run_id = ?
	`, runID).Scan(&recordJSON)
	if err == sql.ErrNoRows {
		return nil, terrors.New(terrors.RunNotFound, "run "+runID+" not found")
	}
	if err != nil {
		return nil, terrors.Wrap(terrors.HistoryUnavailable, "failed to read run", err)
	}

	var rec report.Record
	if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
		return nil, terrors.Wrap(terrors.HistoryUnavailable, "failed to decode stored record", err)
	}
	return &rec, nil
}

// LatestRun returns the most recently recorded run.
func (db *DB) LatestRun() (*RunSummary, error) {
	row := db.QueryRow(`
		SELECT ` + runSummaryColumns + `
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`)

	s, err := scanRunSummary(row)
	if err == sql.ErrNoRows {
		return nil, terrors.New(terrors.NoRunsRecorded, "no runs recorded yet")
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// PreviousRun returns the newest run older than the given one, or nil
// when the given run is the oldest.
func (db *DB) PreviousRun(runID string) (*RunSummary, error) {
	cur, err := db.GetRun(runID)
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(`
		SELECT `+runSummaryColumns+`
		FROM runs
		WHERE created_at < ?
		   OR (created_at = ? AND rowid < (SELECT rowid FROM runs WHERE run_id = ?))
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, cur.CreatedAt.Format(time.RFC3339), cur.CreatedAt.Format(time.RFC3339), runID)

	s, err := scanRunSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// PruneOlderThan deletes runs older than the given number of days and
// returns how many were removed.
func (db *DB) PruneOlderThan(days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	result, err := db.Exec(`
		DELETE FROM runs WHERE created_at < ?
	`, cutoff)
	if err != nil {
		return 0, terrors.Wrap(terrors.HistoryUnavailable, "failed to prune runs", err)
	}
	return result.RowsAffected()
}

// scanner abstracts sql.Row and sql.Rows for summary scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRunSummary(row rowScanner) (*RunSummary, error) {
	var s RunSummary
	var createdAt, rootsJSON string
	var noData int
	err := row.Scan(
		&s.RunID, &createdAt, &s.Scope, &rootsJSON,
		&s.Score, &s.Grade, &noData,
		&s.OrphanRatio, &s.ChainCompleteness, &s.FormatCompliance,
		&s.TotalOccurrences, &s.Orphaned, &s.Malformed,
		&s.RootCount, &s.SpecRoots, &s.CompleteRoots,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, terrors.Wrap(terrors.HistoryUnavailable, "failed to scan run row", err)
	}

	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	s.NoData = noData != 0
	if err := json.Unmarshal([]byte(rootsJSON), &s.Roots); err != nil {
		return nil, terrors.Wrap(terrors.HistoryUnavailable, "failed to decode run roots", err)
	}
	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
