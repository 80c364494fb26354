package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"insightdash/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

const DefaultHistoryLimit = 20

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS insight_runs (
		id             TEXT PRIMARY KEY,
		view           TEXT DEFAULT '',
		title          TEXT NOT NULL,
		llm_provider   TEXT DEFAULT '',
		llm_model      TEXT DEFAULT '',
		outcome        TEXT NOT NULL,
		detail         TEXT DEFAULT '',
		response_chars INTEGER DEFAULT 0,
		input_tokens   INTEGER DEFAULT 0,
		output_tokens  INTEGER DEFAULT 0,
		duration_ms    INTEGER DEFAULT 0,
		surface        TEXT DEFAULT '',
		generated_at   DATETIME NOT NULL,
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_insight_runs_generated_at ON insight_runs(generated_at);
	CREATE INDEX IF NOT EXISTS idx_insight_runs_outcome ON insight_runs(outcome);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func InsertInsightRun(ctx context.Context, db *sql.DB, run domain.InsightRun) error {
	if run.ID == "" {
		return errors.New("insight run id is required")
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO insight_runs (id, view, title, llm_provider, llm_model, outcome, detail,
		     response_chars, input_tokens, output_tokens, duration_ms, surface, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.View, run.Title, run.LLMProvider, run.LLMModel, run.Outcome, run.Detail,
		run.ResponseChars, run.InputTokens, run.OutputTokens, run.DurationMillis, run.Surface,
		run.GeneratedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting insight run %s: %w", run.ID, err)
	}
	return nil
}

// ListRecentInsightRuns returns the newest runs first.
func ListRecentInsightRuns(ctx context.Context, db *sql.DB, limit int) ([]domain.InsightRun, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, view, title, llm_provider, llm_model, outcome, detail,
		        response_chars, input_tokens, output_tokens, duration_ms, surface, generated_at
		 FROM insight_runs
		 ORDER BY generated_at DESC, id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.InsightRun
	for rows.Next() {
		var r domain.InsightRun
		if err := rows.Scan(
			&r.ID, &r.View, &r.Title, &r.LLMProvider, &r.LLMModel, &r.Outcome, &r.Detail,
			&r.ResponseChars, &r.InputTokens, &r.OutputTokens, &r.DurationMillis, &r.Surface,
			&r.GeneratedAt,
		); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func GetInsightStats(ctx context.Context, db *sql.DB, since time.Time) (domain.InsightStats, error) {
	s := domain.InsightStats{
		ByProvider: map[string]int{},
		ByOutcome:  map[string]int{},
	}
	since = since.UTC()

	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN outcome = 'ok' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(input_tokens + output_tokens), 0),
		        COALESCE(AVG(duration_ms), 0)
		 FROM insight_runs WHERE generated_at >= ?`,
		since,
	).Scan(&s.TotalRuns, &s.SuccessfulRuns, &s.TotalTokens, &s.AvgDurationMS)
	if err != nil {
		return s, err
	}
	s.FailedRuns = s.TotalRuns - s.SuccessfulRuns
	if s.TotalRuns == 0 {
		return s, nil
	}

	if err := countBy(ctx, db, "llm_provider", since, s.ByProvider); err != nil {
		return s, err
	}
	if err := countBy(ctx, db, "outcome", since, s.ByOutcome); err != nil {
		return s, err
	}

	err = db.QueryRowContext(ctx,
		`SELECT generated_at FROM insight_runs WHERE generated_at >= ? ORDER BY generated_at DESC LIMIT 1`,
		since,
	).Scan(&s.LastGeneratedAt)
	return s, err
}

// countBy groups runs by a fixed column name; column is never user input.
func countBy(ctx context.Context, db *sql.DB, column string, since time.Time, into map[string]int) error {
	rows, err := db.QueryContext(ctx,
		`SELECT `+column+`, COUNT(*) FROM insight_runs WHERE generated_at >= ? GROUP BY `+column,
		since,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}

// Store binds the history functions to one database.
type Store struct {
	DB *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := InitDB(path)
	if err != nil {
		return nil, fmt.Errorf("opening history db %s: %w", path, err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) InsertInsightRun(ctx context.Context, run domain.InsightRun) error {
	return InsertInsightRun(ctx, s.DB, run)
}

func (s *Store) ListRecentInsightRuns(ctx context.Context, limit int) ([]domain.InsightRun, error) {
	return ListRecentInsightRuns(ctx, s.DB, limit)
}

func (s *Store) GetInsightStats(ctx context.Context, since time.Time) (domain.InsightStats, error) {
	return GetInsightStats(ctx, s.DB, since)
}

func (s *Store) Close() error {
	return s.DB.Close()
}
