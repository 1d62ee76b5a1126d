package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/Vodeneev/goalscout/internal/pkg/config"
	"github.com/Vodeneev/goalscout/internal/pkg/models"
)

// Ensure PostgresHistory implements HistoryStorage
var _ HistoryStorage = (*PostgresHistory)(nil)

// PostgresHistory stores analysis history records in PostgreSQL
type PostgresHistory struct {
	db *sql.DB
}

// NewPostgresHistory opens the connection and creates the table if needed.
func NewPostgresHistory(cfg *config.PostgresConfig) (*PostgresHistory, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	storage := NewPostgresHistoryFromDB(db)
	if err := storage.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL history storage initialized")
	return storage, nil
}

// NewPostgresHistoryFromDB wraps an open database without touching the schema.
func NewPostgresHistoryFromDB(db *sql.DB) *PostgresHistory {
	return &PostgresHistory{db: db}
}

func (s *PostgresHistory) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS analysis_history (
		id VARCHAR(36) PRIMARY KEY,
		home_team VARCHAR(255) NOT NULL,
		away_team VARCHAR(255) NOT NULL,
		prob_btts DECIMAL(5, 1) NOT NULL,
		prob_over25 DECIMAL(5, 1) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_analysis_history_created_at ON analysis_history(created_at DESC);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// AppendRecord inserts one record. Re-inserting an id is a no-op.
func (s *PostgresHistory) AppendRecord(ctx context.Context, rec models.AnalysisRecord) error {
	query := `
	INSERT INTO analysis_history (id, home_team, away_team, prob_btts, prob_over25, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.HomeTeam, rec.AwayTeam, rec.ProbBTTS, rec.ProbOver25, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

// ListRecords returns the newest limit records, newest first.
func (s *PostgresHistory) ListRecords(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
	SELECT id, home_team, away_team, prob_btts, prob_over25, created_at
	FROM analysis_history
	ORDER BY created_at DESC
	LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []models.AnalysisRecord
	for rows.Next() {
		var rec models.AnalysisRecord
		if err := rows.Scan(&rec.ID, &rec.HomeTeam, &rec.AwayTeam, &rec.ProbBTTS, &rec.ProbOver25, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection
func (s *PostgresHistory) Close() error {
	return s.db.Close()
}
