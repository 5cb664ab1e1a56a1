package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/defexvision/inspection-service/internal/core/domain"
)

// Sink inserts one row per DetectionRecord into the detections table. The
// database assigns the row identity; nothing correlates it with the document
// store beyond the shared timestamp.
type Sink struct {
	db *sql.DB
}

func New(db *sql.DB) *Sink {
	return &Sink{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *Sink) Name() string { return "postgres" }

func (s *Sink) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent server startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS detections (
	id BIGSERIAL PRIMARY KEY,
	timestamp TEXT NOT NULL,
	classes JSONB NOT NULL DEFAULT '[]'::jsonb,
	image_url TEXT,
	email TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_detections_created_at ON detections(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *Sink) Persist(ctx context.Context, record domain.DetectionRecord) error {
	classesJSON, err := json.Marshal(record.Classes)
	if err != nil {
		return domain.WrapError(domain.ErrSink, "marshal classes", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO detections (timestamp, classes, image_url, email, created_at)
VALUES ($1,$2,$3,$4,$5)
`,
		record.RequestID, classesJSON, nullableString(record.ImageURL), record.Email, record.CreatedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrSink, "insert detection", err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
