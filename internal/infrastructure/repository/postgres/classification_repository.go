package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

type ClassificationRepository struct {
	db *sql.DB
}

func NewClassificationRepository(db *sql.DB) *ClassificationRepository {
	return &ClassificationRepository{db: db}
}

func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ClassificationRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS classification_records (
	id BIGSERIAL PRIMARY KEY,
	request_id TEXT NOT NULL,
	path TEXT NOT NULL,
	document_type TEXT NOT NULL,
	strategy TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_classification_records_request_id ON classification_records(request_id);
CREATE INDEX IF NOT EXISTS idx_classification_records_created_at ON classification_records(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// SaveRecords writes all records in one transaction.
func (r *ClassificationRepository) SaveRecords(ctx context.Context, records []domain.ClassificationRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin records tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, rec := range records {
		_, err := tx.ExecContext(ctx, `
INSERT INTO classification_records (request_id, path, document_type, strategy, created_at)
VALUES ($1,$2,$3,$4,$5)
`, rec.RequestID, rec.Path, string(rec.DocumentType), string(rec.Strategy), rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert classification record %s: %w", rec.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit records tx: %w", err)
	}
	return nil
}

func (r *ClassificationRepository) ListByRequestID(ctx context.Context, requestID string) ([]domain.ClassificationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT request_id, path, document_type, strategy, created_at
FROM classification_records
WHERE request_id = $1
ORDER BY path ASC
`, requestID)
	if err != nil {
		return nil, fmt.Errorf("query classification records: %w", err)
	}
	defer rows.Close()

	var out []domain.ClassificationRecord
	for rows.Next() {
		var rec domain.ClassificationRecord
		var docType, strategy string
		if err := rows.Scan(&rec.RequestID, &rec.Path, &docType, &strategy, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan classification record: %w", err)
		}
		parsed, ok := domain.ParseDocumentType(docType)
		if !ok {
			return nil, fmt.Errorf("stored document type %q is not registered", docType)
		}
		rec.DocumentType = parsed
		rec.Strategy = domain.Strategy(strategy)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classification records: %w", err)
	}
	if len(out) == 0 {
		return nil, domain.WrapError(domain.ErrNotFound, "list classification records", fmt.Errorf("request %s: %w", requestID, sql.ErrNoRows))
	}
	return out, nil
}

func (r *ClassificationRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	return nil
}
