package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
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

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2025051701)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	format TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT,
	word_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);

CREATE TABLE IF NOT EXISTS document_texts (
	document_id TEXT PRIMARY KEY REFERENCES documents(id) ON DELETE CASCADE,
	body TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS translations (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	selected TEXT NOT NULL,
	context TEXT NOT NULL,
	context_found BOOLEAN NOT NULL,
	target_language TEXT NOT NULL,
	model TEXT NOT NULL,
	provider TEXT NOT NULL,
	translation TEXT NOT NULL,
	definition TEXT NOT NULL,
	explanation TEXT NOT NULL,
	synonyms JSONB NOT NULL DEFAULT '[]'::jsonb,
	cached BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_translations_document_created ON translations(document_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, mime_type, format, storage_path, status, error_message, word_count, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		doc.ID, doc.Filename, doc.MimeType, string(doc.Format), doc.StoragePath, string(doc.Status),
		doc.Error, doc.WordCount, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, format, storage_path, status, COALESCE(error_message, ''), word_count, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var format, status string

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.MimeType, &format, &doc.StoragePath, &status,
		&doc.Error, &doc.WordCount, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Format = domain.DocumentFormat(format)
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return ensureAffected(res, "update document status", id)
}

// SaveText stores the extracted text and its word count in one transaction.
func (r *DocumentRepository) SaveText(ctx context.Context, id, text string, wordCount int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save text tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `
UPDATE documents
SET word_count = $2, updated_at = $3
WHERE id = $1
`, id, wordCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update word count: %w", err)
	}
	if err := ensureAffected(res, "save document text", id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO document_texts (document_id, body) VALUES ($1, $2)
ON CONFLICT (document_id) DO UPDATE SET body = EXCLUDED.body
`, id, text); err != nil {
		return fmt.Errorf("upsert document text: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save text tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetText(ctx context.Context, id string) (string, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM document_texts WHERE document_id = $1`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.WrapError(domain.ErrDocumentNotFound, "get document text", fmt.Errorf("id=%s", id))
		}
		return "", fmt.Errorf("scan document text: %w", err)
	}
	return body, nil
}

func ensureAffected(res sql.Result, operation, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}
