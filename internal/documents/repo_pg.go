package documents

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, policy_id, filename, content_type, storage_key, category, extraction_status, size_bytes, extracted_text_key, extracted_at, created_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    policy_id,
    filename,
    content_type,
    storage_key,
    category,
    extraction_status,
    size_bytes,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	category := doc.Category
	if category == "" {
		category = CategoryPolicy
	}
	status := doc.ExtractionStatus
	if status == "" {
		status = ExtractionNone
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.PolicyID,
		doc.FileName,
		doc.MimeType,
		doc.StorageKey,
		category,
		string(status),
		doc.SizeBytes,
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE id = $1
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByPolicy lists a policy's documents, newest first.
func (r *PGRepo) ListByPolicy(ctx context.Context, policyID string) ([]Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE policy_id = $1
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateExtractionStatus transitions a document's extraction status.
func (r *PGRepo) UpdateExtractionStatus(ctx context.Context, documentID string, status ExtractionStatus) error {
	const query = `
UPDATE documents
SET extraction_status = $1
WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, string(status), documentID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateExtractedText stores the derived text metadata for a document.
func (r *PGRepo) UpdateExtractedText(ctx context.Context, documentID, extractedKey string, extractedAt time.Time) error {
	const query = `
UPDATE documents
SET extracted_text_key = $1, extracted_at = $2
WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, extractedKey, extractedAt, documentID)
	return err
}

func scanDocument(row interface{ Scan(dest ...any) error }) (Document, error) {
	var doc Document
	var status string
	var extractedKey sql.NullString
	var extractedAt sql.NullTime
	err := row.Scan(
		&doc.ID,
		&doc.PolicyID,
		&doc.FileName,
		&doc.MimeType,
		&doc.StorageKey,
		&doc.Category,
		&status,
		&doc.SizeBytes,
		&extractedKey,
		&extractedAt,
		&doc.CreatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	doc.ExtractionStatus = ExtractionStatus(status)
	if extractedKey.Valid {
		doc.ExtractedTextKey = extractedKey.String
	}
	if extractedAt.Valid {
		doc.ExtractedAt = &extractedAt.Time
	}
	return doc, nil
}

var _ Repo = (*PGRepo)(nil)
