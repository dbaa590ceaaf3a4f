package documents

import (
	"context"
	"time"
)

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	ListByPolicy(ctx context.Context, policyID string) ([]Document, error)
	UpdateExtractionStatus(ctx context.Context, documentID string, status ExtractionStatus) error
	UpdateExtractedText(ctx context.Context, documentID, extractedKey string, extractedAt time.Time) error
}
