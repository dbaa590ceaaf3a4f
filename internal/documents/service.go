package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"policyvault-backend/internal/policies"
	"policyvault-backend/internal/shared/metrics"
	"policyvault-backend/internal/shared/storage/object"
)

// Service contains business logic for documents.
type Service struct {
	Store    object.ObjectStore
	Repo     Repo
	Policies policies.Repo
}

// Upload validates the file, streams it to the object store, and records the
// document. On success exactly one Document exists with extraction status
// "none"; on failure none is created.
func (s *Service) Upload(ctx context.Context, userId, policyID, category, fileName string, size int64, r io.Reader, progress ProgressFunc) (Document, error) {
	if fileName == "" {
		return Document{}, ErrInvalidInput
	}
	if category == "" {
		category = CategoryPolicy
	}
	if !ValidCategory(category) {
		return Document{}, ErrInvalidInput
	}
	if _, err := s.Policies.GetByID(ctx, userId, policyID); err != nil {
		if errors.Is(err, policies.ErrNotFound) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}

	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return Document{}, &UploadFailedError{Status: http.StatusBadGateway, Message: "unable to read file", Err: readErr}
	}
	if n == 0 {
		return Document{}, ErrInvalidInput
	}
	if !recognizableContentType(http.DetectContentType(sniff[:n])) {
		return Document{}, ErrInvalidInput
	}

	body := newProgressReader(io.MultiReader(bytes.NewReader(sniff[:n]), r), size, progress)

	storageKey, written, mimeType, err := s.Store.Save(ctx, policyID, fileName, body)
	if err != nil {
		return Document{}, &UploadFailedError{Status: http.StatusBadGateway, Message: "storage write failed", Err: err}
	}

	doc := Document{
		ID:               uuid.NewString(),
		PolicyID:         policyID,
		FileName:         fileName,
		MimeType:         mimeType,
		SizeBytes:        written,
		StorageKey:       storageKey,
		Category:         category,
		ExtractionStatus: ExtractionNone,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	body.finish()
	metrics.IncUpload()
	return doc, nil
}

// Get returns a document after checking the owning policy belongs to the user.
func (s *Service) Get(ctx context.Context, userId, documentID string) (Document, error) {
	if userId == "" || documentID == "" {
		return Document{}, ErrInvalidInput
	}
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, err
	}
	if _, err := s.Policies.GetByID(ctx, userId, doc.PolicyID); err != nil {
		if errors.Is(err, policies.ErrNotFound) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// List returns a policy's documents, newest first.
func (s *Service) List(ctx context.Context, userId, policyID string) ([]Document, error) {
	if _, err := s.Policies.GetByID(ctx, userId, policyID); err != nil {
		if errors.Is(err, policies.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Repo.ListByPolicy(ctx, policyID)
}

// OpenFile returns the document metadata and a reader over its stored bytes.
// The caller owns closing the reader.
func (s *Service) OpenFile(ctx context.Context, userId, documentID string) (Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, userId, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	body, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, body, nil
}

func recognizableContentType(mimeType string) bool {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch {
	case clean == "application/pdf":
		return true
	case strings.HasPrefix(clean, "image/"):
		return true
	case strings.HasPrefix(clean, "text/"):
		return true
	default:
		return false
	}
}
