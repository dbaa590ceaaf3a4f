package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID       string    `json:"documentId"`
	PolicyID         string    `json:"policyId"`
	FileName         string    `json:"fileName"`
	ContentType      string    `json:"contentType"`
	SizeBytes        int64     `json:"sizeBytes"`
	Category         string    `json:"category"`
	ExtractionStatus string    `json:"extractionStatus"`
	UploadedAt       time.Time `json:"uploadedAt"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:       doc.ID,
		PolicyID:         doc.PolicyID,
		FileName:         doc.FileName,
		ContentType:      doc.MimeType,
		SizeBytes:        doc.SizeBytes,
		Category:         doc.Category,
		ExtractionStatus: string(doc.ExtractionStatus),
		UploadedAt:       doc.CreatedAt,
	}
}
