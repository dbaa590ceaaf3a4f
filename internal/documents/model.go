package documents

import "time"

// ExtractionStatus tracks the lifecycle of AI extraction on a document.
type ExtractionStatus string

const (
	ExtractionNone    ExtractionStatus = "none"
	ExtractionPending ExtractionStatus = "pending"
	ExtractionDone    ExtractionStatus = "done"
	ExtractionFailed  ExtractionStatus = "failed"
)

// Categories a document may be filed under.
const (
	CategoryPolicy        = "policy"
	CategoryDecPage       = "dec_page"
	CategoryInsuranceCard = "insurance_card"
	CategoryEndorsement   = "endorsement"
	CategoryOther         = "other"
)

var validCategories = map[string]struct{}{
	CategoryPolicy:        {},
	CategoryDecPage:       {},
	CategoryInsuranceCard: {},
	CategoryEndorsement:   {},
	CategoryOther:         {},
}

// ValidCategory reports whether a category is one of the declared document categories.
func ValidCategory(category string) bool {
	_, ok := validCategories[category]
	return ok
}

// Document represents one stored file attached to a policy.
// Immutable after creation except for the extraction fields.
type Document struct {
	ID               string
	PolicyID         string
	FileName         string
	MimeType         string
	SizeBytes        int64
	StorageKey       string
	Category         string
	ExtractionStatus ExtractionStatus
	ExtractedTextKey string
	ExtractedAt      *time.Time
	CreatedAt        time.Time
}
