// Package llm abstracts the extraction model providers.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Client abstracts LLM providers for policy document extraction.
type Client interface {
	ExtractPolicy(ctx context.Context, documentText string) (json.RawMessage, error)
	ExtractPolicyImages(ctx context.Context, images []Image) (json.RawMessage, error)
}

// Image is one scanned page sent to a vision-capable model.
type Image struct {
	MediaType string
	Data      []byte
}

// MaxScanPages caps how many page images go into a single vision request.
const MaxScanPages = 20

// ErrNoCredentials marks a credential/configuration failure. Providers wrap it
// exactly once, at this boundary; callers test it with errors.Is and never
// re-inspect messages.
var ErrNoCredentials = errors.New("llm credentials not configured")

// IsCredentialFailure classifies a provider error payload as a
// credential/configuration problem.
func IsCredentialFailure(statusCode int, errType, message string) bool {
	if statusCode == 401 || statusCode == 403 {
		return true
	}
	errType = strings.ToLower(errType)
	if strings.Contains(errType, "authentication") || strings.Contains(errType, "permission") {
		return true
	}
	message = strings.ToLower(message)
	return strings.Contains(message, "api key") || strings.Contains(message, "api_key") || strings.Contains(message, "authentication")
}

// UnconfiguredClient stands in when no provider credentials are present.
type UnconfiguredClient struct{}

// ExtractPolicy always reports missing credentials.
func (UnconfiguredClient) ExtractPolicy(ctx context.Context, documentText string) (json.RawMessage, error) {
	_ = ctx
	_ = documentText
	return nil, ErrNoCredentials
}

// ExtractPolicyImages always reports missing credentials.
func (UnconfiguredClient) ExtractPolicyImages(ctx context.Context, images []Image) (json.RawMessage, error) {
	_ = ctx
	_ = images
	return nil, ErrNoCredentials
}

var _ Client = UnconfiguredClient{}
