// Package anthropic calls the Anthropic Messages API for policy extraction.
package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"policyvault-backend/internal/llm"
)

const apiURL = "https://api.anthropic.com/v1/messages"

// Client implements llm.Client using the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs a new Anthropic client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for Anthropic")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required: %w", llm.ErrNoCredentials)
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ExtractPolicy sends the document text through the policy-parser prompt.
func (c *Client) ExtractPolicy(ctx context.Context, documentText string) (json.RawMessage, error) {
	return c.complete(ctx, anthropicRequest{
		Model:     c.model,
		MaxTokens: 4096,
		System:    llm.SystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: llm.UserMessage(documentText)},
		},
	})
}

// ExtractPolicyImages sends scanned page images through the policy-parser
// prompt. Pages beyond llm.MaxScanPages are dropped.
func (c *Client) ExtractPolicyImages(ctx context.Context, images []llm.Image) (json.RawMessage, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images to extract")
	}
	if len(images) > llm.MaxScanPages {
		images = images[:llm.MaxScanPages]
	}
	content := []contentBlock{{Type: "text", Text: llm.ScanMessage}}
	for _, img := range images {
		content = append(content, contentBlock{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: img.MediaType,
				Data:      base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	return c.complete(ctx, anthropicRequest{
		Model:     c.model,
		MaxTokens: 4096,
		System:    llm.SystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: content},
		},
	})
}

func (c *Client) complete(ctx context.Context, reqBody anthropicRequest) (json.RawMessage, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		if llm.IsCredentialFailure(resp.StatusCode, apiResp.Error.Type, apiResp.Error.Message) {
			return nil, fmt.Errorf("anthropic error: %s: %s: %w", apiResp.Error.Type, apiResp.Error.Message, llm.ErrNoCredentials)
		}
		return nil, fmt.Errorf("anthropic error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		if llm.IsCredentialFailure(resp.StatusCode, "", "") {
			return nil, fmt.Errorf("anthropic status %d: %w", resp.StatusCode, llm.ErrNoCredentials)
		}
		return nil, fmt.Errorf("anthropic status %d: %s", resp.StatusCode, string(respBody))
	}
	if len(apiResp.Content) == 0 {
		return nil, fmt.Errorf("empty response from anthropic")
	}

	return json.RawMessage(apiResp.Content[0].Text), nil
}

var _ llm.Client = (*Client)(nil)
