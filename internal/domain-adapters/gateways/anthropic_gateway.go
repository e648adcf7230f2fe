package gateways

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

	"github.com/ochairo/uxaudit/internal/domain/interfaces/gateways"
	"github.com/ochairo/uxaudit/internal/domain/services"
)

// Anthropic Messages API defaults
const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultAnthropicVersion = "2023-06-01"

	messagesPath    = "/v1/messages"
	maxResponseSize = 10 * 1024 * 1024
)

// AnthropicConfig configures the Messages API client
type AnthropicConfig struct {
	BaseURL string
	APIKey  string
	Version string
	Timeout time.Duration
}

// anthropicGateway implements gateways.ModelGateway over the Messages HTTP API
type anthropicGateway struct {
	apiURL     string
	apiKey     string
	version    string
	httpClient *http.Client
}

// NewAnthropicGateway creates a model gateway. An empty API key is a
// configuration error.
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewAnthropicGateway(cfg AnthropicConfig) (*anthropicGateway, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: model API key is not set", services.ErrConfiguration)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	version := cfg.Version
	if version == "" {
		version = DefaultAnthropicVersion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &anthropicGateway{
		apiURL:  strings.TrimRight(baseURL, "/") + messagesPath,
		apiKey:  cfg.APIKey,
		version: version,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Complete sends one user turn (images first, then the prompt) and returns
// the concatenated text blocks of the reply.
func (g *anthropicGateway) Complete(ctx context.Context, req gateways.ModelRequest) (string, error) {
	content := make([]messageContent, 0, len(req.Images)+1)
	for _, img := range req.Images {
		content = append(content, messageContent{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: img.MediaType,
				Data:      base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	content = append(content, messageContent{Type: "text", Text: req.Prompt})

	payload := MessagesRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages:  []message{{Role: "user", Content: content}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", g.apiKey)
	httpReq.Header.Set("anthropic-version", g.version)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("model API request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseSize)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr MessagesError
		raw, _ := io.ReadAll(limited)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("model API returned status %d (%s): %s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
		}
		return "", fmt.Errorf("model API returned status %d", resp.StatusCode)
	}

	var msgResp MessagesResponse
	if err := json.NewDecoder(limited).Decode(&msgResp); err != nil {
		return "", fmt.Errorf("failed to parse model response: %w", err)
	}

	var text strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

// Messages API request/response types

// MessagesRequest is the body of POST /v1/messages
type MessagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string           `json:"role"`
	Content []messageContent `json:"content"`
}

type messageContent struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// MessagesResponse is the subset of the reply the gateway reads
type MessagesResponse struct {
	ID         string         `json:"id"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// ContentBlock is one block of a reply
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// MessagesError is the error envelope returned on non-2xx responses
type MessagesError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
