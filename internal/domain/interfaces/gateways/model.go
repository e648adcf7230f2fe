// Package gateways defines contracts for external systems the domain talks to.
package gateways

import "context"

// ImageInput is one image attached to a model request
type ImageInput struct {
	MediaType string // image/png, image/jpeg, image/webp
	Data      []byte
}

// ModelRequest is a single text-and-optionally-image generative model call
type ModelRequest struct {
	Model     string
	System    string
	Prompt    string
	Images    []ImageInput
	MaxTokens int
}

// ModelGateway sends a request to a generative model and returns its text output.
// The output may be a bare JSON array, a fenced code block, or free text
// containing one; callers must parse defensively.
type ModelGateway interface {
	Complete(ctx context.Context, req ModelRequest) (string, error)
}

// ResponseCache stores raw model responses keyed by request fingerprint
type ResponseCache interface {
	// Get returns (value, found, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
