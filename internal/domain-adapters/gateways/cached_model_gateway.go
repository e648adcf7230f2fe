package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/ochairo/uxaudit/internal/domain/interfaces"
	"github.com/ochairo/uxaudit/internal/domain/interfaces/gateways"
)

// cachedModelGateway serves repeated model requests from a response cache
// and collapses identical in-flight requests into one upstream call.
type cachedModelGateway struct {
	inner  gateways.ModelGateway
	cache  gateways.ResponseCache
	logger interfaces.Logger
	group  singleflight.Group
}

// NewCachedModelGateway wraps inner with cache
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewCachedModelGateway(inner gateways.ModelGateway, cache gateways.ResponseCache, logger interfaces.Logger) *cachedModelGateway {
	return &cachedModelGateway{
		inner:  inner,
		cache:  cache,
		logger: interfaces.OrNoOp(logger),
	}
}

// Complete returns a cached response when present. Cache failures are logged
// and fall through to the inner gateway; upstream errors are never cached.
func (g *cachedModelGateway) Complete(ctx context.Context, req gateways.ModelRequest) (string, error) {
	key, err := RequestKey(req)
	if err != nil {
		return "", err
	}

	if text, found, err := g.cache.Get(ctx, key); err != nil {
		g.logger.Warn("model cache read failed", interfaces.F("error", err))
	} else if found {
		g.logger.Debug("model cache hit", interfaces.F("model", req.Model), interfaces.F("key", key[:12]))
		return text, nil
	}

	result, err, shared := g.group.Do(key, func() (interface{}, error) {
		text, err := g.inner.Complete(ctx, req)
		if err != nil {
			return "", err
		}
		if err := g.cache.Set(ctx, key, text); err != nil {
			g.logger.Warn("model cache write failed", interfaces.F("error", err))
		}
		return text, nil
	})
	if shared {
		g.logger.Debug("singleflight: shared model call", interfaces.F("key", key[:12]))
	}
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// RequestKey fingerprints a request. Images contribute their digest so the
// key stays small.
func RequestKey(req gateways.ModelRequest) (string, error) {
	images := make([]string, len(req.Images))
	for i, img := range req.Images {
		sum := sha256.Sum256(img.Data)
		images[i] = img.MediaType + ":" + hex.EncodeToString(sum[:])
	}

	data, err := json.Marshal(struct {
		Model     string   `json:"model"`
		System    string   `json:"system"`
		Prompt    string   `json:"prompt"`
		Images    []string `json:"images"`
		MaxTokens int      `json:"max_tokens"`
	}{req.Model, req.System, req.Prompt, images, req.MaxTokens})
	if err != nil {
		return "", fmt.Errorf("failed to encode request key: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
