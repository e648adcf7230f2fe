package gateways

import (
	"context"
	"fmt"

	"github.com/ochairo/uxaudit/internal/domain/interfaces/gateways"
	"github.com/ochairo/uxaudit/internal/domain/services"
)

// unavailableModelGateway fails every call with the same reason. It stands in
// for the model when none is configured so structured analyzers still run.
type unavailableModelGateway struct {
	reason string
}

// NewUnavailableModelGateway creates a gateway whose calls fail with
// services.ErrModelUnavailable
func NewUnavailableModelGateway(reason string) gateways.ModelGateway {
	return &unavailableModelGateway{reason: reason}
}

// Complete always fails
func (g *unavailableModelGateway) Complete(_ context.Context, _ gateways.ModelRequest) (string, error) {
	return "", fmt.Errorf("%w: %s", services.ErrModelUnavailable, g.reason)
}
