package services

import (
	"context"
	"sync"

	"github.com/ochairo/uxaudit/internal/domain/entities"
	"github.com/ochairo/uxaudit/internal/domain/interfaces"
	"github.com/ochairo/uxaudit/internal/domain/interfaces/gateways"
)

// mockModelGateway returns a canned response and records requests
type mockModelGateway struct {
	mu       sync.Mutex
	response string
	err      error
	requests []gateways.ModelRequest
}

func (m *mockModelGateway) Complete(_ context.Context, req gateways.ModelRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return m.response, m.err
}

// recordingLogger captures warnings for assertions
type recordingLogger struct {
	interfaces.NoOpLogger
	mu    sync.Mutex
	warns []string
}

func (r *recordingLogger) Warn(msg string, _ ...interfaces.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, msg)
}

func testRegistry() *CriteriaRegistry {
	list := make([]entities.EvaluationCriteria, 0, len(entities.AllCategories))
	for _, c := range entities.AllCategories {
		list = append(list, entities.EvaluationCriteria{
			Category:     c,
			Checklist:    []string{string(c) + " checklist item one", string(c) + " checklist item two"},
			AntiPatterns: []string{string(c) + " anti-pattern"},
		})
	}
	registry, err := NewCriteriaRegistry(list)
	if err != nil {
		panic(err)
	}
	return registry
}
