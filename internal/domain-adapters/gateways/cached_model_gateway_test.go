package gateways

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ochairo/uxaudit/internal/domain/interfaces/gateways"
)

// countingGateway records how often the upstream is called
type countingGateway struct {
	calls    atomic.Int32
	response string
	err      error
	release  chan struct{}
}

func (g *countingGateway) Complete(_ context.Context, _ gateways.ModelRequest) (string, error) {
	g.calls.Add(1)
	if g.release != nil {
		<-g.release
	}
	return g.response, g.err
}

// failingCache always errors
type failingCache struct{}

func (failingCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, string) error {
	return errors.New("cache down")
}

func TestCachedModelGateway_ServesFromCache(t *testing.T) {
	inner := &countingGateway{response: "[]"}
	gateway := NewCachedModelGateway(inner, NewMemoryCache(0), nil)
	req := gateways.ModelRequest{Model: "m", Prompt: "p"}

	for i := 0; i < 3; i++ {
		text, err := gateway.Complete(context.Background(), req)
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if text != "[]" {
			t.Errorf("Complete() = %q, want []", text)
		}
	}
	if got := inner.calls.Load(); got != 1 {
		t.Errorf("inner called %d times, want 1", got)
	}
}

func TestCachedModelGateway_DoesNotCacheErrors(t *testing.T) {
	inner := &countingGateway{err: errors.New("overloaded")}
	cache := NewMemoryCache(0)
	gateway := NewCachedModelGateway(inner, cache, nil)

	for i := 0; i < 2; i++ {
		if _, err := gateway.Complete(context.Background(), gateways.ModelRequest{Prompt: "p"}); err == nil {
			t.Fatal("Complete() should return the upstream error")
		}
	}
	if inner.calls.Load() != 2 {
		t.Errorf("inner called %d times, want 2", inner.calls.Load())
	}
	if cache.Len() != 0 {
		t.Errorf("cache has %d entries, want 0", cache.Len())
	}
}

func TestCachedModelGateway_CacheFailureFallsThrough(t *testing.T) {
	inner := &countingGateway{response: "ok"}
	gateway := NewCachedModelGateway(inner, failingCache{}, nil)

	text, err := gateway.Complete(context.Background(), gateways.ModelRequest{Prompt: "p"})
	if err != nil || text != "ok" {
		t.Errorf("Complete() = %q, %v; want ok", text, err)
	}
}

func TestCachedModelGateway_CollapsesConcurrentRequests(t *testing.T) {
	inner := &countingGateway{response: "shared", release: make(chan struct{})}
	gateway := NewCachedModelGateway(inner, NewMemoryCache(0), nil)
	req := gateways.ModelRequest{Prompt: "same"}

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = gateway.Complete(context.Background(), req)
		}(i)
	}

	// Let the goroutines pile up behind the first call
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	for i, r := range results {
		if r != "shared" {
			t.Errorf("result %d = %q, want shared", i, r)
		}
	}
	if got := inner.calls.Load(); got > 2 {
		t.Errorf("inner called %d times, want concurrent requests collapsed", got)
	}
}

func TestRequestKey(t *testing.T) {
	base := gateways.ModelRequest{Model: "m", Prompt: "p", Images: []gateways.ImageInput{{MediaType: "image/png", Data: []byte{1, 2}}}}

	a, err := RequestKey(base)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := RequestKey(base)
	if a != b {
		t.Error("RequestKey() is not deterministic")
	}

	changed := base
	changed.Images = []gateways.ImageInput{{MediaType: "image/png", Data: []byte{1, 3}}}
	c, _ := RequestKey(changed)
	if a == c {
		t.Error("RequestKey() ignores image content")
	}

	other := base
	other.Model = "n"
	d, _ := RequestKey(other)
	if a == d {
		t.Error("RequestKey() ignores the model")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_ = cache.Set(context.Background(), "k", "v")
	if _, found, _ := cache.Get(context.Background(), "k"); !found {
		t.Fatal("fresh entry not found")
	}

	now = now.Add(2 * time.Minute)
	if _, found, _ := cache.Get(context.Background(), "k"); found {
		t.Error("expired entry still returned")
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want expired entry evicted", cache.Len())
	}
}
