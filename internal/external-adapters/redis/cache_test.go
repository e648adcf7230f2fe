package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	url := os.Getenv("UXAUDIT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("UXAUDIT_TEST_REDIS_URL not set")
	}
	cache, err := NewCache(context.Background(), url, "uxaudit-test:"+uuid.NewString()+":", time.Minute)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestCache_SetGet(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	if _, found, err := cache.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("Get(missing) = found %v, err %v", found, err)
	}

	if err := cache.Set(ctx, "k", `[{"description":"x"}]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, found, err := cache.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("Get() = found %v, err %v", found, err)
	}
	if got != `[{"description":"x"}]` {
		t.Errorf("Get() = %q", got)
	}

	if err := cache.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := cache.Get(ctx, "k"); found {
		t.Error("key still present after Delete()")
	}
}

func TestNewCache_InvalidURL(t *testing.T) {
	if _, err := NewCache(context.Background(), "not-a-url://", "", 0); err == nil {
		t.Error("NewCache() should reject an invalid URL")
	}
}
