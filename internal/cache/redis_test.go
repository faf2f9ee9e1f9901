package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	cache := NewRedisCache(&CacheConfig{
		Addr:         mr.Addr(),
		PoolSize:     10,
		MaxRetries:   0,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func TestDefaultCacheConfig(t *testing.T) {
	config := DefaultCacheConfig()

	if config.Addr != "localhost:6379" {
		t.Errorf("Expected Addr to be localhost:6379, got %s", config.Addr)
	}

	if config.PoolSize != 10 {
		t.Errorf("Expected PoolSize to be 10, got %d", config.PoolSize)
	}

	if config.DialTimeout != 5*time.Second {
		t.Errorf("Expected DialTimeout to be 5s, got %v", config.DialTimeout)
	}
}

func TestNewRedisCache_WithNilConfig(t *testing.T) {
	cache := NewRedisCache(nil)
	defer cache.Close()

	if cache.Client() == nil {
		t.Error("Expected Redis client to be initialized")
	}
}

func TestRedisCache_SetAndGet(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	type identity struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}

	original := identity{Name: "Ada", Role: "admin"}
	if err := cache.Set(ctx, "user:1", original, time.Minute); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	var retrieved identity
	if err := cache.Get(ctx, "user:1", &retrieved); err != nil {
		t.Fatalf("Failed to get from cache: %v", err)
	}

	if retrieved != original {
		t.Errorf("Expected %+v, got %+v", original, retrieved)
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "short", "v", time.Second); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}
	mr.FastForward(2 * time.Second)

	var v string
	if err := cache.Get(ctx, "short", &v); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestRedisCache_Get_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	var result string
	if err := cache.Get(context.Background(), "non-existent-key", &result); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestRedisCache_Set_InvalidData(t *testing.T) {
	cache, _ := setupTestRedis(t)

	if err := cache.Set(context.Background(), "test:key", make(chan int), time.Minute); err == nil {
		t.Error("Expected error when setting unmarshalable data")
	}
}

func TestRedisCache_Get_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Set("test:invalid", "invalid-json")

	var result map[string]interface{}
	if err := cache.Get(context.Background(), "test:invalid", &result); err == nil {
		t.Error("Expected error when getting invalid JSON")
	}
}

func TestRedisCache_Delete(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "test:delete", "data", time.Minute); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	if err := cache.Delete(ctx, "test:delete"); err != nil {
		t.Fatalf("Failed to delete from cache: %v", err)
	}

	var retrieved string
	if err := cache.Get(ctx, "test:delete", &retrieved); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after delete, got %v", err)
	}

	if err := cache.Delete(ctx); err != nil {
		t.Errorf("Deleting no keys should be a no-op, got %v", err)
	}
}

func TestRedisCache_HealthCheck(t *testing.T) {
	cache, mr := setupTestRedis(t)

	if err := cache.HealthCheck(context.Background()); err != nil {
		t.Errorf("Expected healthy cache, got error: %v", err)
	}

	mr.Close()

	if err := cache.HealthCheck(context.Background()); err == nil {
		t.Error("Expected unhealthy cache after closing Redis")
	}
}

func TestRedisCache_Stats(t *testing.T) {
	cache, _ := setupTestRedis(t)

	stats := cache.Stats()
	if _, ok := stats["pool_total"]; !ok {
		t.Errorf("Expected pool stats, got %v", stats)
	}
}

func TestCacheMetrics_Snapshot(t *testing.T) {
	m := NewCacheMetrics()
	m.RecordHit()
	m.RecordHit()
	m.RecordHit()
	m.RecordMiss()
	m.RecordSet()

	s := m.Snapshot()
	if s.Hits != 3 || s.Misses != 1 || s.Sets != 1 {
		t.Errorf("Unexpected counters: %+v", s)
	}
	if s.HitRate != 75 {
		t.Errorf("Expected hit rate 75, got %v", s.HitRate)
	}
}
