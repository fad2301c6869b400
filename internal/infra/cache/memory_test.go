package cache

import (
	"errors"
	"testing"
	"time"

	"chatlog-digest/internal/domain"
)

func TestMemoryCacheOnce(t *testing.T) {
	c := NewMemory()
	calls := 0
	fn := func() error { calls++; return nil }
	if err := c.Once("k", time.Minute, fn); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := c.Once("k", time.Minute, fn); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if calls != 1 {
		t.Fatalf("ожидали 1 вызов, получили %d", calls)
	}
}

func TestMemoryCacheOnceReleasesKeyOnError(t *testing.T) {
	c := NewMemory()
	failure := errors.New("boom")
	if err := c.Once("k", time.Minute, func() error { return failure }); !errors.Is(err, failure) {
		t.Fatalf("ожидали ошибку fn, получили %v", err)
	}
	calls := 0
	_ = c.Once("k", time.Minute, func() error { calls++; return nil })
	if calls != 1 {
		t.Fatalf("ожидали повторный вызов после ошибки")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemory()
	now := time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got, err := c.Get("k"); err != nil || string(got) != "v" {
		t.Fatalf("ожидали значение v, получили %q, %v", got, err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := c.Get("k"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("ожидали ErrCacheMiss, получили %v", err)
	}
}
