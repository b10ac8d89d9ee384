package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackzampolin/folio/internal/clock"
	"github.com/jackzampolin/folio/internal/testutil"
)

func TestCache_TTL(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFake(time.Unix(1000, 0))
	c := New[[]string](Config{Key: "pages", TTL: 300000 * time.Millisecond, Clock: fake})

	if _, ok := c.Get(ctx); ok {
		t.Fatal("Get() on empty cache reported a hit")
	}
	if err := c.Set(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	fake.Advance(299 * time.Second)
	got, ok := c.Get(ctx)
	if !ok || len(got) != 2 {
		t.Fatalf("Get() = %v, %v before expiry", got, ok)
	}

	fake.Advance(time.Second)
	got, ok = c.Get(ctx)
	if ok {
		t.Error("Get() still fresh at ttl")
	}
	if len(got) != 2 {
		t.Errorf("Get() dropped the stale value: %v", got)
	}
}

func TestCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := New[int](Config{Clock: clock.NewFake(time.Unix(0, 0))})
	if err := c.Set(ctx, 7); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, ok := c.Get(ctx); ok {
		t.Error("Get() hit after Invalidate()")
	}
}

func TestCache_GetOrLoad(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFake(time.Unix(0, 0))
	c := New[int](Config{TTL: time.Minute, Clock: fake})

	var calls atomic.Int32
	load := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad(ctx, load)
		if err != nil {
			t.Fatalf("GetOrLoad() error = %v", err)
		}
		if v != 1 {
			t.Errorf("GetOrLoad() = %d, want cached 1", v)
		}
	}

	fake.Advance(time.Minute)
	v, err := c.GetOrLoad(ctx, load)
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}
	if v != 2 {
		t.Errorf("GetOrLoad() after expiry = %d, want 2", v)
	}
}

func TestCache_InvalidateDuringLoad(t *testing.T) {
	ctx := context.Background()
	c := New[string](Config{TTL: time.Minute, Clock: clock.NewFake(time.Unix(0, 0))})

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan string, 1)
	go func() {
		v, _ := c.GetOrLoad(ctx, func(context.Context) (string, error) {
			close(started)
			<-release
			return "before-publish", nil
		})
		done <- v
	}()

	<-started
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	close(release)
	if v := <-done; v != "before-publish" {
		t.Errorf("in-flight GetOrLoad() = %q", v)
	}

	if v, ok := c.Get(ctx); ok {
		t.Fatalf("Get() = %q fresh after invalidation during load", v)
	}
	v, err := c.GetOrLoad(ctx, func(context.Context) (string, error) { return "after-publish", nil })
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}
	if v != "after-publish" {
		t.Errorf("GetOrLoad() = %q, want after-publish", v)
	}
}

func TestCache_GetOrLoadError(t *testing.T) {
	ctx := context.Background()
	c := New[int](Config{Clock: clock.NewFake(time.Unix(0, 0))})
	boom := errors.New("boom")

	_, err := c.GetOrLoad(ctx, func(context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Errorf("GetOrLoad() error = %v, want %v", err, boom)
	}
	if _, ok := c.Get(ctx); ok {
		t.Error("failed load was cached")
	}
}

func TestRedisBackend(t *testing.T) {
	url := testutil.RequireEnv(t, testutil.EnvRedisURL)

	ctx := context.Background()
	backend, err := NewRedisBackend(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisBackend() error = %v", err)
	}
	defer backend.Close()

	c := New[string](Config{Key: "test-" + t.Name(), Backend: backend})
	defer c.Invalidate(ctx)

	if err := c.Set(ctx, "hello"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok := c.Get(ctx)
	if !ok || got != "hello" {
		t.Errorf("Get() = %q, %v", got, ok)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, ok := c.Get(ctx); ok {
		t.Error("Get() hit after Invalidate()")
	}
}
