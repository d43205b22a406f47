package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func TestRateRepoWindowExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	repo := NewRateRepo(client)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, ttl, err := repo.IncrementWindow(ctx, "login:min:a@b.io", time.Minute)
		if err != nil {
			t.Fatalf("increment #%d: %v", want, err)
		}
		if count != want {
			t.Fatalf("unexpected count: got %d want %d", count, want)
		}
		if ttl <= 0 || ttl > time.Minute {
			t.Fatalf("unexpected ttl: %s", ttl)
		}
	}

	if !mr.Exists("dochub:rate:login:min:a@b.io") {
		t.Fatalf("expected namespaced rate key")
	}

	mr.FastForward(61 * time.Second)

	count, _, err := repo.WindowState(ctx, "login:min:a@b.io")
	if err != nil {
		t.Fatalf("window state: %v", err)
	}
	if count != 0 {
		t.Fatalf("window must be empty after expiry, got %d", count)
	}
}

func TestRateRepoReset(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	repo := NewRateRepo(client)
	ctx := context.Background()

	if _, _, err := repo.IncrementWindow(ctx, "k", time.Hour); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := repo.Reset(ctx, "k"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	count, ttl, err := repo.WindowState(ctx, "k")
	if err != nil {
		t.Fatalf("window state: %v", err)
	}
	if count != 0 || ttl != 0 {
		t.Fatalf("unexpected state after reset: count=%d ttl=%s", count, ttl)
	}
}
