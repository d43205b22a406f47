package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func TestCacheRepoRoundTripAndExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	repo := NewCacheRepo(client)
	ctx := context.Background()

	type entry struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	if err := repo.SetJSON(ctx, "categories", []entry{{ID: 1, Name: "Policies"}}, time.Minute); err != nil {
		t.Fatalf("set json: %v", err)
	}

	var got []entry
	found, err := repo.GetJSON(ctx, "categories", &got)
	if err != nil {
		t.Fatalf("get json: %v", err)
	}
	if !found || len(got) != 1 || got[0].Name != "Policies" {
		t.Fatalf("unexpected cache value: found=%v value=%+v", found, got)
	}

	mr.FastForward(2 * time.Minute)

	found, err = repo.GetJSON(ctx, "categories", &got)
	if err != nil {
		t.Fatalf("get json after expiry: %v", err)
	}
	if found {
		t.Fatalf("expected cache miss after ttl")
	}
}

func TestCacheRepoNilClientIsMiss(t *testing.T) {
	repo := NewCacheRepo(nil)

	var v []int
	found, err := repo.GetJSON(context.Background(), "x", &v)
	if err != nil || found {
		t.Fatalf("nil client must miss silently: found=%v err=%v", found, err)
	}
	if err := repo.SetJSON(context.Background(), "x", []int{1}, time.Second); err != nil {
		t.Fatalf("nil client set must be a no-op: %v", err)
	}
}
