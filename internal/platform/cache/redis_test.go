package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNewRedisClient_BadURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "not-a-url"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisClient(ctx, "redis://127.0.0.1:1/0"); err == nil {
		t.Fatal("expected ping failure")
	}
}

func TestRedis_KeyNamespace(t *testing.T) {
	r := NewRedis(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "care360:catalog")
	if got := r.key("age-groups"); got != "care360:catalog:age-groups" {
		t.Errorf("unexpected key %q", got)
	}
	if got := NewRedis(nil, "").key("x"); got != "x" {
		t.Errorf("unexpected key without namespace %q", got)
	}
}

func TestNoop(t *testing.T) {
	var s Store = Noop{}
	ctx := context.Background()

	if err := s.Set(ctx, "k", []string{"v"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	var out []string
	hit, err := s.Get(ctx, "k", &out)
	if err != nil || hit {
		t.Errorf("expected miss, got hit=%v err=%v", hit, err)
	}
	if err := s.DeletePrefix(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatal(err)
	}
}
