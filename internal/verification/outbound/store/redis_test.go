package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/passgate/passgate/internal/pkg/goerror"
	"github.com/passgate/passgate/internal/pkg/instrument"
	"github.com/passgate/passgate/internal/verification/entity"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, instrument.NewNoop()), mr
}

func TestRedisGetUpsertDelete(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s, _ := newRedisStore(t)

	if _, err := s.Get(ctx, "user@example.com"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("get on empty store: err = %v, want ErrNotFound", err)
	}

	ch := testChallenge(now)
	if err := s.Upsert(ctx, ch); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.Get(ctx, ch.Identity)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Code != ch.Code || got.MaxAttempts != ch.MaxAttempts {
		t.Errorf("got = %+v", got)
	}
	if got.Metadata.GetString("name") != "User" {
		t.Errorf("metadata = %+v", got.Metadata)
	}

	if err := s.Delete(ctx, ch.Identity); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, ch.Identity); !errors.Is(err, goerror.ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestRedisUpsertSetsTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s, mr := newRedisStore(t)

	ch := testChallenge(now)
	if err := s.Upsert(ctx, ch); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if ttl := mr.TTL(challengeKey(ch.Identity)); ttl != 10*time.Minute {
		t.Errorf("ttl = %v, want 10m", ttl)
	}

	mr.FastForward(11 * time.Minute)
	if _, err := s.Get(ctx, ch.Identity); !errors.Is(err, goerror.ErrNotFound) {
		t.Errorf("challenge survived ttl eviction")
	}
}

func TestRedisConsumeMatch(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s, _ := newRedisStore(t)

	ch := testChallenge(now)
	if err := s.Upsert(ctx, ch); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	res, err := s.Consume(ctx, ch.Identity, ch.Code, now)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if res.Status != entity.ConsumeMatched {
		t.Fatalf("status = %v, want matched", res.Status)
	}

	if _, err := s.Consume(ctx, ch.Identity, ch.Code, now); !errors.Is(err, goerror.ErrNotFound) {
		t.Errorf("second consume: err = %v, want ErrNotFound", err)
	}
}

func TestRedisConsumeMismatchKeepsTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s, mr := newRedisStore(t)

	ch := testChallenge(now)
	if err := s.Upsert(ctx, ch); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	res, err := s.Consume(ctx, ch.Identity, "000000", now)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if res.Status != entity.ConsumeMismatch || res.AttemptsLeft != 2 {
		t.Fatalf("res = %+v", res)
	}

	if ttl := mr.TTL(challengeKey(ch.Identity)); ttl != 10*time.Minute {
		t.Errorf("ttl after mismatch = %v, want unchanged 10m", ttl)
	}

	got, err := s.Get(ctx, ch.Identity)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", got.Attempts)
	}
}

func TestRedisConsumeExhaustionDeletes(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s, _ := newRedisStore(t)

	ch := testChallenge(now)
	if err := s.Upsert(ctx, ch); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	for want := ch.MaxAttempts - 1; want >= 0; want-- {
		res, err := s.Consume(ctx, ch.Identity, "000000", now)
		if err != nil {
			t.Fatalf("consume: %v", err)
		}
		if res.AttemptsLeft != want {
			t.Errorf("attempts left = %d, want %d", res.AttemptsLeft, want)
		}
	}

	if _, err := s.Get(ctx, ch.Identity); !errors.Is(err, goerror.ErrNotFound) {
		t.Errorf("challenge not deleted after final attempt")
	}
}
