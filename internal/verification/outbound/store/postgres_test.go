package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/passgate/passgate/internal/pkg/goerror"
	"github.com/passgate/passgate/internal/pkg/instrument"
	"github.com/passgate/passgate/internal/pkg/valueobject"
	"github.com/passgate/passgate/internal/verification/entity"
)

const createChallengesTable = `
CREATE TABLE IF NOT EXISTS challenges (
	id           TEXT PRIMARY KEY,
	identity     TEXT NOT NULL UNIQUE,
	code         TEXT NOT NULL,
	issued_at    TIMESTAMPTZ NOT NULL,
	expires_at   TIMESTAMPTZ NOT NULL,
	attempts     INT NOT NULL,
	max_attempts INT NOT NULL,
	metadata     JSONB
)`

func newPostgresStore(t *testing.T) *Postgres {
	t.Helper()

	url := os.Getenv("PASSGATE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PASSGATE_TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, createChallengesTable); err != nil {
		t.Fatalf("create table: %v", err)
	}

	return NewPostgres(pool, instrument.NewNoop())
}

func postgresChallenge(t *testing.T, s *Postgres, now time.Time) entity.Challenge {
	t.Helper()

	identity := fmt.Sprintf("pg-%d@example.com", time.Now().UnixNano())
	t.Cleanup(func() {
		if err := s.Delete(context.Background(), identity); err != nil {
			t.Errorf("cleanup delete: %v", err)
		}
	})

	return entity.Challenge{
		ID:          identity,
		Identity:    identity,
		Code:        "482913",
		IssuedAt:    now,
		ExpiresAt:   now.Add(10 * time.Minute),
		Attempts:    0,
		MaxAttempts: 3,
		Metadata:    valueobject.JSONMap{"name": "User"},
	}
}

func TestPostgresGetUpsertDelete(t *testing.T) {
	ctx := context.Background()
	s := newPostgresStore(t)
	now := time.Now().UTC().Truncate(time.Microsecond)
	ch := postgresChallenge(t, s, now)

	if _, err := s.Get(ctx, ch.Identity); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("get before upsert: err = %v, want ErrNotFound", err)
	}

	if err := s.Upsert(ctx, ch); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.Get(ctx, ch.Identity)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Code != "482913" || got.MaxAttempts != 3 || !got.ExpiresAt.Equal(ch.ExpiresAt) {
		t.Errorf("got = %+v", got)
	}
	if got.Metadata.GetString("name") != "User" {
		t.Errorf("metadata = %v", got.Metadata)
	}

	replacement := ch
	replacement.Code = "000111"
	if err := s.Upsert(ctx, replacement); err != nil {
		t.Fatalf("upsert replace: %v", err)
	}
	got, _ = s.Get(ctx, ch.Identity)
	if got.Code != "000111" {
		t.Errorf("code after replace = %q", got.Code)
	}
}

func TestPostgresConsumeSequence(t *testing.T) {
	ctx := context.Background()
	s := newPostgresStore(t)
	now := time.Now().UTC().Truncate(time.Microsecond)
	ch := postgresChallenge(t, s, now)

	if err := s.Upsert(ctx, ch); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	res, err := s.Consume(ctx, ch.Identity, "000000", now)
	if err != nil {
		t.Fatalf("consume mismatch: %v", err)
	}
	if res.Status != entity.ConsumeMismatch || res.AttemptsLeft != 2 {
		t.Fatalf("res = %+v", res)
	}

	got, err := s.Get(ctx, ch.Identity)
	if err != nil {
		t.Fatalf("get after mismatch: %v", err)
	}
	if got.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", got.Attempts)
	}

	res, err = s.Consume(ctx, ch.Identity, ch.Code, now)
	if err != nil {
		t.Fatalf("consume match: %v", err)
	}
	if res.Status != entity.ConsumeMatched {
		t.Fatalf("res = %+v", res)
	}

	if _, err := s.Consume(ctx, ch.Identity, ch.Code, now); !errors.Is(err, goerror.ErrNotFound) {
		t.Errorf("consume after match: err = %v, want ErrNotFound", err)
	}
}

func TestPostgresSweepExpired(t *testing.T) {
	ctx := context.Background()
	s := newPostgresStore(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	stale := postgresChallenge(t, s, now.Add(-20*time.Minute))
	if err := s.Upsert(ctx, stale); err != nil {
		t.Fatalf("upsert stale: %v", err)
	}
	live := postgresChallenge(t, s, now)
	if err := s.Upsert(ctx, live); err != nil {
		t.Fatalf("upsert live: %v", err)
	}

	removed, err := s.SweepExpired(ctx, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed < 1 {
		t.Errorf("removed = %d, want at least 1", removed)
	}

	if _, err := s.Get(ctx, stale.Identity); !errors.Is(err, goerror.ErrNotFound) {
		t.Errorf("stale after sweep: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, live.Identity); err != nil {
		t.Errorf("live after sweep: %v", err)
	}
}
