// Package store persists challenges keyed by identity. Every driver gives the
// same guarantee: Upsert, Delete, and Consume are atomic per identity, so two
// concurrent redemptions can never both succeed or double-spend an attempt.
package store

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/passgate/passgate/internal/pkg/instrument"
	"github.com/passgate/passgate/internal/verification/entity"
	"github.com/redis/go-redis/v9"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Store is the challenge persistence contract.
type Store interface {
	// Get returns the live challenge for identity or goerror.ErrNotFound.
	Get(ctx context.Context, identity string) (*entity.Challenge, error)
	// Upsert atomically replaces any existing challenge for the identity.
	Upsert(ctx context.Context, ch entity.Challenge) error
	// Delete removes the challenge; deleting a missing identity is not an error.
	Delete(ctx context.Context, identity string) error
	// Consume atomically redeems a submitted code against the stored
	// challenge, applying expiry, attempt budget, and comparison in one
	// exclusive step. Returns goerror.ErrNotFound when no challenge exists.
	Consume(ctx context.Context, identity, code string, now time.Time) (*entity.ConsumeResult, error)
	// SweepExpired removes every challenge past expiry and reports the count.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// FactoryOptions carries the connections a driver may need.
type FactoryOptions struct {
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Instrument instrument.Instrumentation
}

// NewFromDriver builds a Store for the configured driver name.
func NewFromDriver(driver string, opts FactoryOptions) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil

	case DriverPostgres:
		if opts.Pool == nil {
			return nil, fmt.Errorf("store: postgres driver requires a connection pool")
		}
		return NewPostgres(opts.Pool, opts.Instrument), nil

	case DriverRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("store: redis driver requires a client")
		}
		return NewRedis(opts.Redis, opts.Instrument), nil

	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
}

// evaluateConsume applies the redemption rules to a challenge the caller has
// loaded under per-identity exclusivity. When del is true the row must be
// deleted; otherwise res.Challenge carries an incremented attempt counter
// that must be persisted.
func evaluateConsume(ch entity.Challenge, code string, now time.Time) (res *entity.ConsumeResult, del bool) {
	if ch.Expired(now) {
		return &entity.ConsumeResult{Status: entity.ConsumeExpired, Challenge: ch}, true
	}

	if ch.Exhausted() {
		return &entity.ConsumeResult{Status: entity.ConsumeExhausted, Challenge: ch}, true
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(ch.Code)) == 1 {
		return &entity.ConsumeResult{Status: entity.ConsumeMatched, Challenge: ch}, true
	}

	ch.Attempts++
	res = &entity.ConsumeResult{
		Status:       entity.ConsumeMismatch,
		AttemptsLeft: ch.AttemptsLeft(),
		Challenge:    ch,
	}

	// A mismatch that spends the last attempt deletes the row so the next
	// call sees NotFound and has to request a fresh code.
	return res, ch.Exhausted()
}
