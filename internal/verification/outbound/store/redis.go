package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/passgate/passgate/internal/pkg/goerror"
	"github.com/passgate/passgate/internal/pkg/instrument"
	"github.com/passgate/passgate/internal/pkg/valueobject"
	"github.com/passgate/passgate/internal/verification/entity"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	challengeKeyPrefix = "verification:challenge:"

	// consumeTxRetries bounds the optimistic retry loop when a concurrent
	// writer invalidates the watched key.
	consumeTxRetries = 5
)

// Redis keeps challenges as JSON values with a TTL matching the challenge
// expiry, so Redis itself takes care of purging stale records.
type Redis struct {
	client *redis.Client
	ins    instrument.Instrumentation
}

func NewRedis(client *redis.Client, ins instrument.Instrumentation) *Redis {
	return &Redis{client: client, ins: ins}
}

func challengeKey(identity string) string {
	return challengeKeyPrefix + identity
}

type redisChallenge struct {
	ID          string              `json:"id"`
	Identity    string              `json:"identity"`
	Code        string              `json:"code"`
	IssuedAt    time.Time           `json:"issued_at"`
	ExpiresAt   time.Time           `json:"expires_at"`
	Attempts    int                 `json:"attempts"`
	MaxAttempts int                 `json:"max_attempts"`
	Metadata    valueobject.JSONMap `json:"metadata,omitempty"`
}

func encodeChallenge(ch entity.Challenge) ([]byte, error) {
	return json.Marshal(redisChallenge(ch))
}

func decodeChallenge(raw []byte) (*entity.Challenge, error) {
	var rec redisChallenge
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}

	ch := entity.Challenge(rec)
	return &ch, nil
}

func (s *Redis) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.outbound.store").Start(ctx, name)
}

func (s *Redis) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Redis) Get(ctx context.Context, identity string) (ch *entity.Challenge, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer func() { s.endSpan(span, err) }()

	raw, err := s.client.Get(ctx, challengeKey(identity)).Bytes()
	if errors.Is(err, redis.Nil) {
		err = goerror.ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	return decodeChallenge(raw)
}

func (s *Redis) Upsert(ctx context.Context, ch entity.Challenge) (err error) {
	ctx, span := s.startSpan(ctx, "Upsert")
	defer func() { s.endSpan(span, err) }()

	raw, err := encodeChallenge(ch)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, challengeKey(ch.Identity), raw, ch.ExpiresAt.Sub(ch.IssuedAt)).Err()
}

func (s *Redis) Delete(ctx context.Context, identity string) (err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { s.endSpan(span, err) }()

	return s.client.Del(ctx, challengeKey(identity)).Err()
}

func (s *Redis) Consume(ctx context.Context, identity, code string, now time.Time) (res *entity.ConsumeResult, err error) {
	ctx, span := s.startSpan(ctx, "Consume")
	defer func() { s.endSpan(span, err) }()

	key := challengeKey(identity)

	for i := 0; i < consumeTxRetries; i++ {
		err = s.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return goerror.ErrNotFound
			}
			if err != nil {
				return err
			}

			ch, err := decodeChallenge(raw)
			if err != nil {
				return err
			}

			result, del := evaluateConsume(*ch, code, now)

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if del {
					pipe.Del(ctx, key)
					return nil
				}

				updated, err := encodeChallenge(result.Challenge)
				if err != nil {
					return err
				}
				pipe.Set(ctx, key, updated, redis.KeepTTL)
				return nil
			})
			if err != nil {
				return err
			}

			res = result
			return nil
		}, key)

		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	return res, nil
}

// SweepExpired is a no-op for this driver. Keys carry a TTL equal to the
// challenge lifetime, so Redis evicts expired records on its own.
func (s *Redis) SweepExpired(ctx context.Context, _ time.Time) (int64, error) {
	_, span := s.startSpan(ctx, "SweepExpired")
	defer span.End()

	return 0, nil
}
