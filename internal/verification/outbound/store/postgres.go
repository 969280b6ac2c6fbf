package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/passgate/passgate/internal/pkg/goerror"
	"github.com/passgate/passgate/internal/pkg/instrument"
	"github.com/passgate/passgate/internal/verification/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Postgres persists challenges in the challenges table. Consume runs inside
// a transaction with SELECT FOR UPDATE, which gives the per-identity
// serialization the contract requires.
type Postgres struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewPostgres(conn *pgxpool.Pool, ins instrument.Instrumentation) *Postgres {
	return &Postgres{conn: conn, ins: ins}
}

func (s *Postgres) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.outbound.store").Start(ctx, name)
}

func (s *Postgres) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Postgres) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}
	return err
}

const queryGetChallenge = `
SELECT id, identity, code, issued_at, expires_at, attempts, max_attempts, metadata
FROM challenges
WHERE identity = $1`

func scanChallenge(row pgx.Row) (*entity.Challenge, error) {
	var ch entity.Challenge
	err := row.Scan(
		&ch.ID,
		&ch.Identity,
		&ch.Code,
		&ch.IssuedAt,
		&ch.ExpiresAt,
		&ch.Attempts,
		&ch.MaxAttempts,
		&ch.Metadata,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *Postgres) Get(ctx context.Context, identity string) (ch *entity.Challenge, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer func() { s.endSpan(span, err) }()

	ch, err = scanChallenge(s.conn.QueryRow(ctx, queryGetChallenge, identity))
	if err != nil {
		return nil, s.mapError(err)
	}
	return ch, nil
}

func (s *Postgres) Upsert(ctx context.Context, ch entity.Challenge) (err error) {
	ctx, span := s.startSpan(ctx, "Upsert")
	defer func() { s.endSpan(span, err) }()

	query := `
INSERT INTO challenges (id, identity, code, issued_at, expires_at, attempts, max_attempts, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (identity) DO UPDATE SET
	id = EXCLUDED.id,
	code = EXCLUDED.code,
	issued_at = EXCLUDED.issued_at,
	expires_at = EXCLUDED.expires_at,
	attempts = EXCLUDED.attempts,
	max_attempts = EXCLUDED.max_attempts,
	metadata = EXCLUDED.metadata`

	_, err = s.conn.Exec(ctx, query,
		ch.ID, ch.Identity, ch.Code, ch.IssuedAt, ch.ExpiresAt, ch.Attempts, ch.MaxAttempts, ch.Metadata)
	return s.mapError(err)
}

func (s *Postgres) Delete(ctx context.Context, identity string) (err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM challenges WHERE identity = $1`, identity)
	return s.mapError(err)
}

func (s *Postgres) Consume(ctx context.Context, identity, code string, now time.Time) (res *entity.ConsumeResult, err error) {
	ctx, span := s.startSpan(ctx, "Consume")
	defer func() { s.endSpan(span, err) }()

	err = pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		ch, err := scanChallenge(tx.QueryRow(ctx, queryGetChallenge+" FOR UPDATE", identity))
		if err != nil {
			return err
		}

		result, del := evaluateConsume(*ch, code, now)
		if del {
			if _, err := tx.Exec(ctx, `DELETE FROM challenges WHERE identity = $1`, identity); err != nil {
				return err
			}
		} else {
			if _, err := tx.Exec(ctx,
				`UPDATE challenges SET attempts = $2 WHERE identity = $1`,
				identity, result.Challenge.Attempts); err != nil {
				return err
			}
		}

		res = result
		return nil
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return res, nil
}

func (s *Postgres) SweepExpired(ctx context.Context, now time.Time) (removed int64, err error) {
	ctx, span := s.startSpan(ctx, "SweepExpired")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM challenges WHERE expires_at < $1`, now)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
