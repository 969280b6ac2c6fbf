// Package bridge propagates a successful verification to the external
// accounts table. The challenge is already consumed by the time it runs, so
// failures here are logged by the caller and never un-verify anything.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/passgate/passgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Bridge struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func New(conn *pgxpool.Pool, ins instrument.Instrumentation) *Bridge {
	return &Bridge{conn: conn, ins: ins}
}

func (b *Bridge) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return b.ins.Tracer("verification.outbound.bridge").Start(ctx, name)
}

// OnVerified stamps the account row for the identity as verified. An identity
// without an account row is not an error; the verified event still goes out
// and downstream consumers may create the account later.
func (b *Bridge) OnVerified(ctx context.Context, identity string, verifiedAt time.Time, _ map[string]any) (err error) {
	ctx, span := b.startSpan(ctx, "OnVerified")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if b.conn == nil {
		return errors.New("bridge: no database connection")
	}

	tag, err := b.conn.Exec(ctx,
		`UPDATE accounts SET verified_at = $2, updated_at = $2 WHERE email = $1 AND verified_at IS NULL`,
		identity, verifiedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		slog.InfoContext(ctx, "no unverified account row for identity", "identity", identity)
	}

	return nil
}
