// Package mailer delivers passcodes over the configured mail provider. It is
// the only component allowed to see a code outside the store.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/passgate/passgate/internal/pkg/config"
	"github.com/passgate/passgate/internal/pkg/instrument"
	"github.com/passgate/passgate/internal/pkg/mail"
	"github.com/passgate/passgate/internal/pkg/valueobject"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	retryBase = 200 * time.Millisecond
	// retryMax bounds transient delivery retries; a send that still fails is
	// reported to the caller, who can trigger a resend.
	retryMax = 2
)

type Mailer struct {
	client mail.Mail
	cfg    config.Config
	ins    instrument.Instrumentation
}

func New(client mail.Mail, cfg config.Config, ins instrument.Instrumentation) *Mailer {
	return &Mailer{client: client, cfg: cfg, ins: ins}
}

func (m *Mailer) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.ins.Tracer("verification.outbound.mailer").Start(ctx, name)
}

// Send emails the passcode to the identity. Transient SMTP failures are
// retried with exponential backoff before the failure is surfaced.
func (m *Mailer) Send(ctx context.Context, identity, code string, ttl time.Duration, metadata map[string]any) (err error) {
	ctx, span := m.startSpan(ctx, "Send")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	name := valueobject.JSONMap(metadata).GetString("name")
	if name == "" {
		name = identity
	}

	minutes := int(ttl.Minutes())
	msg := mail.Message{
		From:    m.cfg.GetString("mail.from"),
		To:      []string{identity},
		Subject: "Your verification code",
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nYour verification code is %s. It expires in %d minutes.\n\nIf you did not request this code, you can ignore this email.\n",
			name, code, minutes,
		),
		HTMLBody: fmt.Sprintf(
			"<p>Hi %s,</p><p>Your verification code is <strong>%s</strong>. It expires in %d minutes.</p><p>If you did not request this code, you can ignore this email.</p>",
			name, code, minutes,
		),
		Headers: m.cfg.GetMap("mail.headers"),
	}

	backoff := retry.WithMaxRetries(retryMax, retry.NewExponential(retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if sendErr := m.client.Send(ctx, msg); sendErr != nil {
			return retry.RetryableError(sendErr)
		}
		return nil
	})
	return err
}
