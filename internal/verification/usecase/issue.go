package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/passgate/passgate/internal/pkg/goerror"
	"github.com/passgate/passgate/internal/shared/event"
	"github.com/passgate/passgate/internal/verification/entity"
)

type IssueInput struct {
	Identity string `validate:"required,email"`
	Metadata map[string]any
}

type IssueOutput struct {
	Identity         string
	ExpiresInSeconds int64
	Delivered        bool
}

// Issue creates a fresh challenge for the identity and sends the code.
//
// A delivery failure does not roll the challenge back; the output reports
// Delivered=false so the caller can retry the send step without burning a
// new code.
func (s *Usecase) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()

	in.Identity = normalizeIdentity(in.Identity)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cur, err := s.repoStore.Get(ctx, in.Identity)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get challenge", "identity", in.Identity, "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.issueChallenge(ctx, in.Identity, cur, in.Metadata, false)
}

func (s *Usecase) issueChallenge(ctx context.Context, identity string, cur *entity.Challenge, metadata map[string]any, resend bool) (*IssueOutput, error) {
	now := s.clock.Now()

	if remaining := s.cooldownRemaining(cur, now); remaining > 0 {
		slog.WarnContext(ctx, "resend cooldown active", "identity", identity, "remaining_seconds", remaining)
		return nil, goerror.NewBusinessData("Please wait before requesting another code",
			goerror.CodeTooManyRequest, "remaining_seconds", strconv.FormatInt(remaining, 10))
	}

	code, err := s.passcode.Generate(s.codeLength())
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate passcode", "identity", identity, "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.codeTTL()
	ch := entity.Challenge{
		ID:          s.oid.Generate(),
		Identity:    identity,
		Code:        code,
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
		Attempts:    0,
		MaxAttempts: s.maxAttempts(),
		Metadata:    metadata,
	}

	if err := s.repoStore.Upsert(ctx, ch); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert challenge", "identity", identity, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishPasscodeIssued(ctx, identity, now, resend)

	delivered := true
	if err := s.sink.Send(ctx, identity, code, ttl, metadata); err != nil {
		slog.ErrorContext(ctx, "failed to send passcode notification", "identity", identity, "error", err)
		delivered = false
	}

	return &IssueOutput{
		Identity:         identity,
		ExpiresInSeconds: int64(ttl.Seconds()),
		Delivered:        delivered,
	}, nil
}

func (s *Usecase) publishPasscodeIssued(ctx context.Context, identity string, issuedAt time.Time, resend bool) {
	msg := event.PasscodeIssuedMessage{
		EventID:  s.uid.Generate(),
		Identity: identity,
		IssuedAt: issuedAt.Unix(),
		Resend:   resend,
	}

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		if err := s.repoMessaging.PublishPasscodeIssued(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish passcode issued event", "identity", identity, "error", err)
		}
		return nil
	})
}
