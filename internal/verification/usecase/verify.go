package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/passgate/passgate/internal/pkg/goerror"
	"github.com/passgate/passgate/internal/shared/event"
	"github.com/passgate/passgate/internal/verification/entity"
)

type VerifyInput struct {
	Identity string `validate:"required,email"`
	Code     string `validate:"required"`
}

type VerifyOutput struct {
	Identity   string
	VerifiedAt time.Time
	ProofToken string
	Metadata   map[string]any
}

// validCodeFormat reports whether the code is exactly length digits. Any
// other shape is a format error, never a spent attempt.
func validCodeFormat(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// Verify redeems a submitted code. The store consumes the challenge
// atomically, so two concurrent calls for one identity can never both succeed
// or spend the same attempt slot twice.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.Identity = normalizeIdentity(in.Identity)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if !validCodeFormat(in.Code, s.codeLength()) {
		return nil, goerror.NewInvalidFormat(fmt.Sprintf("Verification code must be exactly %d digits", s.codeLength()))
	}

	now := s.clock.Now()

	res, err := s.repoStore.Consume(ctx, in.Identity, in.Code, now)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no active challenge for identity", "identity", in.Identity)
		return nil, goerror.NewBusiness("No active verification code, request a new one", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume challenge", "identity", in.Identity, "error", err)
		return nil, goerror.NewServer(err)
	}

	switch res.Status {
	case entity.ConsumeExpired:
		slog.WarnContext(ctx, "challenge expired", "identity", in.Identity)
		return nil, goerror.NewBusiness("Verification code has expired, request a new one", goerror.CodeGone)

	case entity.ConsumeExhausted:
		slog.WarnContext(ctx, "challenge attempt budget exhausted", "identity", in.Identity)
		return nil, goerror.NewBusiness("Too many incorrect attempts, request a new code", goerror.CodeLocked)

	case entity.ConsumeMismatch:
		slog.WarnContext(ctx, "incorrect verification code", "identity", in.Identity, "attempts_left", res.AttemptsLeft)
		return nil, goerror.NewBusinessData("Incorrect verification code", goerror.CodeUnauthorized,
			"attempts_left", strconv.Itoa(res.AttemptsLeft))

	case entity.ConsumeMatched:
		return s.completeVerification(ctx, in.Identity, now, res.Challenge.Metadata)

	default:
		slog.ErrorContext(ctx, "unexpected consume status", "identity", in.Identity, "status", res.Status)
		return nil, goerror.NewServer(fmt.Errorf("unexpected consume status %d", res.Status))
	}
}

// completeVerification runs after the challenge has been consumed. The
// verification itself is already committed, so collaborator failures past
// this point are logged and never surfaced as a failed verify.
func (s *Usecase) completeVerification(ctx context.Context, identity string, verifiedAt time.Time, metadata map[string]any) (*VerifyOutput, error) {
	if err := s.bridge.OnVerified(ctx, identity, verifiedAt, metadata); err != nil {
		slog.ErrorContext(ctx, "failed to mark account verified", "identity", identity, "error", err)
	}

	s.publishIdentityVerified(ctx, identity, verifiedAt, metadata)

	token, err := s.jwt.Generate(identity, verifiedAt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate proof token", "identity", identity, "error", err)
		token = ""
	}

	return &VerifyOutput{
		Identity:   identity,
		VerifiedAt: verifiedAt,
		ProofToken: token,
		Metadata:   metadata,
	}, nil
}

func (s *Usecase) publishIdentityVerified(ctx context.Context, identity string, verifiedAt time.Time, metadata map[string]any) {
	msg := event.IdentityVerifiedMessage{
		EventID:    s.uid.Generate(),
		Identity:   identity,
		VerifiedAt: verifiedAt.Unix(),
		Metadata:   metadata,
	}

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		if err := s.repoMessaging.PublishIdentityVerified(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish identity verified event", "identity", identity, "error", err)
		}
		return nil
	})
}
