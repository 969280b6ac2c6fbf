package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/passgate/passgate/internal/pkg/goerror"
)

type StatusInput struct {
	Identity string `validate:"required,email"`
}

type StatusOutput struct {
	Identity         string
	IssuedAt         time.Time
	ExpiresInSeconds int64
	Attempts         int
	MaxAttempts      int
	Metadata         map[string]any
}

// Status is a read-only diagnostic view of the live challenge. The inbound
// layer gates it behind the operator credential; it never reveals the code.
func (s *Usecase) Status(ctx context.Context, in StatusInput) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	in.Identity = normalizeIdentity(in.Identity)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ch, err := s.repoStore.Get(ctx, in.Identity)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("No active verification code", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get challenge", "identity", in.Identity, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	if ch.Expired(now) {
		if err := s.repoStore.Delete(ctx, in.Identity); err != nil {
			slog.ErrorContext(ctx, "failed to repo delete expired challenge", "identity", in.Identity, "error", err)
		}
		return nil, goerror.NewBusiness("No active verification code", goerror.CodeNotFound)
	}

	return &StatusOutput{
		Identity:         ch.Identity,
		IssuedAt:         ch.IssuedAt,
		ExpiresInSeconds: int64(ch.ExpiresAt.Sub(now).Seconds()),
		Attempts:         ch.Attempts,
		MaxAttempts:      ch.MaxAttempts,
		Metadata:         ch.Metadata,
	}, nil
}
