package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/passgate/passgate/internal/pkg/goerror"
)

type ResendInput struct {
	Identity string `validate:"required,email"`
	NameHint string `validate:"omitempty,max=100"`
}

// Resend issues a replacement code under the same cooldown rules as Issue.
//
// Metadata from the existing challenge is carried forward so the notification
// keeps its original context; when none exists the NameHint fills in. The new
// challenge always starts with a full attempt budget.
func (s *Usecase) Resend(ctx context.Context, in ResendInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Resend")
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

	metadata := map[string]any{}
	if in.NameHint != "" {
		metadata["name"] = in.NameHint
	}
	if cur != nil && len(cur.Metadata) > 0 {
		metadata = cur.Metadata
	}

	return s.issueChallenge(ctx, in.Identity, cur, metadata, true)
}
