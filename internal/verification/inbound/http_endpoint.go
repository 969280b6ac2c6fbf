package inbound

import (
	"github.com/passgate/passgate/internal/pkg/router"
	"github.com/passgate/passgate/internal/verification/usecase"
)

// HTTPEndpoint exposes HTTP handlers for the passcode verification workflow.
type HTTPEndpoint struct {
	uc uc
}

// Issue creates a challenge for the identity and emails the passcode.
func (h *HTTPEndpoint) Issue(r *router.Request) (any, error) {
	var req IssueRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Issue(r.Context(), usecase.IssueInput{
		Identity: req.Identity,
		Metadata: req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return IssueResponse{
		Identity:         resp.Identity,
		ExpiresInSeconds: resp.ExpiresInSeconds,
		Delivered:        resp.Delivered,
	}, nil
}

// Resend issues a replacement passcode under the same cooldown as Issue.
func (h *HTTPEndpoint) Resend(r *router.Request) (any, error) {
	var req ResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Resend(r.Context(), usecase.ResendInput{
		Identity: req.Identity,
		NameHint: req.NameHint,
	})
	if err != nil {
		return nil, err
	}

	return IssueResponse{
		Identity:         resp.Identity,
		ExpiresInSeconds: resp.ExpiresInSeconds,
		Delivered:        resp.Delivered,
	}, nil
}

// Verify redeems a submitted passcode.
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Identity: req.Identity,
		Code:     req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{
		Identity:   resp.Identity,
		VerifiedAt: resp.VerifiedAt.Unix(),
		ProofToken: resp.ProofToken,
		Metadata:   resp.Metadata,
	}, nil
}

// Status returns the diagnostic view of the live challenge for an identity.
func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context(), usecase.StatusInput{
		Identity: r.GetQuery("identity"),
	})
	if err != nil {
		return nil, err
	}

	return StatusResponse{
		Identity:         resp.Identity,
		IssuedAt:         resp.IssuedAt.Unix(),
		ExpiresInSeconds: resp.ExpiresInSeconds,
		Attempts:         resp.Attempts,
		MaxAttempts:      resp.MaxAttempts,
		Metadata:         resp.Metadata,
	}, nil
}
