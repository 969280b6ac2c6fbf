package inbound

import (
	"context"

	"github.com/passgate/passgate/internal/pkg/router"
	"github.com/passgate/passgate/internal/verification/usecase"
)

type uc interface {
	Issue(ctx context.Context, in usecase.IssueInput) (*usecase.IssueOutput, error)
	Resend(ctx context.Context, in usecase.ResendInput) (*usecase.IssueOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
	Status(ctx context.Context, in usecase.StatusInput) (*usecase.StatusOutput, error)
}

// RegisterHTTPEndpoint wires the verification routes. The status route is an
// operator diagnostic and stays behind the operator credential; when no key
// is configured it is effectively removed from the surface.
func RegisterHTTPEndpoint(r *router.Router, uc uc, operatorKey string) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/verification/issue", end.Issue)
	r.POST("/api/v1/verification/resend", end.Resend)
	r.POST("/api/v1/verification/verify", end.Verify)

	r.GET("/api/v1/verification/status", end.Status, router.MiddlewareOperatorKey(operatorKey))
}
