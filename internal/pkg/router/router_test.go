package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/passgate/passgate/internal/pkg/config"
	"github.com/passgate/passgate/internal/pkg/goerror"
	"github.com/passgate/passgate/internal/pkg/instrument"
	"github.com/passgate/passgate/internal/pkg/uid"
)

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config error: %v", err)
	}

	return NewRouter(Config{
		Config:     cfg,
		UUID:       uid.NewUUID(),
		Instrument: instrument.NewNoop(),
	})
}

func TestRouterSuccessEnvelope(t *testing.T) {
	r := newTestRouter(t, "app: {}")
	r.GET("/ping", func(*Request) (any, error) {
		return map[string]string{"pong": "ok"}, nil
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if body := rec.Body.String(); !strings.Contains(body, `"pong":"ok"`) {
		t.Errorf("body = %s", body)
	}
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter(t, "app: {}")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"status":"ok"`) {
		t.Errorf("body = %s", body)
	}
}

func TestRouterErrorEnvelope(t *testing.T) {
	r := newTestRouter(t, "app: {}")
	r.POST("/fail", func(*Request) (any, error) {
		return nil, goerror.NewBusinessData("Resend not allowed yet", goerror.CodeTooManyRequest, "remaining_seconds", "30")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/fail", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Resend not allowed yet") || !strings.Contains(body, `"remaining_seconds":"30"`) {
		t.Errorf("body = %s", body)
	}
}

func TestRouterCorrelationIDHeader(t *testing.T) {
	r := newTestRouter(t, "app: {}")
	r.GET("/ping", func(*Request) (any, error) { return map[string]string{}, nil })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderCorrelationID, "abc-123")
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderCorrelationID); got != "abc-123" {
		t.Errorf("correlation header = %q", got)
	}
}

func TestRouterMaintenanceBlocksRoute(t *testing.T) {
	r := newTestRouter(t, "app:\n  maintenance:\n    endpoints: /blocked\n")
	r.GET("/blocked", func(*Request) (any, error) { return map[string]string{}, nil })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blocked", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMiddlewareOperatorKey(t *testing.T) {
	r := newTestRouter(t, "app: {}")
	r.GET("/status", func(*Request) (any, error) {
		return map[string]string{"state": "pending"}, nil
	}, MiddlewareOperatorKey("sekrit"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without key: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set(HeaderOperatorKey, "wrong")
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set(HeaderOperatorKey, "sekrit")
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("correct key: status = %d, want 200", rec.Code)
	}
}

func TestMiddlewareOperatorKeyUnconfigured(t *testing.T) {
	r := newTestRouter(t, "app: {}")
	r.GET("/status", func(*Request) (any, error) {
		return map[string]string{}, nil
	}, MiddlewareOperatorKey(""))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set(HeaderOperatorKey, "anything")
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when no key configured", rec.Code)
	}
}
