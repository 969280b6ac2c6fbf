package goerror

import (
	"errors"
	"net/http"
	"testing"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeInvalidFormat, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusUnprocessableEntity},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeTimeout, http.StatusRequestTimeout},
		{CodeTooManyRequest, http.StatusTooManyRequests},
		{CodeConflict, http.StatusConflict},
		{CodeGone, http.StatusGone},
		{CodeLocked, http.StatusLocked},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, c := range cases {
		e := &Error{code: c.code}
		if got := e.StatusCode(); got != c.want {
			t.Errorf("StatusCode(%s) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestNewBusinessData(t *testing.T) {
	err := NewBusinessData("Resend not allowed yet", CodeTooManyRequest, "remaining_seconds", "42")

	var ge *Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *Error, got %T", err)
	}

	if ge.Code() != CodeTooManyRequest {
		t.Errorf("Code() = %v, want CodeTooManyRequest", ge.Code())
	}

	if ge.Msg() != "Resend not allowed yet" {
		t.Errorf("Msg() = %q", ge.Msg())
	}

	if got := ge.Fields()["remaining_seconds"]; got != "42" {
		t.Errorf("Fields()[remaining_seconds] = %q, want 42", got)
	}
}

func TestNewBusinessDataOddPairs(t *testing.T) {
	err := NewBusinessData("Challenge locked", CodeLocked, "dangling")

	var ge *Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *Error, got %T", err)
	}

	if ge.Fields() != nil {
		t.Errorf("Fields() = %v, want nil for odd pair count", ge.Fields())
	}
}

func TestNewServerWraps(t *testing.T) {
	base := errors.New("connection refused")
	err := NewServer(base)

	if !errors.Is(err, base) {
		t.Error("expected wrapped error to match with errors.Is")
	}

	var ge *Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *Error, got %T", err)
	}

	if ge.Type() != TypeServer {
		t.Errorf("Type() = %v, want TypeServer", ge.Type())
	}
}
