package tests

import (
	"net/http"
	"testing"
)

func TestVerificationIssue(t *testing.T) {

	// Arrange
	email := uniqueEmail("real-issue")
	payload := map[string]any{
		"identity": email,
		"metadata": map[string]any{"name": "Test User"},
	}

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/issue", payload, "")

	// Assert
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("issue failed: status=%d message=%q", status, errEnv.Message)
	}

	var data issueData
	decodeSuccess(t, body, &data)
	if data.Identity != email {
		t.Errorf("identity = %q, want %q", data.Identity, email)
	}
	if data.ExpiresInSeconds <= 0 {
		t.Errorf("expires_in_seconds = %d, want > 0", data.ExpiresInSeconds)
	}
}

func TestVerificationIssueInvalidIdentity(t *testing.T) {

	// Arrange
	payload := map[string]any{"identity": "not-an-email"}

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/issue", payload, "")

	// Assert
	if status != http.StatusUnprocessableEntity {
		errEnv := decodeError(t, body)
		t.Fatalf("status=%d message=%q, want 422", status, errEnv.Message)
	}
}

func TestVerificationIssueCooldown(t *testing.T) {

	// Arrange
	email := uniqueEmail("real-cooldown")
	issueCode(t, email)

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/issue", map[string]any{"identity": email}, "")

	// Assert
	if status != http.StatusTooManyRequests {
		errEnv := decodeError(t, body)
		t.Fatalf("status=%d message=%q, want 429", status, errEnv.Message)
	}
	errEnv := decodeError(t, body)
	if errEnv.Error["remaining_seconds"] == "" {
		t.Errorf("error = %v, want remaining_seconds", errEnv.Error)
	}
}

func TestVerificationResendCooldown(t *testing.T) {

	// Arrange
	email := uniqueEmail("real-resend")
	issueCode(t, email)

	payload := map[string]any{"identity": email, "name_hint": "Test User"}

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/resend", payload, "")

	// Assert
	if status != http.StatusTooManyRequests {
		errEnv := decodeError(t, body)
		t.Fatalf("status=%d message=%q, want 429", status, errEnv.Message)
	}
}
