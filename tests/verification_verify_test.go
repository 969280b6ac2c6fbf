package tests

import (
	"net/http"
	"testing"
)

func TestVerificationVerifyWrongCode(t *testing.T) {

	// Arrange
	email := uniqueEmail("real-verify-wrong")
	issueCode(t, email)

	payload := map[string]any{"identity": email, "code": "000000"}

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/verify", payload, "")

	// Assert
	if status != http.StatusUnauthorized {
		errEnv := decodeError(t, body)
		t.Fatalf("status=%d message=%q, want 401", status, errEnv.Message)
	}
	errEnv := decodeError(t, body)
	if errEnv.Error["attempts_left"] != "2" {
		t.Errorf("attempts_left = %q, want %q", errEnv.Error["attempts_left"], "2")
	}
}

func TestVerificationVerifyUnknownIdentity(t *testing.T) {

	// Arrange
	payload := map[string]any{
		"identity": uniqueEmail("real-verify-unknown"),
		"code":     "000000",
	}

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/verify", payload, "")

	// Assert
	if status != http.StatusNotFound {
		errEnv := decodeError(t, body)
		t.Fatalf("status=%d message=%q, want 404", status, errEnv.Message)
	}
}

func TestVerificationVerifyShortCode(t *testing.T) {

	// Arrange
	email := uniqueEmail("real-verify-short")
	issueCode(t, email)

	payload := map[string]any{"identity": email, "code": "12345"}

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/verify", payload, "")

	// Assert
	if status != http.StatusBadRequest {
		errEnv := decodeError(t, body)
		t.Fatalf("status=%d message=%q, want 400", status, errEnv.Message)
	}
}

func TestVerificationVerifyExhaustsAttempts(t *testing.T) {

	// Arrange
	email := uniqueEmail("real-verify-exhaust")
	issueCode(t, email)

	payload := map[string]any{"identity": email, "code": "000000"}

	// Act & Assert
	wants := []string{"2", "1", "0"}
	for _, want := range wants {
		status, body := doJSON(t, http.MethodPost, "/api/v1/verification/verify", payload, "")
		if status != http.StatusUnauthorized {
			errEnv := decodeError(t, body)
			t.Fatalf("status=%d message=%q, want 401", status, errEnv.Message)
		}
		errEnv := decodeError(t, body)
		if errEnv.Error["attempts_left"] != want {
			t.Fatalf("attempts_left = %q, want %q", errEnv.Error["attempts_left"], want)
		}
	}

	status, _ := doJSON(t, http.MethodPost, "/api/v1/verification/verify", payload, "")
	if status != http.StatusNotFound {
		t.Errorf("status after exhaustion = %d, want 404", status)
	}
}
