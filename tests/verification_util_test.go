package tests

import (
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

type issueData struct {
	Identity         string `json:"identity"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
	Delivered        bool   `json:"delivered"`
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

func operatorKey(t *testing.T) string {
	t.Helper()

	key := os.Getenv("PASSGATE_OPERATOR_KEY")
	if key == "" {
		t.Skip("PASSGATE_OPERATOR_KEY is not set")
	}

	return key
}

func issueCode(t *testing.T, email string) issueData {
	t.Helper()

	payload := map[string]any{"identity": email}

	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/issue", payload, "")
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("issue failed: status=%d message=%q", status, errEnv.Message)
	}

	var data issueData
	decodeSuccess(t, body, &data)

	return data
}
