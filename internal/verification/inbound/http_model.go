package inbound

type IssueRequest struct {
	Identity string         `json:"identity"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type ResendRequest struct {
	Identity string `json:"identity"`
	NameHint string `json:"name_hint,omitempty"`
}

type IssueResponse struct {
	Identity         string `json:"identity"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
	Delivered        bool   `json:"delivered"`
}

func (r IssueResponse) Message() string {
	if !r.Delivered {
		return "Verification code issued but delivery failed. Use resend to retry."
	}
	return "Verification code sent. Please check your email."
}

type VerifyRequest struct {
	Identity string `json:"identity"`
	Code     string `json:"code"`
}

type VerifyResponse struct {
	Identity   string         `json:"identity"`
	VerifiedAt int64          `json:"verified_at"`
	ProofToken string         `json:"proof_token,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func (VerifyResponse) Message() string {
	return "Email verified successfully."
}

type StatusResponse struct {
	Identity         string         `json:"identity"`
	IssuedAt         int64          `json:"issued_at"`
	ExpiresInSeconds int64          `json:"expires_in_seconds"`
	Attempts         int            `json:"attempts"`
	MaxAttempts      int            `json:"max_attempts"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}
