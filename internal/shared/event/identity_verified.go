package event

const IdentityVerifiedDestination string = "identity_verified"

type IdentityVerifiedMessage struct {
	EventID    uint64         `json:"event_id,string"`
	Identity   string         `json:"identity"`
	VerifiedAt int64          `json:"verified_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
