package event

const PasscodeIssuedDestination string = "passcode_issued"

type PasscodeIssuedMessage struct {
	EventID  uint64 `json:"event_id,string"`
	Identity string `json:"identity"`
	IssuedAt int64  `json:"issued_at"`
	Resend   bool   `json:"resend"`
}
