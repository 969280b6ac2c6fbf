package entity

import (
	"time"

	"github.com/passgate/passgate/internal/pkg/valueobject"
)

// Challenge is the live passcode state for one identity.
//
// At most one challenge exists per identity at any instant; issuing a new
// code replaces the previous record wholesale.
type Challenge struct {
	ID          string
	Identity    string
	Code        string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Attempts    int
	MaxAttempts int
	Metadata    valueobject.JSONMap
}

// Expired reports whether the challenge is past its expiry at now.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Exhausted reports whether the attempt budget is used up.
func (c Challenge) Exhausted() bool {
	return c.Attempts >= c.MaxAttempts
}

// AttemptsLeft returns the remaining attempt budget, never negative.
func (c Challenge) AttemptsLeft() int {
	left := c.MaxAttempts - c.Attempts
	if left < 0 {
		return 0
	}
	return left
}

// ConsumeStatus is the outcome of an atomic code redemption against the store.
type ConsumeStatus int

const (
	// ConsumeMatched means the code matched and the challenge was deleted.
	ConsumeMatched ConsumeStatus = iota
	// ConsumeMismatch means the code did not match; an attempt was spent.
	ConsumeMismatch
	// ConsumeExpired means the challenge was past expiry and has been deleted.
	ConsumeExpired
	// ConsumeExhausted means the attempt budget is spent and the challenge has been deleted.
	ConsumeExhausted
)

// ConsumeResult carries the outcome of a redemption plus the state needed to
// answer the caller.
type ConsumeResult struct {
	Status ConsumeStatus
	// AttemptsLeft is the remaining budget after a mismatch.
	AttemptsLeft int
	// Challenge is the record as it was when consumed; on a match it carries
	// the metadata forwarded to the verified event.
	Challenge Challenge
}
