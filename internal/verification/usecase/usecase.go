package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/passgate/passgate/internal/pkg/clock"
	"github.com/passgate/passgate/internal/pkg/config"
	"github.com/passgate/passgate/internal/pkg/goroutine"
	"github.com/passgate/passgate/internal/pkg/instrument"
	"github.com/passgate/passgate/internal/pkg/jwt"
	"github.com/passgate/passgate/internal/pkg/passcode"
	"github.com/passgate/passgate/internal/pkg/uid"
	"github.com/passgate/passgate/internal/pkg/validator"
	"github.com/passgate/passgate/internal/shared/event"
	"github.com/passgate/passgate/internal/verification/entity"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

const (
	defaultCodeLength     = 6
	defaultTTL            = 10 * time.Minute
	defaultMaxAttempts    = 3
	defaultResendCooldown = 60 * time.Second
	defaultSweepInterval  = 60 * time.Second
)

type repoStore interface {
	Get(ctx context.Context, identity string) (*entity.Challenge, error)
	Upsert(ctx context.Context, ch entity.Challenge) error
	Delete(ctx context.Context, identity string) error
	Consume(ctx context.Context, identity, code string, now time.Time) (*entity.ConsumeResult, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

type repoMessaging interface {
	PublishPasscodeIssued(ctx context.Context, msg event.PasscodeIssuedMessage) error
	PublishIdentityVerified(ctx context.Context, msg event.IdentityVerifiedMessage) error
}

type notificationSink interface {
	Send(ctx context.Context, identity, code string, ttl time.Duration, metadata map[string]any) error
}

type verificationBridge interface {
	OnVerified(ctx context.Context, identity string, verifiedAt time.Time, metadata map[string]any) error
}

type Usecase struct {
	repoStore     repoStore
	repoMessaging repoMessaging
	sink          notificationSink
	bridge        verificationBridge
	validator     validator.Validator
	cfg           config.Config
	passcode      passcode.Generator
	uid           uid.NumberID
	oid           uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	sweepStarted  atomic.Bool
	sweepStopOnce sync.Once
	sweepStop     chan struct{}
	sweepDone     chan struct{}
	sweepRuns     atomic.Int64
	sweptTotal    atomic.Int64
}

type Dependency struct {
	RepoStore     repoStore
	RepoMessaging repoMessaging
	Sink          notificationSink
	Bridge        verificationBridge
	Validator     validator.Validator
	Config        config.Config
	Passcode      passcode.Generator
	UID           uid.NumberID
	OID           uid.StringID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoStore:     dep.RepoStore,
		repoMessaging: dep.RepoMessaging,
		sink:          dep.Sink,
		bridge:        dep.Bridge,
		validator:     dep.Validator,
		cfg:           dep.Config,
		passcode:      dep.Passcode,
		uid:           dep.UID,
		oid:           dep.OID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		sweepStop:     make(chan struct{}),
		sweepDone:     make(chan struct{}),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.usecase").Start(ctx, name)
}

// normalizeIdentity lowercases and trims the identity so every operation and
// every store key agrees on a single canonical form.
func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

func (s *Usecase) codeLength() int {
	if n := s.cfg.GetInt("modules.verification.code_length"); n > 0 {
		return n
	}
	return defaultCodeLength
}

func (s *Usecase) codeTTL() time.Duration {
	if d := s.cfg.GetMinute("modules.verification.ttl_minutes"); d > 0 {
		return d
	}
	return defaultTTL
}

func (s *Usecase) maxAttempts() int {
	if n := s.cfg.GetInt("modules.verification.max_attempts"); n > 0 {
		return n
	}
	return defaultMaxAttempts
}

func (s *Usecase) resendCooldown() time.Duration {
	if d := s.cfg.GetSecond("modules.verification.cooldown_seconds"); d > 0 {
		return d
	}
	return defaultResendCooldown
}

func (s *Usecase) sweepInterval() time.Duration {
	if d := s.cfg.GetSecond("modules.verification.sweep_interval_seconds"); d > 0 {
		return d
	}
	return defaultSweepInterval
}

// cooldownRemaining returns how long the identity must still wait before a new
// code may be issued, rounded up to whole seconds. Zero means no wait.
func (s *Usecase) cooldownRemaining(ch *entity.Challenge, now time.Time) int64 {
	if ch == nil {
		return 0
	}

	remaining := s.resendCooldown() - now.Sub(ch.IssuedAt)
	if remaining <= 0 {
		return 0
	}
	return int64((remaining + time.Second - 1) / time.Second)
}
