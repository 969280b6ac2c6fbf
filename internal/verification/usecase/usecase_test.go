package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/passgate/passgate/internal/pkg/config"
	"github.com/passgate/passgate/internal/pkg/goroutine"
	"github.com/passgate/passgate/internal/pkg/instrument"
	"github.com/passgate/passgate/internal/pkg/jwt"
	"github.com/passgate/passgate/internal/pkg/passcode"
	"github.com/passgate/passgate/internal/pkg/uid"
	"github.com/passgate/passgate/internal/pkg/validator"
	"github.com/passgate/passgate/internal/shared/event"
	"github.com/passgate/passgate/internal/verification/outbound/store"
)

// fakeClock is a manually advanced clock so cooldown and expiry can be
// exercised without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeSink records sends and can be told to fail.
type fakeSink struct {
	mu    sync.Mutex
	sent  []string
	codes []string
	fail  bool
}

func (s *fakeSink) Send(_ context.Context, identity, code string, _ time.Duration, _ map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return context.DeadlineExceeded
	}
	s.sent = append(s.sent, identity)
	s.codes = append(s.codes, code)
	return nil
}

func (s *fakeSink) lastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return ""
	}
	return s.codes[len(s.codes)-1]
}

func (s *fakeSink) sendCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeBridge struct {
	mu       sync.Mutex
	verified []string
}

func (b *fakeBridge) OnVerified(_ context.Context, identity string, _ time.Time, _ map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.verified = append(b.verified, identity)
	return nil
}

func (b *fakeBridge) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.verified)
}

type fakeMessaging struct {
	mu       sync.Mutex
	issued   []event.PasscodeIssuedMessage
	verified []event.IdentityVerifiedMessage
}

func (m *fakeMessaging) PublishPasscodeIssued(_ context.Context, msg event.PasscodeIssuedMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued = append(m.issued, msg)
	return nil
}

func (m *fakeMessaging) PublishIdentityVerified(_ context.Context, msg event.IdentityVerifiedMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verified = append(m.verified, msg)
	return nil
}

type fakeNumberID struct{ n uint64 }

func (f *fakeNumberID) Generate() uint64 {
	f.n++
	return f.n
}

type fakeStringID struct{}

func (fakeStringID) Generate() string { return "challenge-id" }

type fixture struct {
	uc     *Usecase
	clock  *fakeClock
	sink   *fakeSink
	bridge *fakeBridge
	msg    *fakeMessaging
	store  store.Store
	gr     *goroutine.Manager
}

func newFixture(t *testing.T, yaml string) *fixture {
	t.Helper()

	if yaml == "" {
		yaml = "modules: {}"
	}
	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	clk := newFakeClock()
	sink := &fakeSink{}
	brd := &fakeBridge{}
	msg := &fakeMessaging{}
	st := store.NewMemory()
	gr := goroutine.NewManager(10)

	signer, err := jwt.NewHS512(jwt.Config{
		Secret: []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"),
		Issuer: "passgate-test",
		TTL:    time.Hour,
		Clock:  clk,
		UUID:   uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	uc := New(Dependency{
		RepoStore:     st,
		RepoMessaging: msg,
		Sink:          sink,
		Bridge:        brd,
		Validator:     v10,
		Config:        cfg,
		Passcode:      passcode.NewNumeric(),
		UID:           &fakeNumberID{},
		OID:           fakeStringID{},
		Clock:         clk,
		JWT:           signer,
		Instrument:    instrument.NewNoop(),
		Goroutine:     gr,
	})

	return &fixture{uc: uc, clock: clk, sink: sink, bridge: brd, msg: msg, store: st, gr: gr}
}

func (f *fixture) issuedCode(t *testing.T, identity string) string {
	t.Helper()

	ch, err := f.store.Get(context.Background(), identity)
	if err != nil {
		t.Fatalf("get issued challenge: %v", err)
	}
	return ch.Code
}

// wrongCode returns a well-formed code guaranteed not to match the live one.
func wrongCode(t *testing.T, f *fixture, identity string) string {
	t.Helper()

	code := f.issuedCode(t, identity)
	if code[0] == '0' {
		return "1" + code[1:]
	}
	return "0" + code[1:]
}
