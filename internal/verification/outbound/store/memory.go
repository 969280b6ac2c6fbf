package store

import (
	"context"
	"sync"
	"time"

	"github.com/passgate/passgate/internal/pkg/goerror"
	"github.com/passgate/passgate/internal/verification/entity"
)

// Memory keeps challenges in a mutex-guarded map. It backs tests and
// single-process deployments; state is lost on restart.
type Memory struct {
	mu   sync.Mutex
	rows map[string]entity.Challenge
}

func NewMemory() *Memory {
	return &Memory{rows: make(map[string]entity.Challenge)}
}

func (s *Memory) Get(_ context.Context, identity string) (*entity.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.rows[identity]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &ch, nil
}

func (s *Memory) Upsert(_ context.Context, ch entity.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[ch.Identity] = ch
	return nil
}

func (s *Memory) Delete(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rows, identity)
	return nil
}

func (s *Memory) Consume(_ context.Context, identity, code string, now time.Time) (*entity.ConsumeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.rows[identity]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	res, del := evaluateConsume(ch, code, now)
	if del {
		delete(s.rows, identity)
	} else {
		s.rows[identity] = res.Challenge
	}

	return res, nil
}

func (s *Memory) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for identity, ch := range s.rows {
		if ch.Expired(now) {
			delete(s.rows, identity)
			removed++
		}
	}

	return removed, nil
}
