// Package scheduler provides keyed, debounced background job scheduling.
// Scheduling the same key again before its delay elapses replaces the
// pending job and restarts the timer, collapsing bursts of triggers into a
// single run.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// JobScheduler schedules a named job to run after a delay.
type JobScheduler interface {
	Schedule(key string, delay time.Duration, job func(ctx context.Context))
}

// Scheduler implements JobScheduler with one timer per key.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
}

// New creates a ready Scheduler. Jobs receive a context cancelled by
// Shutdown.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		pending: make(map[string]*time.Timer),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Schedule queues job to run after delay. A pending job with the same key is
// dropped and its timer restarted. A zero delay still goes through the timer
// so the caller never blocks.
func (s *Scheduler) Schedule(key string, delay time.Duration, job func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		log.Warn().Str("job", key).Msg("scheduler closed, dropping job")
		return
	}

	if timer, ok := s.pending[key]; ok {
		if timer.Stop() {
			s.wg.Done()
		}
		log.Debug().Str("job", key).Dur("delay", delay).Msg("debounced pending job")
	}

	s.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		defer s.wg.Done()

		// The mutex also orders this callback after Schedule finishes
		// publishing the timer, even for a zero delay.
		s.mu.Lock()
		if s.pending[key] == timer {
			delete(s.pending, key)
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}

		defer func() {
			if p := recover(); p != nil {
				log.Error().Str("job", key).Interface("panic", p).Msg("scheduled job panicked")
			}
		}()
		job(s.ctx)
	})
	s.pending[key] = timer
}

// Shutdown stops accepting jobs, cancels pending timers and waits for
// running jobs until ctx expires.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for key, timer := range s.pending {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.pending, key)
	}
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
