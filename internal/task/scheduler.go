// Package task runs actor actions and named background tasks, each on its
// own goroutine with cancellation.
package task

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Func is the body of an action or task. It must return promptly once ctx
// is cancelled; phases that may not be abandoned run under
// context.WithoutCancel.
type Func func(ctx context.Context)

type job struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler enforces at most one running action per actor and at most one
// running task per name. Launching a replacement cancels the incumbent
// and waits for it to finish before the new body runs.
type Scheduler struct {
	log *zap.Logger

	mu      sync.Mutex
	actions map[int32]*job
	tasks   map[string]*job
	closed  bool
	wg      sync.WaitGroup
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		log:     log.Named("task"),
		actions: make(map[int32]*job),
		tasks:   make(map[string]*job),
	}
}

// LaunchAction starts fn as the actor's current action, cancelling and
// joining any action already running for that actor.
func (s *Scheduler) LaunchAction(actorID int32, name string, fn Func) {
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{name: name, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return
	}
	prev := s.actions[actorID]
	s.actions[actorID] = j
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer close(j.done)
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("action panic",
					zap.Int32("actor_id", actorID),
					zap.String("action", name),
					zap.Any("panic", r),
					zap.Stack("stack"))
			}
			s.mu.Lock()
			if s.actions[actorID] == j {
				delete(s.actions, actorID)
			}
			s.mu.Unlock()
		}()

		// Hand-off: the replacement owns the slot but does not run its
		// body until the incumbent has fully unwound.
		if prev != nil {
			prev.cancel()
			<-prev.done
		}
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
	}()
}

// CancelAction interrupts the actor's action without waiting.
func (s *Scheduler) CancelAction(actorID int32) {
	s.mu.Lock()
	j := s.actions[actorID]
	s.mu.Unlock()
	if j != nil {
		j.cancel()
	}
}

// CancelAndJoinAction interrupts the actor's action and waits for it to
// unwind.
func (s *Scheduler) CancelAndJoinAction(actorID int32) {
	s.mu.Lock()
	j := s.actions[actorID]
	s.mu.Unlock()
	if j != nil {
		j.cancel()
		<-j.done
	}
}

// HasAction reports whether the actor has a live action.
func (s *Scheduler) HasAction(actorID int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.actions[actorID]
	return ok
}

// LaunchTask starts fn as the named singleton task, replacing any task
// already running under that name.
func (s *Scheduler) LaunchTask(name string, fn Func) {
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{name: name, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return
	}
	prev := s.tasks[name]
	s.tasks[name] = j
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer close(j.done)
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("task panic",
					zap.String("task", name),
					zap.Any("panic", r),
					zap.Stack("stack"))
			}
			s.mu.Lock()
			if s.tasks[name] == j {
				delete(s.tasks, name)
			}
			s.mu.Unlock()
		}()

		if prev != nil {
			prev.cancel()
			<-prev.done
		}
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
	}()
}

// CancelTask interrupts the named task without waiting.
func (s *Scheduler) CancelTask(name string) {
	s.mu.Lock()
	j := s.tasks[name]
	s.mu.Unlock()
	if j != nil {
		j.cancel()
	}
}

// ErrShutdownTimeout is returned when jobs outlive the shutdown deadline.
var ErrShutdownTimeout = errors.New("scheduler shutdown timed out")

// Shutdown cancels every action and task, refuses new launches and waits
// for all goroutines up to the deadline on ctx.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for _, j := range s.actions {
		j.cancel()
	}
	for _, j := range s.tasks {
		j.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrShutdownTimeout
	}
}
