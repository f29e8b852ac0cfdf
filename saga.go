package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ForwardFunc performs a step's unit of work. It receives the state
// produced by the previous step and returns the state to feed the next
// one. A returned error halts the forward pass and triggers compensation.
type ForwardFunc[T any] func(ctx context.Context, state T) (T, error)

// CompensateFunc semantically undoes a step's forward work. Its return
// value is threaded into the next compensate call, mirroring forward-pass
// state threading. Whether it is a valid inverse of the forward function
// is a caller contract the orchestrator cannot verify.
type CompensateFunc[T any] func(ctx context.Context, state T) (T, error)

// Step is a named pair of forward/compensate operations over the same
// state type. The name is purely descriptive; it is never used for lookup
// or control flow and need not be unique within a saga.
type Step[T any] struct {
	Name       string
	Forward    ForwardFunc[T]
	Compensate CompensateFunc[T]
}

// NewStep packages a forward/compensate pair into a Step.
func NewStep[T any](name string, forward ForwardFunc[T], compensate CompensateFunc[T]) Step[T] {
	return Step[T]{Name: name, Forward: forward, Compensate: compensate}
}

// NoOpCompensate is a compensate function that leaves the state untouched.
func NoOpCompensate[T any](_ context.Context, state T) (T, error) {
	return state, nil
}

// NewStepWithNoOpCompensate packages a forward function whose effects need
// no undoing.
func NewStepWithNoOpCompensate[T any](name string, forward ForwardFunc[T]) Step[T] {
	return NewStep(name, forward, NoOpCompensate[T])
}

// ErrNothingToRollback is returned by Rollback on a saga with no steps.
var ErrNothingToRollback = errors.New("saga has no steps to roll back")

// Saga owns an ordered, append-only sequence of steps and drives the
// forward and compensation passes over them. Build it once with Add, then
// invoke Execute any number of times; the step list is immutable between
// invocations and every run carries its own state, so concurrent Execute
// calls on one saga are safe.
type Saga[T any] struct {
	name      string
	steps     []Step[T]
	plan      *plan
	listeners []Listener
	logger    *zap.Logger
	store     Store[T]
}

// New creates an empty saga for the given state type.
func New[T any](name string, opts ...Option[T]) *Saga[T] {
	s := &Saga[T]{
		name: name,
		plan: newPlan(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends a step to the end of the sequence and returns the same saga
// so calls chain. Steps are never validated, deduplicated, or reordered;
// registration order is execution order.
func (s *Saga[T]) Add(step Step[T]) *Saga[T] {
	s.steps = append(s.steps, step)
	s.plan.append()
	return s
}

// Name returns the saga's name.
func (s *Saga[T]) Name() string {
	return s.name
}

// Len returns the number of registered steps.
func (s *Saga[T]) Len() int {
	return len(s.steps)
}

// Execute threads initial through every step's forward function in
// registration order. On the first forward failure it compensates the
// steps that already completed, in reverse order, and returns the forward
// error exactly as the step raised it. Compensate failures never abort
// the unwind and never replace the returned error; they are visible only
// through listeners, the logger, and the archived report.
//
// Cancellation is not part of the contract: ctx is handed to every step
// but the orchestrator itself runs every remaining forward or compensate
// call to completion before returning.
func (s *Saga[T]) Execute(ctx context.Context, initial T) error {
	run := newRunLog(s.name, uuid.NewString())
	state := initial

	for _, id := range s.plan.order() {
		i := int(id)
		step := s.steps[i]
		s.emit(run, Event{Type: EventStepStarted, Step: step.Name, Index: i})

		next, err := step.Forward(ctx, state)
		if err != nil {
			s.emit(run, Event{Type: EventStepFailed, Step: step.Name, Index: i, Err: err})
			state = s.compensate(ctx, run, i-1, state)
			s.archive(ctx, run, RunStatusFailed, state, err)
			return err
		}

		state = next
		s.emit(run, Event{Type: EventStepSucceeded, Step: step.Name, Index: i})
	}

	s.archive(ctx, run, RunStatusCompleted, state, nil)
	return nil
}

// Rollback undoes a previously completed run by compensating every step
// in reverse order, threading state exactly like a failure-triggered
// compensation pass. The caller supplies the state the completed run
// produced. Unlike Execute, compensate failures are reported: the final
// compensated state is returned together with a *CompensationError
// aggregating whatever went wrong, since the unwind itself is what the
// caller asked for.
func (s *Saga[T]) Rollback(ctx context.Context, state T) (T, error) {
	if len(s.steps) == 0 {
		return state, ErrNothingToRollback
	}

	run := newRunLog(s.name, uuid.NewString())
	run.seedCompleted(len(s.steps))

	state = s.compensate(ctx, run, len(s.steps)-1, state)

	status := RunStatusRolledBack
	var cause error
	if cerr := run.compensationError(); cerr != nil {
		status = RunStatusFailed
		cause = cerr
	}
	s.archive(ctx, run, status, state, cause)
	return state, cause
}

// compensate walks backward from index from down to 0, invoking each
// step's compensate function. A failing compensate does not update the
// state and does not stop the walk; the unwind is best-effort.
func (s *Saga[T]) compensate(ctx context.Context, run *runLog, from int, state T) T {
	for j := from; j >= 0; j-- {
		step := s.steps[j]
		s.emit(run, Event{Type: EventCompensateStarted, Step: step.Name, Index: j})

		if step.Compensate == nil {
			s.emit(run, Event{Type: EventCompensateSucceeded, Step: step.Name, Index: j})
			continue
		}

		next, err := step.Compensate(ctx, state)
		if err != nil {
			s.emit(run, Event{Type: EventCompensateFailed, Step: step.Name, Index: j, Err: err})
			continue
		}

		state = next
		s.emit(run, Event{Type: EventCompensateSucceeded, Step: step.Name, Index: j})
	}
	return state
}

// emit stamps the event, records it on the run log, and fans it out to
// listeners and the logger.
func (s *Saga[T]) emit(run *runLog, ev Event) {
	ev.Saga = s.name
	ev.RunID = run.runID
	ev.Time = time.Now()

	if err := run.record(ev); err != nil {
		// The orchestrator only ever produces legal transitions.
		panic(fmt.Sprintf("saga: %v; this is a bug in the framework", err))
	}

	for _, l := range s.listeners {
		l.OnEvent(ev)
	}
	if s.logger != nil {
		s.logEvent(ev)
	}
}

func (s *Saga[T]) logEvent(ev Event) {
	fields := []zap.Field{
		zap.String("saga", ev.Saga),
		zap.String("run_id", ev.RunID),
		zap.String("step", ev.Step),
		zap.Int("index", ev.Index),
	}
	switch ev.Type {
	case EventStepFailed:
		s.logger.Error("step failed", append(fields, zap.Error(ev.Err))...)
	case EventCompensateFailed:
		s.logger.Warn("compensate failed", append(fields, zap.Error(ev.Err))...)
	default:
		s.logger.Debug(ev.Type.String(), fields...)
	}
}

// archive saves a terminal run report if a store is configured. Archival
// failures are logged and otherwise ignored; they must not disturb the
// saga's own result.
func (s *Saga[T]) archive(ctx context.Context, run *runLog, status string, state T, cause error) {
	if s.store == nil {
		return
	}
	report := newReport(run, status, state, cause)
	if err := s.store.Save(ctx, run.runID, report); err != nil && s.logger != nil {
		s.logger.Warn("failed to archive run report",
			zap.String("saga", s.name),
			zap.String("run_id", run.runID),
			zap.Error(err))
	}
}
