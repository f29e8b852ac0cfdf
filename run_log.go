package saga

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/btree"
)

// EventType defines the transitions a step can go through during a run.
type EventType int

const (
	EventStepStarted EventType = iota
	EventStepSucceeded
	EventStepFailed
	EventCompensateStarted
	EventCompensateSucceeded
	EventCompensateFailed
)

// String returns the string representation of the EventType.
func (t EventType) String() string {
	switch t {
	case EventStepStarted:
		return "step_started"
	case EventStepSucceeded:
		return "step_succeeded"
	case EventStepFailed:
		return "step_failed"
	case EventCompensateStarted:
		return "compensate_started"
	case EventCompensateSucceeded:
		return "compensate_succeeded"
	case EventCompensateFailed:
		return "compensate_failed"
	default:
		return fmt.Sprintf("unknown EventType: %d", int(t))
	}
}

// Event is a single entry in a run's event log. Err is set only for
// step_failed and compensate_failed events.
type Event struct {
	Saga  string
	RunID string
	Type  EventType
	Step  string
	Index int
	Err   error
	Time  time.Time
}

// String implements the fmt.Stringer interface for Event.
func (e Event) String() string {
	return fmt.Sprintf("S%03d %s", e.Index, e.Type)
}

// runLog is the write log for a single run. It records every event,
// validates that transitions are legal, and keeps an ordered per-step
// status index.
type runLog struct {
	mu        sync.Mutex
	saga      string
	runID     string
	startedAt time.Time
	unwinding bool
	events    []Event
	status    *btree.Map[int, StepStatus]
}

func newRunLog(saga, runID string) *runLog {
	return &runLog{
		saga:      saga,
		runID:     runID,
		startedAt: time.Now(),
		status:    btree.NewMap[int, StepStatus](8),
	}
}

// seedCompleted marks the first n steps as already completed, for unwinds
// of a run that finished its forward pass elsewhere.
func (l *runLog) seedCompleted(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := 0; i < n; i++ {
		l.status.Set(i, StepCompleted)
	}
}

// record adds an event to the log after validating the step's transition.
func (l *runLog) record(ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.status.Get(ev.Index)
	if !ok {
		current = StepPending
	}
	next, err := current.next(ev.Type)
	if err != nil {
		return err
	}

	switch ev.Type {
	case EventStepFailed, EventCompensateStarted:
		l.unwinding = true
	}

	l.status.Set(ev.Index, next)
	l.events = append(l.events, ev)
	return nil
}

// Unwinding reports whether the run has switched to its compensation pass.
func (l *runLog) Unwinding() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.unwinding
}

// Events returns a copy of the recorded events in order.
func (l *runLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]Event(nil), l.events...)
}

// statusFor returns the recorded status for a step index.
func (l *runLog) statusFor(index int) StepStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	status, ok := l.status.Get(index)
	if !ok {
		return StepPending
	}
	return status
}

// scanStatus visits every step that has a recorded status, in index order.
func (l *runLog) scanStatus(fn func(index int, status StepStatus) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.status.Scan(fn)
}

// compensationError aggregates the run's compensate failures, or nil if
// the unwind was clean.
func (l *runLog) compensationError() *CompensationError {
	cerr := &CompensationError{}
	for _, ev := range l.Events() {
		if ev.Type == EventCompensateFailed {
			cerr.addFailure(&CompensateFailure{Step: ev.Step, Index: ev.Index, Err: ev.Err})
		}
	}
	if !cerr.hasFailures() {
		return nil
	}
	return cerr
}

// runLogPretty is a helper for pretty-printing a runLog.
type runLogPretty struct {
	Log *runLog
}

// String implements the fmt.Stringer interface for runLogPretty.
func (p runLogPretty) String() string {
	var sb strings.Builder
	sb.WriteString("RUN LOG:\n")
	sb.WriteString(fmt.Sprintf("saga:      %s\n", p.Log.saga))
	sb.WriteString(fmt.Sprintf("run id:    %s\n", p.Log.runID))
	direction := "forward"
	if p.Log.Unwinding() {
		direction = "unwinding"
	}
	sb.WriteString(fmt.Sprintf("direction: %s\n", direction))
	events := p.Log.Events()
	sb.WriteString(fmt.Sprintf("events (%d total):\n\n", len(events)))
	for i, event := range events {
		sb.WriteString(fmt.Sprintf("%03d %s\n", i+1, event.String()))
	}
	return sb.String()
}
