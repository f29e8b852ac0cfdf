package saga

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLogRecordsLegalTransitions(t *testing.T) {
	log := newRunLog("orders", "run-1")

	require.NoError(t, log.record(Event{Type: EventStepStarted, Step: "a", Index: 0}))
	require.NoError(t, log.record(Event{Type: EventStepSucceeded, Step: "a", Index: 0}))
	require.NoError(t, log.record(Event{Type: EventStepStarted, Step: "b", Index: 1}))
	require.NoError(t, log.record(Event{Type: EventStepFailed, Step: "b", Index: 1, Err: errors.New("boom")}))
	require.NoError(t, log.record(Event{Type: EventCompensateStarted, Step: "a", Index: 0}))
	require.NoError(t, log.record(Event{Type: EventCompensateSucceeded, Step: "a", Index: 0}))

	assert.Equal(t, StepCompensated, log.statusFor(0))
	assert.Equal(t, StepFailed, log.statusFor(1))
	assert.Equal(t, StepPending, log.statusFor(2), "untouched steps stay pending")
	assert.Len(t, log.Events(), 6)
}

func TestRunLogRejectsIllegalTransitions(t *testing.T) {
	cases := []struct {
		name   string
		events []EventType
	}{
		{"succeed before start", []EventType{EventStepSucceeded}},
		{"compensate before start", []EventType{EventCompensateStarted}},
		{"double start", []EventType{EventStepStarted, EventStepStarted}},
		{"compensate a failed step", []EventType{EventStepStarted, EventStepFailed, EventCompensateStarted}},
		{"compensate finish without start", []EventType{EventStepStarted, EventStepSucceeded, EventCompensateSucceeded}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log := newRunLog("orders", "run-1")
			var err error
			for _, eventType := range tc.events {
				err = log.record(Event{Type: eventType, Step: "a", Index: 0})
			}
			assert.Error(t, err, "the final event should be rejected")
		})
	}
}

func TestRunLogUnwindingFlag(t *testing.T) {
	log := newRunLog("orders", "run-1")
	assert.False(t, log.Unwinding())

	require.NoError(t, log.record(Event{Type: EventStepStarted, Step: "a", Index: 0}))
	require.NoError(t, log.record(Event{Type: EventStepSucceeded, Step: "a", Index: 0}))
	assert.False(t, log.Unwinding(), "a clean forward pass is not an unwind")

	require.NoError(t, log.record(Event{Type: EventStepStarted, Step: "b", Index: 1}))
	require.NoError(t, log.record(Event{Type: EventStepFailed, Step: "b", Index: 1, Err: errors.New("boom")}))
	assert.True(t, log.Unwinding())
}

func TestRunLogSeededForRollback(t *testing.T) {
	log := newRunLog("orders", "run-1")
	log.seedCompleted(2)

	assert.Equal(t, StepCompleted, log.statusFor(0))
	assert.Equal(t, StepCompleted, log.statusFor(1))

	// Seeded steps accept compensate events directly.
	require.NoError(t, log.record(Event{Type: EventCompensateStarted, Step: "b", Index: 1}))
	require.NoError(t, log.record(Event{Type: EventCompensateFailed, Step: "b", Index: 1, Err: errors.New("stuck")}))

	cerr := log.compensationError()
	require.NotNil(t, cerr)
	require.Len(t, cerr.Failures, 1)
	assert.Equal(t, 1, cerr.Failures[0].Index)
}

func TestRunLogCompensationErrorNilWhenClean(t *testing.T) {
	log := newRunLog("orders", "run-1")
	log.seedCompleted(1)
	require.NoError(t, log.record(Event{Type: EventCompensateStarted, Step: "a", Index: 0}))
	require.NoError(t, log.record(Event{Type: EventCompensateSucceeded, Step: "a", Index: 0}))

	assert.Nil(t, log.compensationError())
}

func TestRunLogPretty(t *testing.T) {
	log := newRunLog("orders", "run-1")
	require.NoError(t, log.record(Event{Type: EventStepStarted, Step: "a", Index: 0}))
	require.NoError(t, log.record(Event{Type: EventStepFailed, Step: "a", Index: 0, Err: errors.New("boom")}))

	out := runLogPretty{Log: log}.String()
	assert.Contains(t, out, "saga:      orders")
	assert.Contains(t, out, "direction: unwinding")
	assert.Contains(t, out, "S000 step_failed")
}
