package saga

import (
	"encoding/json"
	"fmt"
)

// StepStatus represents the execution state of a single step within a run.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepCompleted
	StepFailed
	StepCompensating
	StepCompensated
	StepCompensateFailed
)

// String returns the string representation of the StepStatus.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepCompleted:
		return "completed"
	case StepFailed:
		return "failed"
	case StepCompensating:
		return "compensating"
	case StepCompensated:
		return "compensated"
	case StepCompensateFailed:
		return "compensate_failed"
	default:
		return fmt.Sprintf("unknown StepStatus: %d", int(s))
	}
}

// next returns the status a step moves to after recording the given
// event, or an error if the event is illegal for the current status.
func (s StepStatus) next(eventType EventType) (StepStatus, error) {
	switch s {
	case StepPending:
		if eventType == EventStepStarted {
			return StepRunning, nil
		}
	case StepRunning:
		switch eventType {
		case EventStepSucceeded:
			return StepCompleted, nil
		case EventStepFailed:
			return StepFailed, nil
		}
	case StepCompleted:
		if eventType == EventCompensateStarted {
			return StepCompensating, nil
		}
	case StepCompensating:
		switch eventType {
		case EventCompensateSucceeded:
			return StepCompensated, nil
		case EventCompensateFailed:
			return StepCompensateFailed, nil
		}
	}

	return StepPending, fmt.Errorf(
		"illegal event type %s for current step status %s",
		eventType, s,
	)
}

// MarshalJSON implements the json.Marshaler interface for StepStatus.
func (s StepStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for StepStatus.
func (s *StepStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	switch str {
	case "pending":
		*s = StepPending
	case "running":
		*s = StepRunning
	case "completed":
		*s = StepCompleted
	case "failed":
		*s = StepFailed
	case "compensating":
		*s = StepCompensating
	case "compensated":
		*s = StepCompensated
	case "compensate_failed":
		*s = StepCompensateFailed
	default:
		return fmt.Errorf("invalid StepStatus: %s", str)
	}

	return nil
}

// Run status constants
const (
	RunStatusRunning    = "running"
	RunStatusCompleted  = "completed"
	RunStatusFailed     = "failed"
	RunStatusRolledBack = "rolled_back"
)
