package saga

import "time"

// StepRecord is the terminal view of one step within a run report.
// StartedAt and FinishedAt span the step's first and last recorded
// events, so a compensated step's window covers both phases.
type StepRecord struct {
	Name            string     `json:"name"`
	Index           int        `json:"index"`
	Status          StepStatus `json:"status"`
	Error           string     `json:"error,omitempty"`
	CompensateError string     `json:"compensate_error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      time.Time  `json:"finished_at"`
}

// Report is the archived snapshot of a finished run: its terminal status,
// the final state value, and the per-step outcomes. Error holds the
// original forward failure for failed runs; compensate failures live on
// the individual step records.
type Report[T any] struct {
	RunID     string       `json:"run_id"`
	SagaName  string       `json:"saga_name"`
	Status    string       `json:"status"` // "completed", "failed", "rolled_back"
	State     T            `json:"state"`
	Error     string       `json:"error,omitempty"`
	Steps     []StepRecord `json:"steps"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// CompensateFailures returns the records of steps whose compensate
// function failed during the run.
func (r *Report[T]) CompensateFailures() []StepRecord {
	var failures []StepRecord
	for _, rec := range r.Steps {
		if rec.Status == StepCompensateFailed {
			failures = append(failures, rec)
		}
	}
	return failures
}

// newReport builds the terminal snapshot for a run from its event log.
func newReport[T any](run *runLog, status string, state T, cause error) Report[T] {
	byIndex := make(map[int]*StepRecord)
	for _, ev := range run.Events() {
		rec, ok := byIndex[ev.Index]
		if !ok {
			rec = &StepRecord{
				Name:      ev.Step,
				Index:     ev.Index,
				StartedAt: ev.Time,
			}
			byIndex[ev.Index] = rec
		}
		rec.FinishedAt = ev.Time

		switch ev.Type {
		case EventStepFailed:
			rec.Error = ev.Err.Error()
		case EventCompensateFailed:
			rec.CompensateError = ev.Err.Error()
		}
	}

	// The status index is ordered by step index, so the records come out
	// in registration order.
	steps := make([]StepRecord, 0, len(byIndex))
	run.scanStatus(func(index int, stepStatus StepStatus) bool {
		if rec, ok := byIndex[index]; ok {
			rec.Status = stepStatus
			steps = append(steps, *rec)
		}
		return true
	})

	report := Report[T]{
		RunID:     run.runID,
		SagaName:  run.saga,
		Status:    status,
		State:     state,
		Steps:     steps,
		CreatedAt: run.startedAt,
		UpdatedAt: time.Now(),
	}
	if cause != nil {
		report.Error = cause.Error()
	}
	return report
}
