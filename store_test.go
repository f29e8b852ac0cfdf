package saga

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderState struct {
	OrderID   string  `json:"order_id"`
	Amount    float64 `json:"amount"`
	PaymentID string  `json:"payment_id,omitempty"`
}

func sampleReport() Report[orderState] {
	now := time.Now()
	return Report[orderState]{
		RunID:    "run-42",
		SagaName: "checkout",
		Status:   RunStatusFailed,
		State:    orderState{OrderID: "order-123", Amount: 99.99},
		Error:    "payment declined",
		Steps: []StepRecord{
			{Name: "reserve", Index: 0, Status: StepCompensated, StartedAt: now, FinishedAt: now},
			{Name: "charge", Index: 1, Status: StepFailed, Error: "payment declined", StartedAt: now, FinishedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[orderState]()
	report := sampleReport()

	require.NoError(t, store.Save(ctx, report.RunID, report))

	loaded, err := store.Load(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.SagaName, loaded.SagaName)
	assert.Equal(t, report.State, loaded.State)
	assert.Equal(t, report.Steps, loaded.Steps)

	require.NoError(t, store.Delete(ctx, report.RunID))
	_, err = store.Load(ctx, report.RunID)
	assert.Error(t, err, "a deleted report should not load")
}

func TestMemoryStoreLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[orderState]()
	require.NoError(t, store.Save(ctx, "run-42", sampleReport()))

	first, err := store.Load(ctx, "run-42")
	require.NoError(t, err)
	first.Status = RunStatusCompleted

	second, err := store.Load(ctx, "run-42")
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, second.Status, "mutating a loaded report must not affect the store")
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore[orderState](t.TempDir())
	require.NoError(t, err)

	report := sampleReport()
	require.NoError(t, store.Save(ctx, report.RunID, report))

	loaded, err := store.Load(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.SagaName, loaded.SagaName)
	assert.Equal(t, report.Status, loaded.Status)
	assert.Equal(t, report.State, loaded.State)

	// Step statuses serialize by name and must survive the trip.
	require.Len(t, loaded.Steps, 2)
	assert.Equal(t, StepCompensated, loaded.Steps[0].Status)
	assert.Equal(t, StepFailed, loaded.Steps[1].Status)
	assert.Equal(t, "payment declined", loaded.Steps[1].Error)
}

func TestFileStoreLoadMissing(t *testing.T) {
	store, err := NewFileStore[orderState](t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFileStoreDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore[orderState](t.TempDir())
	require.NoError(t, err)

	report := sampleReport()
	require.NoError(t, store.Save(ctx, report.RunID, report))
	require.NoError(t, store.Delete(ctx, report.RunID))
	assert.NoError(t, store.Delete(ctx, report.RunID), "deleting twice is not an error")
}

func TestExecuteArchivesToFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore[int](t.TempDir())
	require.NoError(t, err)

	var runID string
	s := New[int]("archived",
		WithStore[int](store),
		WithListener[int](ListenerFunc(func(ev Event) { runID = ev.RunID })),
	).
		Add(NewStepWithNoOpCompensate("inc", func(ctx context.Context, x int) (int, error) {
			return x + 1, nil
		}))

	require.NoError(t, s.Execute(ctx, 41))
	require.NotEmpty(t, runID)

	report, err := store.Load(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, report.Status)
	assert.Equal(t, 42, report.State)
}
