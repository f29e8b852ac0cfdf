package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore provides a file-based implementation of Store that persists
// run reports as JSON files on disk.
type FileStore[T any] struct {
	basePath string
	mu       sync.Mutex // Protects file operations
}

// NewFileStore creates a new file-based store that saves run reports
// to the specified directory.
func NewFileStore[T any](basePath string) (*FileStore[T], error) {
	// Ensure the base directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileStore[T]{
		basePath: basePath,
	}, nil
}

// Save persists the run report to a JSON file.
func (f *FileStore[T]) Save(ctx context.Context, runID string, report Report[T]) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Update timestamp
	report.UpdatedAt = time.Now()

	// Marshal report to JSON
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	// Write to file
	filename := f.filename(runID)
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	return nil
}

// Load retrieves the run report from a JSON file.
func (f *FileStore[T]) Load(ctx context.Context, runID string) (*Report[T], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Read file
	filename := f.filename(runID)
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	// Unmarshal report
	var report Report[T]
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &report, nil
}

// Delete removes the run report file.
func (f *FileStore[T]) Delete(ctx context.Context, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	filename := f.filename(runID)
	if err := os.Remove(filename); err != nil {
		if os.IsNotExist(err) {
			// Already deleted, not an error
			return nil
		}
		return fmt.Errorf("failed to delete report file: %w", err)
	}

	return nil
}

// filename returns the full path for a run's report file.
func (f *FileStore[T]) filename(runID string) string {
	return filepath.Join(f.basePath, runID+".json")
}
