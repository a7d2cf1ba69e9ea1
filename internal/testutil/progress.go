package testutil

import "sync"

// ProgressUpdate is one Update callback.
type ProgressUpdate struct {
	Transferred int64
	Total       int64
}

// MockProgressTracker records every callback a writer makes.
type MockProgressTracker struct {
	mu            sync.Mutex
	Updates       []ProgressUpdate
	CompleteCount int
	Errors        []error
}

// Update records a progress update.
func (m *MockProgressTracker) Update(bytesTransferred, totalBytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates = append(m.Updates, ProgressUpdate{Transferred: bytesTransferred, Total: totalBytes})
}

// Complete records a successful transfer.
func (m *MockProgressTracker) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCount++
}

// Error records a failed transfer.
func (m *MockProgressTracker) Error(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors = append(m.Errors, err)
}

// Transferred returns the byte count of the latest update, or 0 before any.
func (m *MockProgressTracker) Transferred() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Updates) == 0 {
		return 0
	}
	return m.Updates[len(m.Updates)-1].Transferred
}
