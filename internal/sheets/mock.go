package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/ledger/internal/service"
)

// MockWriter is a ReportWriter that records what it was asked to write.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, data *service.ExportData) error
	LastData       *service.ExportData
	WriteCalls     []WriteCall
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to Write.
type WriteCall struct {
	Error error
	Data  *service.ExportData
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// Write implements service.ReportWriter.
func (m *MockWriter) Write(ctx context.Context, data *service.ExportData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastData = data

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, data)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{Data: data, Error: err})
	return err
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError makes every following Write return err.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, *service.ExportData) error {
		return err
	}
}
