package testutils

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ExpectedRecord is a log record a test expects to be emitted.
type ExpectedRecord struct {
	Level   slog.Level
	Message string
}

// Compare asserts that have matches the expected level and contains the expected message.
func (want ExpectedRecord) Compare(t *testing.T, have slog.Record) {
	t.Helper()

	assert.Equal(t, want.Level, have.Level, "Expected Level did not match real Level")

	if want.Message == "" {
		return
	}
	assert.Contains(t, have.Message, want.Message, "Real Message does not contain Expected")
}

// MockHandler is a slog.Handler recording every handled record.
type MockHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

// NewMockHandler returns a new MockHandler.
func NewMockHandler() *MockHandler {
	return &MockHandler{}
}

// Enabled implements Handler.Enabled.
func (h *MockHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements Handler.Handle.
func (h *MockHandler) Handle(_ context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record)
	return nil
}

// WithAttrs implements Handler.WithAttrs. Attributes are dropped.
func (h *MockHandler) WithAttrs([]slog.Attr) slog.Handler {
	return h
}

// WithGroup implements Handler.WithGroup. Groups are dropped.
func (h *MockHandler) WithGroup(string) slog.Handler {
	return h
}

// Records returns the records handled so far, at or above level.
func (h *MockHandler) Records(level slog.Level) []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	var rs []slog.Record
	for _, r := range h.records {
		if r.Level >= level {
			rs = append(rs, r)
		}
	}
	return rs
}
