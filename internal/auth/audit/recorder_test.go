package audit_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shoptally/shoptally/internal/auth/audit"
	"github.com/shoptally/shoptally/internal/auth/domain"
)

type memorySink struct {
	mu      sync.Mutex
	entries []domain.ActivityLog
	err     error
}

func (s *memorySink) Insert(ctx context.Context, entry domain.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memorySink) all() []domain.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ActivityLog(nil), s.entries...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRecorderWritesEntries(t *testing.T) {
	sink := &memorySink{}
	rec := audit.NewRecorder(sink, discardLogger(), 16)
	rec.Start()

	userID := "user-1"
	rec.Record(audit.Entry{
		UserID:    &userID,
		Action:    audit.ActionLoginFailed,
		Module:    audit.ModuleAuth,
		IP:        "203.0.113.1",
		UserAgent: "test-agent",
		Metadata:  map[string]any{"email": "patricia@example.com"},
	})
	rec.Record(audit.Entry{
		Action: audit.ActionLoginFailed,
		Module: audit.ModuleAuth,
	})

	// Stop drains the queue, so both entries are persisted afterwards.
	rec.Stop()

	entries := sink.all()
	require.Len(t, entries, 2)

	first := entries[0]
	require.NotEmpty(t, first.ID)
	require.Equal(t, &userID, first.UserID)
	require.Equal(t, audit.ActionLoginFailed, first.Action)
	require.False(t, first.CreatedAt.IsZero())
	require.Contains(t, first.Metadata, "pa***@example.com")
	require.NotContains(t, first.Metadata, "patricia@example.com")

	require.Nil(t, entries[1].UserID)
	require.Equal(t, "{}", entries[1].Metadata)
}

func TestRecorderSwallowsSinkFailures(t *testing.T) {
	sink := &memorySink{err: errors.New("db unavailable")}
	rec := audit.NewRecorder(sink, discardLogger(), 16)
	rec.Start()

	// Must not panic or block the caller.
	rec.Record(audit.Entry{Action: audit.ActionLoginFailed, Module: audit.ModuleAuth})
	rec.Stop()

	require.Empty(t, sink.all())
}

func TestRecorderDropsWhenQueueFull(t *testing.T) {
	sink := &memorySink{}
	rec := audit.NewRecorder(sink, discardLogger(), 1)

	// Worker not started: the second record finds the queue full and is
	// dropped without blocking.
	rec.Record(audit.Entry{Action: "first", Module: audit.ModuleAuth})
	rec.Record(audit.Entry{Action: "second", Module: audit.ModuleAuth})

	rec.Start()
	rec.Stop()

	entries := sink.all()
	require.Len(t, entries, 1)
	require.Equal(t, "first", entries[0].Action)
}
