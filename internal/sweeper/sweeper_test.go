package sweeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLifecycle struct {
	calls atomic.Int64
	err   error
}

func (s *stubLifecycle) ExpireDue(context.Context) (int, error) {
	s.calls.Add(1)
	if s.err != nil {
		return 0, s.err
	}
	return 1, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	svc := &stubLifecycle{}
	sw := New(svc, 5*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	require.Eventually(t, func() bool {
		return svc.calls.Load() >= 3
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRunSurvivesSweepErrors(t *testing.T) {
	svc := &stubLifecycle{err: errors.New("store down")}
	sw := New(svc, 5*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	require.Eventually(t, func() bool {
		return svc.calls.Load() >= 2
	}, time.Second, time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestNewDefaultsInterval(t *testing.T) {
	sw := New(&stubLifecycle{}, 0, discardLogger())
	assert.Equal(t, time.Minute, sw.interval)
}
