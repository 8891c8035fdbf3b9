package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScanner struct {
	mu    sync.Mutex
	calls []time.Time
	count int
	err   error
}

func (s *stubScanner) TickSLAMonitor(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, now)
	return s.count, s.err
}

func (s *stubScanner) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type blockingScanner struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *blockingScanner) TickSLAMonitor(_ context.Context, _ time.Time) (int, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return 0, nil
}

func TestRunOnceUsesClock(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 1, 0, time.UTC)
	scanner := &stubScanner{count: 2}
	monitor, err := NewSLAMonitor(scanner, clockwork.NewFakeClockAt(at), "", nil)
	require.NoError(t, err)

	count, err := monitor.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, scanner.calls, 1)
	assert.Equal(t, at, scanner.calls[0])

	scanner.err = errors.New("store unavailable")
	_, err = monitor.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestInvalidSchedule(t *testing.T) {
	_, err := NewSLAMonitor(&stubScanner{}, nil, "every tuesday", nil)
	assert.Error(t, err)
}

func TestScheduledScansStopOnCancel(t *testing.T) {
	scanner := &stubScanner{}
	monitor, err := NewSLAMonitor(scanner, nil, "@every 1s", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	monitor.Start(ctx)
	monitor.Start(ctx)

	assert.Eventually(t, func() bool { return scanner.callCount() >= 1 }, 5*time.Second, 50*time.Millisecond)

	cancel()
	monitor.Stop()
	stopped := scanner.callCount()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, stopped, scanner.callCount())
}

func TestEveryStopCallerWaitsForInFlightScan(t *testing.T) {
	scanner := &blockingScanner{entered: make(chan struct{}), release: make(chan struct{})}
	monitor, err := NewSLAMonitor(scanner, nil, "@every 1s", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	monitor.Start(ctx)

	select {
	case <-scanner.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not start")
	}

	cancel()
	var returned atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			monitor.Stop()
			returned.Add(1)
		}()
	}

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), returned.Load())

	close(scanner.release)
	wg.Wait()
	assert.Equal(t, int32(2), returned.Load())

	monitor.Stop()
}

func TestStopBeforeStartIsNoop(t *testing.T) {
	monitor, err := NewSLAMonitor(&stubScanner{}, nil, "", nil)
	require.NoError(t, err)
	monitor.Stop()
}
