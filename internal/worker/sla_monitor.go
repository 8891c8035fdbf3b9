package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule scans for breaches every 10 seconds.
const DefaultSchedule = "@every 10s"

// BreachScanner escalates requests whose SLA has lapsed at now.
type BreachScanner interface {
	TickSLAMonitor(ctx context.Context, now time.Time) (int, error)
}

// SLAMonitor runs BreachScanner on a cron schedule.
type SLAMonitor struct {
	mu       sync.Mutex
	cron     *cron.Cron
	scanner  BreachScanner
	clock    clockwork.Clock
	logger   *zap.Logger
	schedule string
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewSLAMonitor validates schedule and prepares the monitor. Overlapping
// ticks are skipped rather than queued.
func NewSLAMonitor(scanner BreachScanner, clk clockwork.Clock, schedule string, logger *zap.Logger) (*SLAMonitor, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &SLAMonitor{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		scanner:  scanner,
		clock:    clk,
		logger:   logger,
		schedule: schedule,
	}
	if _, err := m.cron.AddFunc(schedule, m.tick); err != nil {
		return nil, fmt.Errorf("sla monitor: invalid schedule %q: %w", schedule, err)
	}
	return m, nil
}

// Start begins scheduled scans. Scans stop when ctx is cancelled or Stop is
// called; a stopped monitor cannot be restarted.
func (m *SLAMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped != nil {
		return
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.stopped = make(chan struct{})
	m.cron.Start()
	m.logger.Info("sla monitor started", zap.String("schedule", m.schedule))

	go func(done <-chan struct{}) {
		<-done
		m.Stop()
	}(m.ctx.Done())
}

// Stop halts the schedule and waits for an in-flight scan to finish. Every
// caller blocks until the scan has drained, not only the first one.
func (m *SLAMonitor) Stop() {
	m.mu.Lock()
	stopped, cancel := m.stopped, m.cancel
	m.mu.Unlock()
	if stopped == nil {
		return
	}

	m.stopOnce.Do(func() {
		<-m.cron.Stop().Done()
		cancel()
		m.logger.Info("sla monitor stopped")
		close(stopped)
	})
	<-stopped
}

// RunOnce performs a single scan immediately.
func (m *SLAMonitor) RunOnce(ctx context.Context) (int, error) {
	count, err := m.scanner.TickSLAMonitor(ctx, m.clock.Now().UTC())
	if err != nil {
		m.logger.Error("sla monitor scan failed", zap.Int("escalated", count), zap.Error(err))
		return count, err
	}
	if count > 0 {
		m.logger.Warn("sla monitor escalated requests", zap.Int("escalated", count))
	} else {
		m.logger.Debug("sla monitor scan complete")
	}
	return count, nil
}

func (m *SLAMonitor) tick() {
	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	_, _ = m.RunOnce(ctx)
}
