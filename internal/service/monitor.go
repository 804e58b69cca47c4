package service

import (
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	"github.com/airsyncd/airsyncd/internal/logger"
)

// Monitor keeps rolling statistics of the sync engine: requests handled,
// changes delivered and a moving average of request latency. It reports
// through the structured log on a fixed period.
type Monitor struct {
	mu               sync.Mutex
	requestsHandled  int
	changesDelivered int
	requestDur       *movingaverage.MovingAverage

	stopCh chan struct{}
	logger *logger.Logger
}

// NewMonitor constructs a stopped Monitor.
func NewMonitor(logger *logger.Logger) *Monitor {
	return &Monitor{
		requestDur: movingaverage.New(10),
		logger:     logger,
	}
}

// RequestServed records one handled sync request: its latency and how many
// change entries the response carried.
func (m *Monitor) RequestServed(dur time.Duration, changes int) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requestsHandled++
	m.changesDelivered += changes
	m.requestDur.Add(float64(dur/time.Microsecond) / 1000.0)
}

// Start launches the reporting worker.
func (m *Monitor) Start() {
	if m.stopCh != nil {
		return
	}

	m.stopCh = make(chan struct{})
	go m.worker()
}

// Stop stops the reporting worker.
func (m *Monitor) Stop() {
	if m.stopCh == nil {
		return
	}

	close(m.stopCh)
	m.stopCh = nil
}

func (m *Monitor) worker() {
	const period = time.Minute

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.mu.Lock()
			requests := m.requestsHandled
			changes := m.changesDelivered
			avgDur := m.requestDur.Avg()
			m.requestsHandled = 0
			m.changesDelivered = 0
			m.mu.Unlock()

			m.logger.Info().
				Str("func", "Monitor.worker").
				Int("requests", requests).
				Int("changes_delivered", changes).
				Float64("avg_request_ms", avgDur).
				Msg("sync engine stats")
		}
	}
}
