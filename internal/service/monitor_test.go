package service

import (
	"testing"
	"time"

	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestMonitor_NilReceiverIsSafe(t *testing.T) {
	var m *Monitor

	assert.NotPanics(t, func() {
		m.RequestServed(10*time.Millisecond, 3)
	})
}

func TestMonitor_AccumulatesStats(t *testing.T) {
	m := NewMonitor(logger.Nop())

	m.RequestServed(10*time.Millisecond, 3)
	m.RequestServed(20*time.Millisecond, 0)

	m.mu.Lock()
	defer m.mu.Unlock()

	assert.Equal(t, 2, m.requestsHandled)
	assert.Equal(t, 3, m.changesDelivered)
	assert.InDelta(t, 15.0, m.requestDur.Avg(), 0.01)
}

func TestMonitor_StartStopIdempotent(t *testing.T) {
	m := NewMonitor(logger.Nop())

	m.Start()
	m.Start()
	m.Stop()
	m.Stop()
}
