package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpiredSessions(context.Context) (int64, error) {
	p.calls.Add(1)
	return 3, p.err
}

func TestScheduler_RunsPurge(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	purger := &countingPurger{}

	scheduler, err := NewScheduler(purger, "@every 1s", zap.New(core))
	require.NoError(t, err)
	scheduler.Start()
	defer scheduler.Stop()

	require.Eventually(t, func() bool { return purger.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("Purged expired admin sessions").Len() > 0
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	purger := &countingPurger{err: errors.New("database is locked")}

	scheduler, err := NewScheduler(purger, "@every 1s", zap.New(core))
	require.NoError(t, err)
	scheduler.Start()
	defer scheduler.Stop()

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("Failed to purge expired admin sessions").Len() > 0
	}, 3*time.Second, 50*time.Millisecond)
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler(&countingPurger{}, "every now and then", zap.NewNop())
	assert.ErrorContains(t, err, "invalid session purge schedule")
}
