package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingJobs struct {
	mu        sync.Mutex
	scrapes   int
	alerts    int
	summaries int
	cleanups  int
}

func (j *countingJobs) UpdateTrackedPrices(context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.scrapes++
	return nil
}

func (j *countingJobs) CheckAlerts(context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.alerts++
	return nil
}

func (j *countingJobs) SendWeeklySummaries(context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.summaries++
	return nil
}

func (j *countingJobs) CleanupOldObservations(context.Context) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cleanups++
	return 0, nil
}

func (j *countingJobs) snapshot() (int, int, int, int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.scrapes, j.alerts, j.summaries, j.cleanups
}

func TestRunFiresAllJobsAndStops(t *testing.T) {
	jobs := &countingJobs{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Run(ctx, zap.NewNop(), jobs, Config{
			AlertInterval:   5 * time.Millisecond,
			ScrapeInterval:  5 * time.Millisecond,
			SummaryInterval: 5 * time.Millisecond,
			CleanupInterval: 5 * time.Millisecond,
		})
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}

	scrapes, alerts, summaries, cleanups := jobs.snapshot()
	assert.GreaterOrEqual(t, scrapes, 2, "initial pass plus at least one tick")
	assert.GreaterOrEqual(t, alerts, 1)
	assert.GreaterOrEqual(t, summaries, 1)
	assert.GreaterOrEqual(t, cleanups, 1)
}

func TestRunInitialScrapePass(t *testing.T) {
	jobs := &countingJobs{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		// Long intervals: only the startup pass can fire.
		Run(ctx, zap.NewNop(), jobs, Config{
			AlertInterval:   time.Hour,
			ScrapeInterval:  time.Hour,
			SummaryInterval: time.Hour,
			CleanupInterval: time.Hour,
		})
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done

	scrapes, alerts, _, _ := jobs.snapshot()
	assert.Equal(t, 1, scrapes)
	assert.Zero(t, alerts)
}

func TestConfigWithDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, time.Hour, c.AlertInterval)
	assert.Equal(t, 6*time.Hour, c.ScrapeInterval)
	assert.Equal(t, 7*24*time.Hour, c.SummaryInterval)
	assert.Equal(t, 7*24*time.Hour, c.CleanupInterval)
}
