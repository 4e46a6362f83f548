package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/remoteflow/pkg/schema"
)

type pruneCall struct {
	before time.Time
	keep   int
}

type mockPruner struct {
	mu    sync.Mutex
	calls []pruneCall
	n     int64
	err   error
	block chan struct{}

	// entered receives once a blocked call is in progress.
	entered chan struct{}
}

func (m *mockPruner) PruneSnapshots(_ context.Context, before time.Time, keep int) (int64, error) {
	if m.block != nil {
		m.entered <- struct{}{}
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, pruneCall{before: before, keep: keep})
	return m.n, m.err
}

func (m *mockPruner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

var fixedNow = time.Date(2024, 4, 5, 10, 30, 0, 0, time.UTC)

func TestNextRun(t *testing.T) {
	next, err := NextRun("0 3 * * *", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 6, 3, 0, 0, 0, time.UTC), next)

	_, err = NextRun("not a cron", fixedNow)
	assert.True(t, schema.HasCode(err, schema.ErrCodeValidation))
}

func TestNewPruner_Invalid(t *testing.T) {
	_, err := NewPruner(&mockPruner{}, Config{Schedule: "* *"}, nil)
	assert.True(t, schema.HasCode(err, schema.ErrCodeValidation))

	_, err = NewPruner(&mockPruner{}, Config{Schedule: "@daily", Keep: -1}, nil)
	assert.True(t, schema.HasCode(err, schema.ErrCodeValidation))
}

func TestRunOnce(t *testing.T) {
	m := &mockPruner{n: 4}
	p, err := NewPruner(m, Config{Schedule: "0 * * * *", Retention: 24 * time.Hour, Keep: 3}, nil)
	require.NoError(t, err)
	p.now = func() time.Time { return fixedNow }

	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.Len(t, m.calls, 1)
	assert.Equal(t, fixedNow.Add(-24*time.Hour), m.calls[0].before)
	assert.Equal(t, 3, m.calls[0].keep)
}

func TestRunOnce_Error(t *testing.T) {
	m := &mockPruner{err: errors.New("disk full")}
	p, err := NewPruner(m, Config{Schedule: "@hourly"}, nil)
	require.NoError(t, err)

	_, err = p.RunOnce(context.Background())
	assert.ErrorContains(t, err, "disk full")
}

func TestRunOnce_SkipsOverlap(t *testing.T) {
	m := &mockPruner{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	p, err := NewPruner(m, Config{Schedule: "@hourly"}, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = p.RunOnce(context.Background())
	}()

	<-m.entered

	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	close(m.block)
	wg.Wait()
	assert.Equal(t, 1, m.callCount())
}

func TestPruner_NextRun(t *testing.T) {
	p, err := NewPruner(&mockPruner{}, Config{Schedule: "30 2 * * 0"}, nil)
	require.NoError(t, err)

	// 2024-04-05 is a Friday; the next Sunday is the 7th.
	assert.Equal(t, time.Date(2024, 4, 7, 2, 30, 0, 0, time.UTC), p.NextRun(fixedNow))
}

func TestStartStop(t *testing.T) {
	m := &mockPruner{}
	p, err := NewPruner(m, Config{Schedule: "* * * * *"}, nil)
	require.NoError(t, err)

	require.NoError(t, p.Start(context.Background()))
	assert.Error(t, p.Start(context.Background()))

	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())

	// Restart after stop.
	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Stop())
}

func TestLoop_FiresOnSchedule(t *testing.T) {
	m := &mockPruner{}
	p, err := NewPruner(m, Config{Schedule: "* * * * *"}, nil)
	require.NoError(t, err)

	// A clock sitting just before a minute boundary makes the first wait tiny.
	var mu sync.Mutex
	clock := time.Date(2024, 4, 5, 10, 30, 59, 990_000_000, time.UTC)
	p.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		c := clock
		clock = clock.Add(time.Millisecond)
		return c
	}

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return m.callCount() >= 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop())
}
