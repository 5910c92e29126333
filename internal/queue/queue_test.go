package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mastering "github.com/tphakala/go-audio-mastering"
	"github.com/tphakala/go-audio-mastering/internal/fault"
)

func fixedClock() func() time.Time {
	t := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestEnqueueAndGet(t *testing.T) {
	q := New(WithClock(fixedClock()))
	settings := mastering.DefaultSettings()
	settings.Mode = mastering.ModePodcast

	id, err := q.Enqueue("episode.wav", 1234, settings)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	job, err := q.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "episode.wav", job.FileName)
	assert.Equal(t, int64(1234), job.FileSize)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, mastering.ModePodcast, job.Settings.Mode)
	assert.Equal(t, fixedClock()(), job.CreatedAt)

	_, err = q.Get("nope")
	assert.ErrorIs(t, err, fault.ErrJobNotFound)
}

func TestEnqueueValidates(t *testing.T) {
	q := New()
	_, err := q.Enqueue("", 1, mastering.DefaultSettings())
	assert.ErrorIs(t, err, fault.ErrInvalidSettings)

	_, err = q.Enqueue("a.wav", -1, mastering.DefaultSettings())
	assert.ErrorIs(t, err, fault.ErrInvalidSettings)

	bad := mastering.DefaultSettings()
	bad.NoiseReduction = 500
	_, err = q.Enqueue("a.wav", 1, bad)
	assert.ErrorIs(t, err, fault.ErrInvalidSettings)
	assert.Empty(t, q.ListQueued())
}

func TestLifecycle(t *testing.T) {
	q := New(WithClock(fixedClock()))
	var ids []string
	for i := range 4 {
		id, err := q.Enqueue(fmt.Sprintf("take%d.wav", i), int64(i), mastering.DefaultSettings())
		require.NoError(t, err)
		ids = append(ids, id)
	}

	queued := q.ListQueued()
	require.Len(t, queued, 4)
	for i, j := range queued {
		assert.Equal(t, ids[i], j.ID, "arrival order")
	}

	job, ok := q.Claim()
	require.True(t, ok)
	assert.Equal(t, ids[0], job.ID)
	assert.Equal(t, StatusProcessing, job.Status)
	assert.False(t, job.StartedAt.IsZero())

	require.NoError(t, q.Complete(ids[0], mastering.Results{OutputLUFS: -14}))
	require.NoError(t, q.Fail(ids[2], errors.New("decode failure: truncated")))

	// A failed pending job is never handed out.
	job, ok = q.Claim()
	require.True(t, ok)
	assert.Equal(t, ids[1], job.ID)
	require.NoError(t, q.Complete(ids[1], mastering.Results{OutputLUFS: -16}))

	done := q.ListCompleted(0)
	require.Len(t, done, 3)
	assert.Equal(t, []string{ids[1], ids[2], ids[0]}, []string{done[0].ID, done[1].ID, done[2].ID})
	assert.Equal(t, StatusFailed, done[1].Status)
	assert.Equal(t, "decode failure: truncated", done[1].Error)
	require.NotNil(t, done[2].Results)
	assert.InDelta(t, -14.0, done[2].Results.OutputLUFS, 0)

	assert.Len(t, q.ListCompleted(2), 2)
	assert.Len(t, q.ListQueued(), 1)

	assert.ErrorIs(t, q.Complete(ids[0], mastering.Results{}), fault.ErrInvalidState)
	assert.ErrorIs(t, q.Fail("missing", errors.New("x")), fault.ErrJobNotFound)
}

func TestQueueLogsTransitions(t *testing.T) {
	logger, hook := test.NewNullLogger()
	q := New(WithLogger(logger))

	id, err := q.Enqueue("a.wav", 10, mastering.DefaultSettings())
	require.NoError(t, err)
	require.Equal(t, "job queued", hook.LastEntry().Message)
	assert.Equal(t, id, hook.LastEntry().Data["job_id"])

	require.NoError(t, q.Fail(id, errors.New("boom")))
	last := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, last.Level)
	assert.Equal(t, "job failed", last.Message)
	assert.EqualError(t, last.Data[logrus.ErrorKey].(error), "boom")
}

func TestPoolDrain(t *testing.T) {
	q := New()
	for i := range 12 {
		_, err := q.Enqueue(fmt.Sprintf("%02d.wav", i), 100, mastering.DefaultSettings())
		require.NoError(t, err)
	}

	var running, peak atomic.Int32
	process := func(_ context.Context, job Job) (mastering.Results, error) {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		switch job.FileName {
		case "03.wav":
			return mastering.Results{}, errors.New("render failure: stage tone")
		case "07.wav":
			panic("bad buffer")
		}
		return mastering.Results{OutputLUFS: -14}, nil
	}

	pool := NewPool(q, process, WithWorkers(3))
	assert.Equal(t, 3, pool.Workers())
	require.NoError(t, pool.Drain(context.Background()))

	assert.Empty(t, q.ListQueued())
	done := q.ListCompleted(0)
	require.Len(t, done, 12)
	assert.LessOrEqual(t, peak.Load(), int32(3))

	var failed []string
	for _, j := range done {
		if j.Status == StatusFailed {
			failed = append(failed, j.FileName+": "+j.Error)
		}
	}
	assert.ElementsMatch(t, []string{
		"03.wav: render failure: stage tone",
		"07.wav: processor panic: bad buffer",
	}, failed)
}

func TestPoolRunPicksUpLateJobs(t *testing.T) {
	q := New()
	var mu sync.Mutex
	var seen []string
	processed := make(chan struct{}, 4)
	process := func(_ context.Context, job Job) (mastering.Results, error) {
		mu.Lock()
		seen = append(seen, job.FileName)
		mu.Unlock()
		processed <- struct{}{}
		return mastering.Results{}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- NewPool(q, process, WithWorkers(2)).Run(ctx) }()

	for _, name := range []string{"late1.wav", "late2.wav"} {
		_, err := q.Enqueue(name, 1, mastering.DefaultSettings())
		require.NoError(t, err)
	}
	for range 2 {
		select {
		case <-processed:
		case <-time.After(5 * time.Second):
			t.Fatal("job was not picked up")
		}
	}

	cancel()
	require.NoError(t, <-errc)
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"late1.wav", "late2.wav"}, seen)
}

func TestWithWorkersIgnoresNonPositive(t *testing.T) {
	p := NewPool(New(), nil, WithWorkers(0))
	assert.Positive(t, p.Workers())
}
