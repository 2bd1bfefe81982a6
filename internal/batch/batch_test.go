package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/Aman-CERP/repovec/internal/errors"
)

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestController_Split(t *testing.T) {
	c := New[int](3, 2, nil)

	batches := c.Split(ints(7))
	require.Len(t, batches, 3)
	assert.Equal(t, []int{0, 1, 2}, batches[0])
	assert.Equal(t, []int{3, 4, 5}, batches[1])
	assert.Equal(t, []int{6}, batches[2])

	assert.Nil(t, c.Split(nil))
}

func TestController_RunProcessesEverything(t *testing.T) {
	var processed atomic.Int64
	c := New[int](4, 3, nil)

	failures := c.Run(context.Background(), ints(25), func(_ context.Context, _ int, items []int) error {
		processed.Add(int64(len(items)))
		return nil
	})

	assert.Empty(t, failures)
	assert.Equal(t, int64(25), processed.Load())
}

func TestController_ConcurrencyBound(t *testing.T) {
	var cur, peak atomic.Int64
	c := New[int](1, 2, nil)

	c.Run(context.Background(), ints(8), func(_ context.Context, _ int, _ []int) error {
		n := cur.Add(1)
		defer cur.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		return nil
	})

	assert.LessOrEqual(t, peak.Load(), int64(2))
	assert.GreaterOrEqual(t, peak.Load(), int64(1))
}

func TestController_FailuresAreIsolated(t *testing.T) {
	var processed atomic.Int64
	c := New[int](2, 2, nil)

	failures := c.Run(context.Background(), ints(10), func(_ context.Context, index int, items []int) error {
		if index == 1 || index == 3 {
			return fmt.Errorf("boom %d", index)
		}
		processed.Add(int64(len(items)))
		return nil
	})

	// One error per failed batch; the siblings still ran.
	require.Len(t, failures, 2)
	assert.Equal(t, int64(6), processed.Load())
	for _, err := range failures {
		assert.Equal(t, errs.KindEmbedder, errs.GetKind(err))
	}
}

func TestController_PreservesIndexErrorKind(t *testing.T) {
	c := New[int](1, 1, nil)

	failures := c.Run(context.Background(), ints(1), func(_ context.Context, _ int, _ []int) error {
		return errs.StorageError("write rejected", nil)
	})

	require.Len(t, failures, 1)
	assert.Equal(t, errs.KindStorage, errs.GetKind(failures[0]))
}

func TestController_ProgressAfterEachGroup(t *testing.T) {
	var mu sync.Mutex
	var snaps []Progress

	c := New[int](2, 2, func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		snaps = append(snaps, p)
	})
	c.Phase = "embed"

	c.Run(context.Background(), ints(10), func(_ context.Context, _ int, _ []int) error {
		return nil
	})

	// 5 batches in groups of 2 -> 3 progress reports.
	require.Len(t, snaps, 3)

	prev := Progress{}
	for _, p := range snaps {
		assert.Equal(t, "embed", p.Phase)
		assert.Equal(t, 5, p.BatchesTotal)
		assert.Equal(t, 10, p.ItemsTotal)
		assert.GreaterOrEqual(t, p.BatchesDone, prev.BatchesDone)
		assert.GreaterOrEqual(t, p.ItemsDone, prev.ItemsDone)
		assert.GreaterOrEqual(t, p.Percent, prev.Percent)
		prev = p
	}
	last := snaps[len(snaps)-1]
	assert.Equal(t, 5, last.BatchesDone)
	assert.Equal(t, 10, last.ItemsDone)
	assert.Equal(t, 100.0, last.Percent)
	assert.Zero(t, last.ETA)
	if last.Elapsed > 0 {
		assert.Greater(t, last.Rate, 0.0)
	}
}

func TestController_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var processed atomic.Int64
	c := New[int](1, 1, nil)

	failures := c.Run(ctx, ints(5), func(_ context.Context, _ int, _ []int) error {
		processed.Add(1)
		return nil
	})

	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], context.Canceled)
	assert.Zero(t, processed.Load())
}

func TestController_EmptyInput(t *testing.T) {
	called := false
	c := New[int](4, 2, func(Progress) { called = true })

	failures := c.Run(context.Background(), nil, func(_ context.Context, _ int, _ []int) error {
		return fmt.Errorf("never")
	})

	assert.Empty(t, failures)
	assert.False(t, called)
}
