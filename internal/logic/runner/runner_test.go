package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maxliu9403/ProxyBoard/models"
)

func makeItems(n int) []models.ProxyRecord {
	items := make([]models.ProxyRecord, n)
	for i := range items {
		items[i] = models.ProxyRecord{ID: int64(i + 1), Host: "10.0.0.1", Port: 8000 + i}
	}
	return items
}

func okFunc(_ context.Context, p models.ProxyRecord) (models.ValidationResult, error) {
	return models.ValidationResult{Proxy: p, IsValid: true, QualityScore: 50}, nil
}

func TestRun_BatchBarrier(t *testing.T) {
	var (
		inFlight    int32
		maxInFlight int32
		mu          sync.Mutex
		batchOf     = map[int64]int{}
		batchNo     int32
	)

	fn := func(_ context.Context, p models.ProxyRecord) (models.ValidationResult, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		mu.Lock()
		batchOf[p.ID] = int(atomic.LoadInt32(&batchNo))
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return okFunc(context.Background(), p)
	}

	var progress []Progress
	r := New(3,
		WithProgress(func(p Progress) { progress = append(progress, p) }),
		WithBatchDone(func([]models.ValidationResult) { atomic.AddInt32(&batchNo, 1) }),
	)
	rep := r.Run(context.Background(), makeItems(10), fn)

	require.False(t, rep.Cancelled)
	require.Equal(t, 10, rep.Completed)
	require.Len(t, rep.Results, 10)
	require.LessOrEqual(t, maxInFlight, int32(3))

	// IDs 1-3 ran in batch 0, 4-6 in batch 1 ...
	for id, b := range batchOf {
		require.Equal(t, int(id-1)/3, b, "id %d", id)
	}

	require.Len(t, progress, 4)
	require.Equal(t, 30, progress[0].Percent)
	require.Equal(t, 60, progress[1].Percent)
	require.Equal(t, 90, progress[2].Percent)
	require.Equal(t, 100, progress[3].Percent)

	for i, res := range rep.Results {
		require.Equal(t, int64(i+1), res.Proxy.ID, "results keep input order")
	}
}

func TestRun_ItemIsolation(t *testing.T) {
	fn := func(ctx context.Context, p models.ProxyRecord) (models.ValidationResult, error) {
		switch p.ID {
		case 5:
			return models.ValidationResult{}, errors.New("connection refused")
		case 7:
			panic("boom")
		}
		return okFunc(ctx, p)
	}

	rep := New(4).Run(context.Background(), makeItems(10), fn)
	require.Len(t, rep.Results, 10)

	for _, res := range rep.Results {
		switch res.Proxy.ID {
		case 5:
			require.False(t, res.IsValid)
			require.Equal(t, 0, res.QualityScore)
			require.Equal(t, "connection refused", res.Error)
		case 7:
			require.False(t, res.IsValid)
			require.Contains(t, res.Error, "boom")
		default:
			require.True(t, res.IsValid)
		}
	}
}

func TestRun_CancelAfterFirstBatch(t *testing.T) {
	var r *Runner
	r = New(3, WithBatchDone(func([]models.ValidationResult) {
		r.Cancel()
		r.Cancel()
	}))

	var calls int32
	fn := func(ctx context.Context, p models.ProxyRecord) (models.ValidationResult, error) {
		atomic.AddInt32(&calls, 1)
		return okFunc(ctx, p)
	}

	rep := r.Run(context.Background(), makeItems(9), fn)
	require.True(t, rep.Cancelled)
	require.True(t, r.Cancelled())
	require.Len(t, rep.Results, 3)
	require.Equal(t, int32(3), calls)
	for _, res := range rep.Results {
		require.LessOrEqual(t, res.Proxy.ID, int64(3))
	}
}

func TestRun_ContextCancelLetsBatchFinish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{}, 6)
	fn := func(itemCtx context.Context, p models.ProxyRecord) (models.ValidationResult, error) {
		started <- struct{}{}
		time.Sleep(30 * time.Millisecond)
		if itemCtx.Err() != nil {
			return models.ValidationResult{}, itemCtx.Err()
		}
		return okFunc(itemCtx, p)
	}

	go func() {
		<-started
		cancel()
	}()

	rep := New(2).Run(ctx, makeItems(6), fn)
	require.True(t, rep.Cancelled)
	require.Len(t, rep.Results, 2)
	for _, res := range rep.Results {
		require.True(t, res.IsValid, "in-flight calls are not interrupted")
	}
}

func TestRun_ItemTimeout(t *testing.T) {
	fn := func(ctx context.Context, p models.ProxyRecord) (models.ValidationResult, error) {
		<-ctx.Done()
		return models.ValidationResult{}, ctx.Err()
	}

	rep := New(2, WithItemTimeout(10*time.Millisecond)).Run(context.Background(), makeItems(2), fn)
	require.Len(t, rep.Results, 2)
	for _, res := range rep.Results {
		require.False(t, res.IsValid)
		require.Contains(t, res.Error, "timed out")
		require.GreaterOrEqual(t, res.TestTime, int64(10))
	}
}

func TestRun_Empty(t *testing.T) {
	var last Progress
	rep := New(5, WithProgress(func(p Progress) { last = p })).Run(context.Background(), nil, okFunc)
	require.Empty(t, rep.Results)
	require.Equal(t, 100, last.Percent)
}

func TestPercent(t *testing.T) {
	require.Equal(t, 30, Percent(3, 10))
	require.Equal(t, 33, Percent(1, 3))
	require.Equal(t, 67, Percent(2, 3))
	require.Equal(t, 100, Percent(0, 0))
}
