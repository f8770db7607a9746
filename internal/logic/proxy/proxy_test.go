package proxy

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/maxliu9403/ProxyBoard/internal/logic/bulk"
	"github.com/maxliu9403/ProxyBoard/internal/logic/reconcile"
	"github.com/maxliu9403/ProxyBoard/internal/logic/store"
	"github.com/maxliu9403/ProxyBoard/internal/types"
	"github.com/maxliu9403/ProxyBoard/models"
	"github.com/maxliu9403/ProxyBoard/models/repo"
)

// aliveOnEvenPort marks proxies on even ports as alive.
func aliveOnEvenPort(_ context.Context, p models.ProxyRecord) (models.ValidationResult, error) {
	if p.Port%2 == 1 {
		return models.ValidationResult{}, errors.New("connection refused")
	}
	return models.ValidationResult{Proxy: p, IsValid: true, Ping: models.Int64Ptr(int64(p.Port % 100)), QualityScore: 80}, nil
}

func newTestService(t *testing.T, test func(context.Context, models.ProxyRecord) (models.ValidationResult, error), opts Options, options ...Option) *Service {
	t.Helper()
	svc, err := NewService([]models.ProxyRecord{
		{ID: 1, Host: "1.1.1.1", Port: 8080, Country: "DE", Group: "eu"},
		{ID: 2, Host: "2.2.2.2", Port: 1081, Type: models.TypeSOCKS5, Country: "US"},
		{ID: 3, Host: "3.3.3.3", Port: 3128, Status: models.StatusTesting, Notes: "office"},
	}, test, opts, options...)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func waitDone(t *testing.T, svc *Service, id string) models.BulkOperation {
	t.Helper()
	var op models.BulkOperation
	require.Eventually(t, func() bool {
		var err error
		op, err = svc.Operation(id)
		return err == nil && op.Status.Terminal() && !svc.Testing()
	}, 2*time.Second, 5*time.Millisecond)
	return op
}

func TestNewService_ResetsTesting(t *testing.T) {
	svc := newTestService(t, aliveOnEvenPort, Options{})
	d, err := svc.Get(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, d.Status)
	require.Nil(t, d.Health)

	_, err = svc.Get(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	svc := newTestService(t, aliveOnEvenPort, Options{})
	ctx := context.Background()

	list, total, err := svc.List(ctx, ListParams{Types: []models.ProxyType{models.TypeHTTP}})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, list, 2)

	list, _, err = svc.List(ctx, ListParams{Countries: []string{"de"}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(1), list[0].ID)

	list, _, err = svc.List(ctx, ListParams{Page: types.Page{Keyword: "OFFICE"}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(3), list[0].ID)

	list, total, err = svc.List(ctx, ListParams{Page: types.Page{Order: "Id desc", Limit: 2, Offset: 1}})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Equal(t, []int64{2, 1}, recordIDs(list))

	list, _, err = svc.List(ctx, ListParams{Page: types.Page{Offset: 10}})
	require.NoError(t, err)
	require.Empty(t, list)

	_, _, err = svc.List(ctx, ListParams{Statuses: []models.Status{"broken"}})
	require.ErrorIs(t, err, ErrInvalidQuery)
	_, _, err = svc.List(ctx, ListParams{Page: types.Page{Order: "Password"}})
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestAddAndImport(t *testing.T) {
	svc := newTestService(t, aliveOnEvenPort, Options{})
	ctx := context.Background()

	res, err := svc.Add(ctx, []models.ProxyRecord{
		{Host: "1.1.1.1", Port: 8080},
		{Host: "4.4.4.4", Port: 80},
		{Host: "4.4.4.4", Port: 80},
	})
	require.NoError(t, err)
	require.Len(t, res.Added, 1)
	require.Equal(t, int64(4), res.Added[0].ID)
	require.Equal(t, []string{"1.1.1.1:8080", "4.4.4.4:80"}, res.Duplicates)

	res, err = svc.Import(ctx, "5.5.5.5:1080\nnot a proxy\n4.4.4.4:80\n", "imported")
	require.NoError(t, err)
	require.Len(t, res.Added, 1)
	require.Equal(t, "imported", res.Added[0].Group)
	require.Len(t, res.Skipped, 1)
	require.Equal(t, 2, res.Skipped[0].Line)
	require.Equal(t, []string{"4.4.4.4:80"}, res.Duplicates)
}

func TestUpdateAndUndo(t *testing.T) {
	svc := newTestService(t, aliveOnEvenPort, Options{})
	ctx := context.Background()

	group := "asia"
	op, err := svc.Update(ctx, []int64{1, 2}, store.Patch{Group: &group})
	require.NoError(t, err)
	require.Equal(t, models.OpCompleted, op.Status)
	require.True(t, op.CanUndo)
	require.Equal(t, 2, op.Total)

	d, _ := svc.Get(ctx, 1)
	require.Equal(t, "asia", d.Group)

	op, err = svc.UndoOperation(ctx, op.ID)
	require.NoError(t, err)
	require.False(t, op.CanUndo)
	d, _ = svc.Get(ctx, 1)
	require.Equal(t, "eu", d.Group)

	_, err = svc.UndoOperation(ctx, op.ID)
	require.ErrorIs(t, err, bulk.ErrNotUndoable)
	require.True(t, IsOperationStateErr(err))

	_, err = svc.Update(ctx, []int64{1}, store.Patch{})
	require.ErrorIs(t, err, ErrInvalidQuery)
	_, err = svc.Update(ctx, []int64{99}, store.Patch{Group: &group})
	require.ErrorIs(t, err, ErrNoProxies)
}

func TestUpdateUndo_KeepsLaterResults(t *testing.T) {
	svc := newTestService(t, aliveOnEvenPort, Options{})
	ctx := context.Background()

	group := "asia"
	op, err := svc.Update(ctx, []int64{1}, store.Patch{Group: &group})
	require.NoError(t, err)

	n, err := svc.ApplyResults(ctx, []models.ValidationResult{
		{Proxy: models.ProxyRecord{ID: 1}, IsValid: true, Ping: models.Int64Ptr(40)},
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = svc.UndoOperation(ctx, op.ID)
	require.NoError(t, err)

	d, _ := svc.Get(ctx, 1)
	require.Equal(t, "eu", d.Group)
	require.Equal(t, models.StatusAlive, d.Status)
	require.Equal(t, int64(40), *d.Ping)
	require.NotNil(t, d.LastTested)
}

func TestAdd_ConcurrentSameAddress(t *testing.T) {
	svc := newTestService(t, aliveOnEvenPort, Options{})
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		added int32
		dups  int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Add(ctx, []models.ProxyRecord{{Host: "9.9.9.9", Port: 9}})
			require.NoError(t, err)
			atomic.AddInt32(&added, int32(len(res.Added)))
			atomic.AddInt32(&dups, int32(len(res.Duplicates)))
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), added)
	require.Equal(t, int32(19), dups)
	_, total, err := svc.List(ctx, ListParams{Page: types.Page{Keyword: "9.9.9.9"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestDeleteAndUndo(t *testing.T) {
	svc := newTestService(t, aliveOnEvenPort, Options{})
	ctx := context.Background()

	op, err := svc.Delete(ctx, []int64{2, 3})
	require.NoError(t, err)
	_, total, _ := svc.List(ctx, ListParams{})
	require.Equal(t, int64(1), total)

	_, err = svc.UndoOperation(ctx, op.ID)
	require.NoError(t, err)
	d, err := svc.Get(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, models.TypeSOCKS5, d.Type)

	require.NoError(t, svc.RemoveOperation(op.ID))
	_, err = svc.Operation(op.ID)
	require.ErrorIs(t, err, bulk.ErrNotFound)

	_, err = svc.Delete(ctx, nil)
	require.ErrorIs(t, err, ErrNoProxies)
}

func TestExport(t *testing.T) {
	svc := newTestService(t, aliveOnEvenPort, Options{})
	res, err := svc.Export(context.Background(), []int64{1, 3})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	require.Equal(t, models.OpExport, res.Operation.Type)
	require.Equal(t, models.OpCompleted, res.Operation.Status)
	require.Equal(t, 2, res.Operation.Processed)
}

func TestTestOne(t *testing.T) {
	var published int32
	svc := newTestService(t, aliveOnEvenPort, Options{}, WithResultSink(func(_ context.Context, rs []models.ValidationResult) {
		atomic.AddInt32(&published, int32(len(rs)))
	}))
	ctx := context.Background()

	res, err := svc.TestOne(ctx, 1)
	require.NoError(t, err)
	require.True(t, res.IsValid)

	d, _ := svc.Get(ctx, 1)
	require.Equal(t, models.StatusAlive, d.Status)
	require.NotNil(t, d.LastTested)
	require.NotNil(t, d.Health)
	require.Equal(t, 1, d.Health.Checks)

	res, err = svc.TestOne(ctx, 2)
	require.NoError(t, err)
	require.False(t, res.IsValid)
	require.Equal(t, "connection refused", res.Error)
	d, _ = svc.Get(ctx, 2)
	require.Equal(t, models.StatusDead, d.Status)

	require.Equal(t, int32(2), atomic.LoadInt32(&published))

	_, err = svc.TestOne(ctx, 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTestBulk(t *testing.T) {
	var (
		mu      sync.Mutex
		reports []reconcile.RunSummary
	)
	svc := newTestService(t, aliveOnEvenPort, Options{BatchSize: 2, LeaderboardK: 2},
		WithRunReporter(func(_ context.Context, op models.BulkOperation, s reconcile.RunSummary) {
			mu.Lock()
			defer mu.Unlock()
			reports = append(reports, s)
		}))
	ctx := context.Background()

	op, err := svc.TestBulk(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, models.OpRunning, op.Status)
	require.Equal(t, 3, op.Total)

	op = waitDone(t, svc, op.ID)
	require.Equal(t, models.OpCompleted, op.Status)
	require.Equal(t, 100, op.Progress)
	require.False(t, op.CanUndo)

	list, _, _ := svc.List(ctx, ListParams{Statuses: []models.Status{models.StatusAlive}})
	require.Equal(t, []int64{1, 3}, recordIDs(list))

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, st.Total)
	require.Equal(t, 2, st.ByStatus[models.StatusAlive])
	require.Len(t, st.Top, 2)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reports, 1)
	require.Equal(t, 3, reports[0].Tested)
	require.Equal(t, 2, reports[0].Valid)
}

func TestTestBulk_RetriesFailedSubset(t *testing.T) {
	var calls sync.Map
	flaky := func(ctx context.Context, p models.ProxyRecord) (models.ValidationResult, error) {
		n, _ := calls.LoadOrStore(p.ID, new(int32))
		if atomic.AddInt32(n.(*int32), 1) == 1 && p.ID == 2 {
			return models.ValidationResult{}, errors.New("timeout")
		}
		return models.ValidationResult{Proxy: p, IsValid: true}, nil
	}
	svc := newTestService(t, flaky, Options{BatchSize: 3, RetryFailed: true, RetryCount: 2})

	op, err := svc.TestBulk(context.Background(), nil)
	require.NoError(t, err)
	waitDone(t, svc, op.ID)

	d, _ := svc.Get(context.Background(), 2)
	require.Equal(t, models.StatusAlive, d.Status)

	n, _ := calls.Load(int64(2))
	require.Equal(t, int32(2), atomic.LoadInt32(n.(*int32)))
	n, _ = calls.Load(int64(1))
	require.Equal(t, int32(1), atomic.LoadInt32(n.(*int32)), "passing proxies are not retried")
}

func TestTestBulk_Cancel(t *testing.T) {
	started := make(chan struct{}, 3)
	release := make(chan struct{})
	blocking := func(ctx context.Context, p models.ProxyRecord) (models.ValidationResult, error) {
		started <- struct{}{}
		<-release
		return models.ValidationResult{Proxy: p, IsValid: true}, nil
	}
	svc := newTestService(t, blocking, Options{BatchSize: 1})
	ctx := context.Background()

	op, err := svc.TestBulk(ctx, nil)
	require.NoError(t, err)
	<-started

	d, _ := svc.Get(ctx, 2)
	require.Equal(t, models.StatusTesting, d.Status)

	cancelled, err := svc.CancelOperation(op.ID)
	require.NoError(t, err)
	require.Equal(t, models.OpCancelled, cancelled.Status)
	_, err = svc.CancelOperation(op.ID)
	require.NoError(t, err)

	close(release)
	op = waitDone(t, svc, op.ID)
	require.Equal(t, models.OpCancelled, op.Status)
	require.Equal(t, 1, op.Processed)

	d, _ = svc.Get(ctx, 1)
	require.Equal(t, models.StatusAlive, d.Status, "the in-flight batch is still applied")
	d, _ = svc.Get(ctx, 2)
	require.Equal(t, models.StatusPending, d.Status, "untested proxies get their status back")
}

// errAfterFirst reports cancellation from the second Err call on, so the
// snapshot succeeds and the following dispatch fails.
type errAfterFirst struct {
	context.Context
	calls int32
}

func (c *errAfterFirst) Err() error {
	if atomic.AddInt32(&c.calls, 1) > 1 {
		return context.Canceled
	}
	return nil
}

func TestTestBulk_MarkFailsLeavesNoOperation(t *testing.T) {
	svc := newTestService(t, aliveOnEvenPort, Options{})

	_, err := svc.TestBulk(&errAfterFirst{Context: context.Background()}, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, svc.Operations())
	require.False(t, svc.Testing())

	d, _ := svc.Get(context.Background(), 1)
	require.Equal(t, models.StatusPending, d.Status)
}

func TestTestBulk_AfterClose(t *testing.T) {
	svc := newTestService(t, aliveOnEvenPort, Options{})
	svc.Close()

	_, err := svc.TestBulk(context.Background(), nil)
	require.ErrorIs(t, err, ErrClosed)
	require.Empty(t, svc.Operations())
}

func TestDetach(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(traceKey, "span")
	c.Set("user", "alice")

	d := detach(c)
	// the engine clears Keys when the context goes back to its pool
	c.Keys = nil

	require.Equal(t, "span", d.Value(traceKey))
	require.Nil(t, d.Value("user"))
	require.Nil(t, d.Done())
	require.Nil(t, detach(context.Background()).Value(traceKey))
}

func TestApplyResults(t *testing.T) {
	svc := newTestService(t, aliveOnEvenPort, Options{})
	n, err := svc.ApplyResults(context.Background(), []models.ValidationResult{
		{Proxy: models.ProxyRecord{ID: 2}, IsValid: true, Speed: models.Float64Ptr(512)},
		{Proxy: models.ProxyRecord{ID: 77}, IsValid: true},
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	d, _ := svc.Get(context.Background(), 2)
	require.Equal(t, models.StatusAlive, d.Status)
	require.Equal(t, 512.0, *d.Speed)
}

type fakeRepo struct {
	mu      sync.Mutex
	saved   map[int64]*models.Proxy
	deleted []int64
}

func (f *fakeRepo) ListAll() ([]*models.Proxy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Proxy, 0, len(f.saved))
	for _, p := range f.saved {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) SaveBatch(ps []*models.Proxy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range ps {
		f.saved[p.ID] = p
	}
	return nil
}

func (f *fakeRepo) Deletes(ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ids...)
	for _, id := range ids {
		delete(f.saved, id)
	}
	return nil
}

func TestPersister(t *testing.T) {
	fr := &fakeRepo{saved: map[int64]*models.Proxy{}}
	p := NewPersister(func() repo.ProxyRepo { return fr })

	svc, err := NewService(nil, aliveOnEvenPort, Options{}, WithListener(p.Listener()))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Add(ctx, []models.ProxyRecord{{Host: "1.1.1.1", Port: 80}, {Host: "2.2.2.2", Port: 81}})
	require.NoError(t, err)
	_, err = svc.TestOne(ctx, 1)
	require.NoError(t, err)
	_, err = svc.Delete(ctx, []int64{2})
	require.NoError(t, err)

	svc.Close()
	p.Close(ctx)

	rows, _ := fr.ListAll()
	require.Len(t, rows, 1)
	require.Equal(t, string(models.StatusAlive), rows[0].Status)
	require.Equal(t, []int64{2}, fr.deleted)

	loaded, err := LoadRecords(fr)
	require.NoError(t, err)
	require.Equal(t, "1.1.1.1", loaded[0].Host)
}

// gatedRepo blocks every SaveBatch until gate is closed.
type gatedRepo struct {
	*fakeRepo
	gate chan struct{}
}

func (g *gatedRepo) SaveBatch(ps []*models.Proxy) error {
	<-g.gate
	return g.fakeRepo.SaveBatch(ps)
}

func TestPersister_SlowRepoDoesNotBlockStore(t *testing.T) {
	gr := &gatedRepo{fakeRepo: &fakeRepo{saved: map[int64]*models.Proxy{}}, gate: make(chan struct{})}
	p := NewPersister(func() repo.ProxyRepo { return gr })

	svc, err := NewService(nil, aliveOnEvenPort, Options{}, WithListener(p.Listener()))
	require.NoError(t, err)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_, err := svc.Add(ctx, []models.ProxyRecord{{Host: "10.0.0.1", Port: 1000 + i}})
			require.NoError(t, err)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("store blocked behind the database writer")
	}

	_, err = svc.Delete(ctx, []int64{5})
	require.NoError(t, err)

	close(gr.gate)
	svc.Close()
	p.Close(ctx)

	rows, _ := gr.ListAll()
	require.Len(t, rows, 199)
	require.Equal(t, []int64{5}, gr.deleted)
}
