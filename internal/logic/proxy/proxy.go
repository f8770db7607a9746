package proxy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maxliu9403/common/logger"

	"github.com/maxliu9403/ProxyBoard/internal/logic/bulk"
	"github.com/maxliu9403/ProxyBoard/internal/logic/health"
	"github.com/maxliu9403/ProxyBoard/internal/logic/reconcile"
	"github.com/maxliu9403/ProxyBoard/internal/logic/runner"
	"github.com/maxliu9403/ProxyBoard/internal/logic/store"
	"github.com/maxliu9403/ProxyBoard/models"
)

var (
	ErrNotFound     = errors.New("proxy not found")
	ErrNoProxies    = errors.New("no proxies selected")
	ErrInvalidQuery = errors.New("invalid query")
	ErrClosed       = errors.New("service closed")
)

const (
	DefaultBatchSize    = 10
	DefaultLeaderboardK = 5
)

type Options struct {
	BatchSize    int
	ItemTimeout  time.Duration
	RetryFailed  bool
	RetryCount   int
	LeaderboardK int
	MaxKeptOps   int
	StrictIPv4   bool
}

// ResultSink receives every applied batch of results, e.g. a kafka publisher.
type ResultSink func(ctx context.Context, results []models.ValidationResult)

// RunReporter is called once per finished bulk test.
type RunReporter func(ctx context.Context, op models.BulkOperation, summary reconcile.RunSummary)

type Option func(*Service)

// WithListener observes committed store events, used by the persister.
func WithListener(l store.Listener) Option {
	return func(s *Service) { s.listeners = append(s.listeners, l) }
}

func WithResultSink(sink ResultSink) Option {
	return func(s *Service) { s.sinks = append(s.sinks, sink) }
}

func WithRunReporter(r RunReporter) Option {
	return func(s *Service) { s.reporters = append(s.reporters, r) }
}

// Service 持有代理集合，所有写操作经由 store.Controller 串行化
type Service struct {
	opts      Options
	test      runner.TestFunc
	store     *store.Controller
	health    *health.Tracker
	ops       *bulk.Manager
	listeners []store.Listener
	sinks     []ResultSink
	reporters []RunReporter

	testing int32
	mu      sync.Mutex
	closed  bool
	wg      sync.WaitGroup
}

// NewService starts the store with the given records. Records left in
// "testing" by an interrupted run are reset to pending.
func NewService(initial []models.ProxyRecord, test runner.TestFunc, opts Options, options ...Option) (*Service, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.LeaderboardK <= 0 {
		opts.LeaderboardK = DefaultLeaderboardK
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	}

	s := &Service{
		opts:   opts,
		test:   test,
		health: health.NewTracker(),
		ops:    bulk.NewManager(opts.MaxKeptOps),
	}
	for _, o := range options {
		o(s)
	}

	records := make([]models.ProxyRecord, len(initial))
	for i, r := range initial {
		if r.Status == models.StatusTesting {
			r.Status = models.StatusPending
		}
		records[i] = r
	}
	st, err := store.Reduce(store.State{}, store.Restored{Records: records})
	if err != nil {
		return nil, fmt.Errorf("load proxies: %w", err)
	}

	s.store = store.NewController(st, s.listeners...)
	return s, nil
}

// Close rejects new bulk tests, cancels running operations, waits for them
// and stops the store.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	for _, op := range s.ops.List() {
		if op.Status == models.OpRunning {
			if o, err := s.ops.Get(op.ID); err == nil {
				_ = o.Cancel()
			}
		}
	}
	s.wg.Wait()
	s.store.Stop()
}

// Testing reports whether a bulk test is in progress.
func (s *Service) Testing() bool {
	return atomic.LoadInt32(&s.testing) > 0
}

// track registers a background run unless the service is closing.
func (s *Service) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Service) snapshot(ctx context.Context) (store.State, error) {
	return s.store.Snapshot(ctx)
}

// Detail 代理详情，附带滚动健康指标
type Detail struct {
	models.ProxyRecord
	Health *health.Metrics `json:"Health,omitempty"`
}

func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	st, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := st.Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	d := &Detail{ProxyRecord: rec}
	if m, ok := s.health.Get(id); ok {
		d.Health = &m
	}
	return d, nil
}

func (s *Service) Stats(ctx context.Context) (reconcile.Stats, error) {
	st, err := s.snapshot(ctx)
	if err != nil {
		return reconcile.Stats{}, err
	}
	return reconcile.Aggregate(st.Proxies, s.health.Snapshot(), s.opts.LeaderboardK), nil
}

// ApplyResults reconciles results produced elsewhere, e.g. by another instance.
// Results for unknown IDs are ignored.
func (s *Service) ApplyResults(ctx context.Context, results []models.ValidationResult) (int, error) {
	st, err := s.snapshot(ctx)
	if err != nil {
		return 0, err
	}

	known := make([]models.ValidationResult, 0, len(results))
	for _, r := range results {
		if _, ok := st.Find(r.Proxy.ID); ok {
			known = append(known, r)
		}
	}
	if len(known) == 0 {
		return 0, nil
	}

	if err = s.apply(ctx, known, false); err != nil {
		return 0, err
	}
	return len(known), nil
}

// apply commits results, feeds the health tracker and, when publish is set,
// the result sinks.
func (s *Service) apply(ctx context.Context, results []models.ValidationResult, publish bool) error {
	now := time.Now()
	if _, err := s.store.Dispatch(ctx, store.ResultsApplied{Results: results, At: now}); err != nil {
		return err
	}
	for _, r := range results {
		s.health.Observe(r, now)
	}
	if publish {
		for _, sink := range s.sinks {
			sink(ctx, results)
		}
	}
	logger.Debugf("applied %d results", len(results))
	return nil
}
