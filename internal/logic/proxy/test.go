package proxy

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/maxliu9403/common/logger"

	"github.com/maxliu9403/ProxyBoard/internal/logic/bulk"
	"github.com/maxliu9403/ProxyBoard/internal/logic/reconcile"
	"github.com/maxliu9403/ProxyBoard/internal/logic/runner"
	"github.com/maxliu9403/ProxyBoard/internal/logic/store"
	"github.com/maxliu9403/ProxyBoard/models"
)

func (s *Service) newRunner(opts ...runner.Option) *runner.Runner {
	var base []runner.Option
	if s.opts.ItemTimeout > 0 {
		base = append(base, runner.WithItemTimeout(s.opts.ItemTimeout))
	}
	return runner.New(s.opts.BatchSize, append(base, opts...)...)
}

// TestOne tests a single proxy synchronously and applies the result.
func (s *Service) TestOne(ctx context.Context, id int64) (models.ValidationResult, error) {
	st, err := s.snapshot(ctx)
	if err != nil {
		return models.ValidationResult{}, err
	}
	rec, ok := st.Find(id)
	if !ok {
		return models.ValidationResult{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	if _, err = s.store.Dispatch(ctx, store.MarkedTesting{IDs: []int64{id}}); err != nil {
		return models.ValidationResult{}, err
	}

	// 请求结束后仍需写回结果
	bg := context.WithoutCancel(ctx)
	rep := s.newRunner().Run(ctx, []models.ProxyRecord{rec}, s.test)
	if len(rep.Results) == 0 {
		s.resetStatus(bg, []models.ProxyRecord{rec})
		return models.ValidationResult{}, ctx.Err()
	}

	res := rep.Results[0]
	if err = s.apply(bg, rep.Results, true); err != nil {
		return res, err
	}
	return res, nil
}

// TestBulk starts a background test of the selected proxies (all when ids is
// empty) and returns the running operation.
func (s *Service) TestBulk(ctx context.Context, ids []int64) (models.BulkOperation, error) {
	targets, err := s.selectIDs(ctx, ids)
	if err != nil {
		return models.BulkOperation{}, err
	}
	if len(targets) == 0 {
		return models.BulkOperation{}, ErrNoProxies
	}

	runCtx := detach(ctx)
	var (
		op       *bulk.Operation
		retrying bool
	)
	r := s.newRunner(
		runner.WithBatchDone(func(batch []models.ValidationResult) {
			if err := s.apply(runCtx, batch, true); err != nil {
				logger.ErrorfWithTrace(runCtx, "apply results of operation %s failed: %s", op.ID(), err.Error())
			}
		}),
		runner.WithProgress(func(p runner.Progress) {
			if !retrying {
				op.SetProgress(p.Completed)
			}
		}),
	)

	if !s.track() {
		return models.BulkOperation{}, ErrClosed
	}
	if _, err = s.store.Dispatch(ctx, store.MarkedTesting{IDs: recordIDs(targets)}); err != nil {
		s.wg.Done()
		return models.BulkOperation{}, err
	}

	// 标记成功后再登记操作
	op = s.ops.Start(models.OpTest, len(targets), r.Cancel)
	_ = op.Begin()
	snap := op.Snapshot()

	atomic.AddInt32(&s.testing, 1)
	go func() {
		defer s.wg.Done()
		defer atomic.AddInt32(&s.testing, -1)

		start := time.Now()
		rep := r.Run(runCtx, targets, s.test)
		results := rep.Results
		if !rep.Cancelled {
			retrying = true
			results = s.retry(runCtx, r, results)
		}

		s.resetUntested(runCtx, targets, results)
		s.finish(runCtx, op, results, time.Since(start))
	}()

	return snap, nil
}

// traceKey is where the gin tracing middleware stores the request span.
const traceKey = "opentracing-context"

// detach returns a context for work that outlives the request. Only the trace
// span is carried over; the request context itself is never read again.
func detach(ctx context.Context) context.Context {
	bg := context.Background()
	if v := ctx.Value(traceKey); v != nil {
		bg = context.WithValue(bg, traceKey, v)
	}
	return bg
}

// retry re-runs the failed subset up to RetryCount times. Later results
// replace earlier ones for the same proxy.
func (s *Service) retry(ctx context.Context, r *runner.Runner, results []models.ValidationResult) []models.ValidationResult {
	if !s.opts.RetryFailed {
		return results
	}

	pos := make(map[int64]int, len(results))
	for i, res := range results {
		pos[res.Proxy.ID] = i
	}

	for attempt := 1; attempt <= s.opts.RetryCount; attempt++ {
		failed := reconcile.Failed(results)
		if len(failed) == 0 || r.Cancelled() {
			break
		}
		logger.Debugf("retry %d: %d failed proxies", attempt, len(failed))

		rep := r.Run(ctx, failed, s.test)
		for _, res := range rep.Results {
			if i, ok := pos[res.Proxy.ID]; ok {
				results[i] = res
			}
		}
		if rep.Cancelled {
			break
		}
	}
	return results
}

// resetUntested gives proxies skipped by a cancelled run their previous status back.
func (s *Service) resetUntested(ctx context.Context, targets []models.ProxyRecord, results []models.ValidationResult) {
	tested := make(map[int64]struct{}, len(results))
	for _, r := range results {
		tested[r.Proxy.ID] = struct{}{}
	}

	var untested []models.ProxyRecord
	for _, t := range targets {
		if _, ok := tested[t.ID]; !ok {
			untested = append(untested, t)
		}
	}
	s.resetStatus(ctx, untested)
}

func (s *Service) resetStatus(ctx context.Context, records []models.ProxyRecord) {
	byStatus := make(map[models.Status][]int64)
	for _, r := range records {
		byStatus[r.Status] = append(byStatus[r.Status], r.ID)
	}
	for st, ids := range byStatus {
		st := st
		if _, err := s.store.Dispatch(ctx, store.Updated{IDs: ids, Patch: store.Patch{Status: &st}}); err != nil {
			logger.ErrorfWithTrace(ctx, "reset status of %d proxies failed: %s", len(ids), err.Error())
		}
	}
}

func (s *Service) finish(ctx context.Context, op *bulk.Operation, results []models.ValidationResult, took time.Duration) {
	// 已取消的操作保持 cancelled
	_ = op.Complete(nil)

	summary := reconcile.Summarize(results, took)
	snap := op.Snapshot()
	logger.InfofWithTrace(ctx, "operation %s %s: tested %d, valid %d, took %dms",
		snap.ID, snap.Status, summary.Tested, summary.Valid, summary.DurationMs)

	for _, report := range s.reporters {
		report(ctx, snap, summary)
	}
}
