package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/maxliu9403/ProxyBoard/models"
)

const DefaultItemTimeout = 15 * time.Second

// TestFunc tests a single proxy. Errors and panics are converted into failed results.
type TestFunc func(ctx context.Context, p models.ProxyRecord) (models.ValidationResult, error)

type Progress struct {
	Batch     int `json:"Batch"`
	Batches   int `json:"Batches"`
	Completed int `json:"Completed"`
	Total     int `json:"Total"`
	Percent   int `json:"Percent"`
}

type Report struct {
	Results   []models.ValidationResult `json:"Results"`
	Completed int                       `json:"Completed"`
	Total     int                       `json:"Total"`
	Cancelled bool                      `json:"Cancelled"`
}

type Option func(*Runner)

// WithItemTimeout bounds every single test call, 0 disables the bound.
func WithItemTimeout(d time.Duration) Option {
	return func(r *Runner) { r.itemTimeout = d }
}

func WithProgress(fn func(Progress)) Option {
	return func(r *Runner) { r.onProgress = fn }
}

// WithBatchDone is called with every finished batch before the next one starts.
func WithBatchDone(fn func([]models.ValidationResult)) Option {
	return func(r *Runner) { r.onBatch = fn }
}

// Runner executes tests in consecutive batches of batchSize. All calls of a
// batch run concurrently and the next batch starts only after all of them
// returned.
type Runner struct {
	batchSize   int
	itemTimeout time.Duration
	onProgress  func(Progress)
	onBatch     func([]models.ValidationResult)

	once      sync.Once
	cancelled chan struct{}
}

func New(batchSize int, opts ...Option) *Runner {
	if batchSize < 1 {
		batchSize = 1
	}
	r := &Runner{
		batchSize:   batchSize,
		itemTimeout: DefaultItemTimeout,
		cancelled:   make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Cancel stops the run before the next batch. Calling it more than once is a no-op.
func (r *Runner) Cancel() {
	r.once.Do(func() { close(r.cancelled) })
}

func (r *Runner) Cancelled() bool {
	select {
	case <-r.cancelled:
		return true
	default:
		return false
	}
}

// Run tests items and returns results in input order for every batch that
// ran. Cancellation, either through Cancel or ctx, is checked only at batch
// boundaries; calls already in flight are allowed to finish.
func (r *Runner) Run(ctx context.Context, items []models.ProxyRecord, fn TestFunc) Report {
	total := len(items)
	rep := Report{Total: total, Results: make([]models.ValidationResult, 0, total)}

	batches := lo.Chunk(items, r.batchSize)
	if total == 0 {
		r.progress(Progress{Percent: 100})
		return rep
	}

	for i, batch := range batches {
		if r.Cancelled() || ctx.Err() != nil {
			rep.Cancelled = true
			break
		}

		out := make([]models.ValidationResult, len(batch))
		var g errgroup.Group
		for j, p := range batch {
			j, p := j, p
			g.Go(func() error {
				out[j] = r.runOne(ctx, p, fn)
				return nil
			})
		}
		_ = g.Wait()

		rep.Completed += len(batch)
		rep.Results = append(rep.Results, out...)

		if r.onBatch != nil {
			r.onBatch(out)
		}
		r.progress(Progress{
			Batch:     i + 1,
			Batches:   len(batches),
			Completed: rep.Completed,
			Total:     total,
			Percent:   Percent(rep.Completed, total),
		})
	}

	return rep
}

func (r *Runner) progress(p Progress) {
	if r.onProgress != nil {
		r.onProgress(p)
	}
}

func (r *Runner) runOne(ctx context.Context, p models.ProxyRecord, fn TestFunc) (res models.ValidationResult) {
	// 运行中的请求不随整体取消而中断，只受单项超时约束
	itemCtx := context.WithoutCancel(ctx)
	if r.itemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(itemCtx, r.itemTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			res = Failed(p, fmt.Errorf("panic: %v", rec), time.Since(start))
		}
	}()

	res, err := fn(itemCtx, p)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("test timed out after %s: %w", r.itemTimeout, err)
		}
		return Failed(p, err, time.Since(start))
	}
	if res.Proxy.ID == 0 && res.Proxy.Host == "" {
		res.Proxy = p
	}
	if res.TestTime == 0 {
		res.TestTime = time.Since(start).Milliseconds()
	}
	return res
}

// Failed builds the result recorded for a test call that returned an error.
func Failed(p models.ProxyRecord, err error, elapsed time.Duration) models.ValidationResult {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return models.ValidationResult{
		Proxy:        p,
		IsValid:      false,
		QualityScore: 0,
		TestTime:     elapsed.Milliseconds(),
		Error:        msg,
	}
}

// Percent is round(done/total*100); an empty run counts as complete.
func Percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
