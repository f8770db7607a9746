package bulk

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/maxliu9403/ProxyBoard/models"
)

var (
	ErrNotFound    = errors.New("operation not found")
	ErrNotPending  = errors.New("operation is not pending")
	ErrNotRunning  = errors.New("operation is not running")
	ErrTerminal    = errors.New("operation already finished")
	ErrNotTerminal = errors.New("operation still in progress")
	ErrNotUndoable = errors.New("operation cannot be undone")
)

// UndoFunc re-applies the snapshot taken before the operation mutated state.
type UndoFunc func(ctx context.Context) error

// Operation 状态机: pending -> running -> {completed | error | cancelled}
type Operation struct {
	mu     sync.Mutex
	op     models.BulkOperation
	cancel func()
	undo   UndoFunc
	seq    int64
}

func (o *Operation) ID() string {
	return o.op.ID
}

func (o *Operation) Snapshot() models.BulkOperation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.op
}

func (o *Operation) Begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.op.Status != models.OpPending {
		return fmt.Errorf("%w: %s", ErrNotPending, o.op.Status)
	}
	now := time.Now()
	o.op.Status = models.OpRunning
	o.op.StartTime = &now
	return nil
}

// SetProgress records processed items. Calls after a cancel still count the
// batch that was in flight; other terminal states ignore it.
func (o *Operation) SetProgress(processed int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.op.Status != models.OpRunning && o.op.Status != models.OpCancelled {
		return
	}
	if processed > o.op.Total {
		processed = o.op.Total
	}
	o.op.Processed = processed
	o.op.Progress = percent(processed, o.op.Total)
}

// Complete finishes a running operation. A non-nil undo makes it undoable.
func (o *Operation) Complete(undo UndoFunc) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.op.Status != models.OpRunning {
		return o.stateErr()
	}
	o.finish(models.OpCompleted)
	o.op.Processed = o.op.Total
	o.op.Progress = 100
	o.undo = undo
	o.op.CanUndo = undo != nil
	return nil
}

func (o *Operation) Fail(err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.op.Status != models.OpRunning {
		return o.stateErr()
	}
	o.finish(models.OpError)
	if err != nil {
		o.op.Error = err.Error()
	}
	return nil
}

// Cancel is only valid while running; cancelling twice is a no-op.
func (o *Operation) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.op.Status {
	case models.OpCancelled:
		return nil
	case models.OpRunning:
		o.finish(models.OpCancelled)
		if o.cancel != nil {
			o.cancel()
		}
		return nil
	case models.OpPending:
		return fmt.Errorf("%w: %s", ErrNotRunning, o.op.Status)
	case models.OpCompleted, models.OpError:
		return fmt.Errorf("%w: %s", ErrTerminal, o.op.Status)
	}
	return fmt.Errorf("%w: %s", ErrNotRunning, o.op.Status)
}

// Undo runs the undo snapshot once. A failed undo keeps the operation undoable.
func (o *Operation) Undo(ctx context.Context) error {
	o.mu.Lock()
	if !o.op.Status.Terminal() {
		o.mu.Unlock()
		return ErrNotTerminal
	}
	if !o.op.CanUndo || o.undo == nil {
		o.mu.Unlock()
		return ErrNotUndoable
	}
	undo := o.undo
	o.op.CanUndo = false
	o.undo = nil
	o.mu.Unlock()

	if err := undo(ctx); err != nil {
		o.mu.Lock()
		o.op.CanUndo = true
		o.undo = undo
		o.mu.Unlock()
		return fmt.Errorf("undo %s: %w", o.op.ID, err)
	}
	return nil
}

func (o *Operation) finish(st models.OperationStatus) {
	now := time.Now()
	o.op.Status = st
	o.op.EndTime = &now
}

func (o *Operation) stateErr() error {
	if o.op.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminal, o.op.Status)
	}
	return fmt.Errorf("%w: %s", ErrNotRunning, o.op.Status)
}

func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
