package proxy

import (
	"context"
	"errors"
	"fmt"

	"github.com/maxliu9403/common/logger"

	"github.com/maxliu9403/ProxyBoard/internal/logic/bulk"
	"github.com/maxliu9403/ProxyBoard/internal/logic/store"
	"github.com/maxliu9403/ProxyBoard/models"
)

// selectIDs resolves the target records; empty ids selects everything.
func (s *Service) selectIDs(ctx context.Context, ids []int64) ([]models.ProxyRecord, error) {
	st, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return st.Proxies, nil
	}
	return st.Select(ids), nil
}

func recordIDs(records []models.ProxyRecord) []int64 {
	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// Update patches the selected records. The operation can be undone once,
// restoring only the fields the patch wrote.
func (s *Service) Update(ctx context.Context, ids []int64, patch store.Patch) (models.BulkOperation, error) {
	if patch.Empty() {
		return models.BulkOperation{}, fmt.Errorf("%w: empty patch", ErrInvalidQuery)
	}
	if len(ids) == 0 {
		return models.BulkOperation{}, ErrNoProxies
	}
	before, err := s.selectIDs(ctx, ids)
	if err != nil {
		return models.BulkOperation{}, err
	}
	if len(before) == 0 {
		return models.BulkOperation{}, ErrNoProxies
	}

	op := s.ops.Start(models.OpUpdate, len(before), nil)
	_ = op.Begin()

	if _, err = s.store.Dispatch(ctx, store.Updated{IDs: recordIDs(before), Patch: patch}); err != nil {
		_ = op.Fail(err)
		return op.Snapshot(), err
	}

	inverse := make(map[int64]store.Patch, len(before))
	for _, r := range before {
		inverse[r.ID] = patch.Inverse(r)
	}
	_ = op.Complete(func(ctx context.Context) error {
		_, err := s.store.Dispatch(ctx, store.Reverted{Patches: inverse})
		return err
	})
	return op.Snapshot(), nil
}

// Delete removes the selected records; undo puts them back with their IDs.
func (s *Service) Delete(ctx context.Context, ids []int64) (models.BulkOperation, error) {
	if len(ids) == 0 {
		return models.BulkOperation{}, ErrNoProxies
	}
	before, err := s.selectIDs(ctx, ids)
	if err != nil {
		return models.BulkOperation{}, err
	}
	if len(before) == 0 {
		return models.BulkOperation{}, ErrNoProxies
	}

	op := s.ops.Start(models.OpDelete, len(before), nil)
	_ = op.Begin()

	removed := recordIDs(before)
	if _, err = s.store.Dispatch(ctx, store.Removed{IDs: removed}); err != nil {
		_ = op.Fail(err)
		return op.Snapshot(), err
	}
	s.health.Forget(removed...)

	_ = op.Complete(func(ctx context.Context) error {
		_, err := s.store.Dispatch(ctx, store.Restored{Records: before})
		return err
	})
	return op.Snapshot(), nil
}

type ExportResult struct {
	Operation models.BulkOperation `json:"Operation"`
	Records   []models.ProxyRecord `json:"Records"`
}

// Export snapshots the selected records; file formats are left to the client.
func (s *Service) Export(ctx context.Context, ids []int64) (*ExportResult, error) {
	records, err := s.selectIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	op := s.ops.Start(models.OpExport, len(records), nil)
	_ = op.Begin()
	_ = op.Complete(nil)
	return &ExportResult{Operation: op.Snapshot(), Records: records}, nil
}

func (s *Service) Operations() []models.BulkOperation {
	return s.ops.List()
}

func (s *Service) Operation(id string) (models.BulkOperation, error) {
	op, err := s.ops.Get(id)
	if err != nil {
		return models.BulkOperation{}, err
	}
	return op.Snapshot(), nil
}

// CancelOperation stops a running bulk test after its current batch.
func (s *Service) CancelOperation(id string) (models.BulkOperation, error) {
	op, err := s.ops.Get(id)
	if err != nil {
		return models.BulkOperation{}, err
	}
	if err = op.Cancel(); err != nil {
		return op.Snapshot(), err
	}
	logger.Info(fmt.Sprintf("operation %s cancelled", id))
	return op.Snapshot(), nil
}

func (s *Service) UndoOperation(ctx context.Context, id string) (models.BulkOperation, error) {
	op, err := s.ops.Get(id)
	if err != nil {
		return models.BulkOperation{}, err
	}
	if err = op.Undo(ctx); err != nil {
		return op.Snapshot(), err
	}
	return op.Snapshot(), nil
}

func (s *Service) RemoveOperation(id string) error {
	return s.ops.Remove(id)
}

// IsOperationStateErr reports errors caused by an invalid operation transition.
func IsOperationStateErr(err error) bool {
	for _, target := range []error{bulk.ErrNotPending, bulk.ErrNotRunning, bulk.ErrTerminal, bulk.ErrNotTerminal, bulk.ErrNotUndoable} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
