package bulk

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/maxliu9403/ProxyBoard/models"
)

const DefaultMaxKept = 100

// Manager 记录批量操作，超过上限时淘汰最早结束的操作
type Manager struct {
	mu      sync.RWMutex
	ops     map[string]*Operation
	seq     int64
	maxKept int
}

func NewManager(maxKept int) *Manager {
	if maxKept <= 0 {
		maxKept = DefaultMaxKept
	}
	return &Manager{ops: make(map[string]*Operation), maxKept: maxKept}
}

// Start registers a pending operation. cancel is invoked when the operation is
// cancelled while running and may be nil.
func (m *Manager) Start(typ models.OperationType, total int, cancel func()) *Operation {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	op := &Operation{
		op: models.BulkOperation{
			ID:     uuid.New().String(),
			Type:   typ,
			Status: models.OpPending,
			Total:  total,
		},
		cancel: cancel,
		seq:    m.seq,
	}
	m.ops[op.op.ID] = op
	m.prune()
	return op
}

func (m *Manager) Get(id string) (*Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	op, ok := m.ops[id]
	if !ok {
		return nil, ErrNotFound
	}
	return op, nil
}

// List returns snapshots, newest first.
func (m *Manager) List() []models.BulkOperation {
	m.mu.RLock()
	ops := make([]*Operation, 0, len(m.ops))
	for _, op := range m.ops {
		ops = append(ops, op)
	}
	m.mu.RUnlock()

	sort.Slice(ops, func(i, j int) bool { return ops[i].seq > ops[j].seq })

	out := make([]models.BulkOperation, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.Snapshot())
	}
	return out
}

// Remove deletes a finished operation.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	op, ok := m.ops[id]
	if !ok {
		return ErrNotFound
	}
	if !op.Snapshot().Status.Terminal() {
		return ErrNotTerminal
	}
	delete(m.ops, id)
	return nil
}

// prune must be called with m.mu held.
func (m *Manager) prune() {
	if len(m.ops) <= m.maxKept {
		return
	}

	var finished []*Operation
	for _, op := range m.ops {
		if op.Snapshot().Status.Terminal() {
			finished = append(finished, op)
		}
	}
	sort.Slice(finished, func(i, j int) bool { return finished[i].seq < finished[j].seq })

	for _, op := range finished {
		if len(m.ops) <= m.maxKept {
			return
		}
		delete(m.ops, op.op.ID)
	}
}
