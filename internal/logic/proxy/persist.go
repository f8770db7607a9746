package proxy

import (
	"context"
	"sort"
	"sync"

	"github.com/maxliu9403/common/logger"
	"github.com/samber/lo"

	"github.com/maxliu9403/ProxyBoard/internal/logic/store"
	"github.com/maxliu9403/ProxyBoard/models"
	"github.com/maxliu9403/ProxyBoard/models/repo"
)

// Persister mirrors committed store events into the database on its own
// goroutine. "testing" marks are transient and never written.
//
// The listener never blocks the store: changes accumulate in a pending set,
// keyed by ID, that the writer drains. A slow database only delays the mirror.
type Persister struct {
	repo func() repo.ProxyRepo

	mu      sync.Mutex
	save    map[int64]models.ProxyRecord
	remove  map[int64]struct{}
	wake    chan struct{}
	closing chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewPersister(newRepo func() repo.ProxyRepo) *Persister {
	p := &Persister{
		repo:    newRepo,
		save:    map[int64]models.ProxyRecord{},
		remove:  map[int64]struct{}{},
		wake:    make(chan struct{}, 1),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.loop()
	return p
}

// LoadRecords reads the persisted collection.
func LoadRecords(r repo.ProxyRepo) ([]models.ProxyRecord, error) {
	rows, err := r.ListAll()
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(p *models.Proxy, _ int) models.ProxyRecord { return p.ToRecord() }), nil
}

// Listener is registered on the store with WithListener.
func (p *Persister) Listener() store.Listener {
	return func(ev store.Event, st store.State) {
		var (
			save   []models.ProxyRecord
			remove []int64
		)
		switch e := ev.(type) {
		case store.Added:
			save = st.Proxies[len(st.Proxies)-len(e.Records):]
		case store.Restored:
			save = st.Select(recordIDs(e.Records))
		case store.Reverted:
			save = st.Select(lo.Keys(e.Patches))
		case store.Updated:
			save = st.Select(e.IDs)
		case store.ResultsApplied:
			save = st.Select(lo.Map(e.Results, func(r models.ValidationResult, _ int) int64 { return r.Proxy.ID }))
		case store.Removed:
			remove = e.IDs
		default:
			return
		}
		if len(save) == 0 && len(remove) == 0 {
			return
		}
		logger.Debugf("persist %s: save %d, remove %d", store.EventName(ev), len(save), len(remove))

		p.mu.Lock()
		for _, id := range remove {
			delete(p.save, id)
			p.remove[id] = struct{}{}
		}
		for _, r := range save {
			p.save[r.ID] = r
		}
		p.mu.Unlock()

		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
}

// take swaps out the pending set. Removals run before saves, so a record
// deleted and then restored ends up saved.
func (p *Persister) take() ([]int64, []models.ProxyRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	remove := lo.Keys(p.remove)
	save := lo.Values(p.save)
	p.remove = map[int64]struct{}{}
	p.save = map[int64]models.ProxyRecord{}

	sort.Slice(remove, func(i, j int) bool { return remove[i] < remove[j] })
	sort.Slice(save, func(i, j int) bool { return save[i].ID < save[j].ID })
	return remove, save
}

func (p *Persister) flush() {
	remove, save := p.take()
	if len(remove) == 0 && len(save) == 0 {
		return
	}

	r := p.repo()
	if len(remove) > 0 {
		if err := r.Deletes(remove); err != nil {
			logger.Errorf("delete %d proxies failed: %s", len(remove), err.Error())
		}
	}
	if len(save) > 0 {
		rows := lo.Map(save, func(rec models.ProxyRecord, _ int) *models.Proxy { return models.ProxyFromRecord(rec) })
		if err := r.SaveBatch(rows); err != nil {
			logger.Errorf("save %d proxies failed: %s", len(rows), err.Error())
		}
	}
}

func (p *Persister) loop() {
	defer close(p.done)

	for {
		select {
		case <-p.wake:
			p.flush()
		case <-p.closing:
			p.flush()
			return
		}
	}
}

// Close flushes pending writes. The store must be stopped first.
func (p *Persister) Close(ctx context.Context) {
	p.once.Do(func() { close(p.closing) })
	select {
	case <-p.done:
	case <-ctx.Done():
		logger.Errorf("persister close: %s", ctx.Err())
	}
}
