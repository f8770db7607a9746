package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/maxliu9403/ProxyBoard/internal/logic/reconcile"
	"github.com/maxliu9403/ProxyBoard/models"
)

var (
	ErrInvalidRecord = errors.New("invalid proxy record")
	ErrDuplicate     = errors.New("duplicate proxy")
)

// State is immutable once committed: reducers never modify the slice they
// receive and always return a fresh one.
type State struct {
	Proxies []models.ProxyRecord
	NextID  int64
}

func (s State) Find(id int64) (models.ProxyRecord, bool) {
	return lo.Find(s.Proxies, func(p models.ProxyRecord) bool { return p.ID == id })
}

// Select returns the records with the given IDs in collection order.
func (s State) Select(ids []int64) []models.ProxyRecord {
	set := lo.Associate(ids, func(id int64) (int64, struct{}) { return id, struct{}{} })
	return lo.Filter(s.Proxies, func(p models.ProxyRecord, _ int) bool {
		_, ok := set[p.ID]
		return ok
	})
}

type Event interface {
	eventName() string
}

// Added appends new records and assigns them IDs. A host:port already in the
// collection, or repeated in Records, rejects the whole event with ErrDuplicate.
type Added struct {
	Records []models.ProxyRecord
}

// Restored puts records back with their original IDs (undo, load from storage).
type Restored struct {
	Records []models.ProxyRecord
}

type Removed struct {
	IDs []int64
}

// Patch 为 nil 的字段保持不变
type Patch struct {
	Host     *string           `json:"Host,omitempty"`
	Port     *int              `json:"Port,omitempty"`
	Username *string           `json:"Username,omitempty"`
	Password *string           `json:"Password,omitempty"`
	Type     *models.ProxyType `json:"Type,omitempty"`
	Status   *models.Status    `json:"Status,omitempty"`
	Notes    *string           `json:"Notes,omitempty"`
	Group    *string           `json:"Group,omitempty"`
}

type Updated struct {
	IDs   []int64
	Patch Patch
}

// Reverted applies a per-record patch holding the values an update overwrote.
// Fields outside each patch, such as later test results, are kept.
type Reverted struct {
	Patches map[int64]Patch
}

type MarkedTesting struct {
	IDs []int64
}

type ResultsApplied struct {
	Results []models.ValidationResult
	At      time.Time
}

func (Added) eventName() string          { return "added" }
func (Restored) eventName() string       { return "restored" }
func (Removed) eventName() string        { return "removed" }
func (Updated) eventName() string        { return "updated" }
func (Reverted) eventName() string       { return "reverted" }
func (MarkedTesting) eventName() string  { return "marked_testing" }
func (ResultsApplied) eventName() string { return "results_applied" }

// EventName is used for logging.
func EventName(ev Event) string {
	if ev == nil {
		return "snapshot"
	}
	return ev.eventName()
}

// Reduce applies ev to s. On error s is returned unchanged.
func Reduce(s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case Added:
		return reduceAdded(s, e)
	case Restored:
		return reduceRestored(s, e)
	case Removed:
		return reduceRemoved(s, e), nil
	case Updated:
		return reduceUpdated(s, e)
	case Reverted:
		return reduceReverted(s, e)
	case MarkedTesting:
		return reduceMarkedTesting(s, e), nil
	case ResultsApplied:
		return State{Proxies: reconcile.Apply(s.Proxies, e.Results, e.At), NextID: s.NextID}, nil
	case nil:
		return s, nil
	default:
		return s, fmt.Errorf("unknown event %T", ev)
	}
}

func normalize(r models.ProxyRecord) (models.ProxyRecord, error) {
	r.Host = strings.TrimSpace(r.Host)
	if r.Host == "" {
		return r, fmt.Errorf("%w: empty host", ErrInvalidRecord)
	}
	if r.Port < 1 || r.Port > 65535 {
		return r, fmt.Errorf("%w: port %d out of range", ErrInvalidRecord, r.Port)
	}
	if r.Type == "" {
		r.Type = models.TypeHTTP
	}
	if !r.Type.Valid() {
		return r, fmt.Errorf("%w: type %q", ErrInvalidRecord, r.Type)
	}
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	if !r.Status.Valid() {
		return r, fmt.Errorf("%w: status %q", ErrInvalidRecord, r.Status)
	}
	return r, nil
}

func reduceAdded(s State, e Added) (State, error) {
	next := State{Proxies: make([]models.ProxyRecord, len(s.Proxies), len(s.Proxies)+len(e.Records)), NextID: s.NextID}
	copy(next.Proxies, s.Proxies)

	keys := lo.Associate(s.Proxies, func(p models.ProxyRecord) (string, struct{}) { return p.Key(), struct{}{} })
	for _, r := range e.Records {
		r, err := normalize(r)
		if err != nil {
			return s, err
		}
		if _, dup := keys[r.Key()]; dup {
			return s, fmt.Errorf("%w: %s", ErrDuplicate, r.Key())
		}
		keys[r.Key()] = struct{}{}
		next.NextID++
		r.ID = next.NextID
		next.Proxies = append(next.Proxies, r)
	}
	return next, nil
}

func reduceRestored(s State, e Restored) (State, error) {
	next := State{Proxies: make([]models.ProxyRecord, len(s.Proxies)), NextID: s.NextID}
	copy(next.Proxies, s.Proxies)

	index := make(map[int64]int, len(next.Proxies))
	for i, p := range next.Proxies {
		index[p.ID] = i
	}

	for _, r := range e.Records {
		if r.ID <= 0 {
			return s, fmt.Errorf("%w: restored record without id", ErrInvalidRecord)
		}
		r, err := normalize(r)
		if err != nil {
			return s, err
		}
		if i, ok := index[r.ID]; ok {
			next.Proxies[i] = r
		} else {
			index[r.ID] = len(next.Proxies)
			next.Proxies = append(next.Proxies, r)
		}
		if r.ID > next.NextID {
			next.NextID = r.ID
		}
	}
	return next, nil
}

func reduceRemoved(s State, e Removed) State {
	drop := lo.Associate(e.IDs, func(id int64) (int64, struct{}) { return id, struct{}{} })
	return State{
		Proxies: lo.Reject(s.Proxies, func(p models.ProxyRecord, _ int) bool {
			_, ok := drop[p.ID]
			return ok
		}),
		NextID: s.NextID,
	}
}

func reduceUpdated(s State, e Updated) (State, error) {
	targets := lo.Associate(e.IDs, func(id int64) (int64, struct{}) { return id, struct{}{} })
	next := State{Proxies: make([]models.ProxyRecord, len(s.Proxies)), NextID: s.NextID}

	for i, p := range s.Proxies {
		if _, ok := targets[p.ID]; ok {
			patched, err := normalize(e.Patch.apply(p))
			if err != nil {
				return s, err
			}
			p = patched
		}
		next.Proxies[i] = p
	}
	return next, nil
}

// records removed since the update are skipped
func reduceReverted(s State, e Reverted) (State, error) {
	next := State{Proxies: make([]models.ProxyRecord, len(s.Proxies)), NextID: s.NextID}

	for i, p := range s.Proxies {
		if patch, ok := e.Patches[p.ID]; ok {
			reverted, err := normalize(patch.apply(p))
			if err != nil {
				return s, err
			}
			p = reverted
		}
		next.Proxies[i] = p
	}
	return next, nil
}

func reduceMarkedTesting(s State, e MarkedTesting) State {
	targets := lo.Associate(e.IDs, func(id int64) (int64, struct{}) { return id, struct{}{} })
	return State{
		Proxies: lo.Map(s.Proxies, func(p models.ProxyRecord, _ int) models.ProxyRecord {
			if _, ok := targets[p.ID]; ok {
				p.Status = models.StatusTesting
			}
			return p
		}),
		NextID: s.NextID,
	}
}

func (p Patch) apply(r models.ProxyRecord) models.ProxyRecord {
	if p.Host != nil {
		r.Host = *p.Host
	}
	if p.Port != nil {
		r.Port = *p.Port
	}
	if p.Username != nil {
		r.Username = *p.Username
	}
	if p.Password != nil {
		r.Password = *p.Password
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	if p.Group != nil {
		r.Group = *p.Group
	}
	return r
}

// Inverse returns a patch touching the same fields as p, holding r's current
// values. Applying it to the patched record undoes p and nothing else.
func (p Patch) Inverse(r models.ProxyRecord) Patch {
	var inv Patch
	if p.Host != nil {
		inv.Host = lo.ToPtr(r.Host)
	}
	if p.Port != nil {
		inv.Port = lo.ToPtr(r.Port)
	}
	if p.Username != nil {
		inv.Username = lo.ToPtr(r.Username)
	}
	if p.Password != nil {
		inv.Password = lo.ToPtr(r.Password)
	}
	if p.Type != nil {
		inv.Type = lo.ToPtr(r.Type)
	}
	if p.Status != nil {
		inv.Status = lo.ToPtr(r.Status)
	}
	if p.Notes != nil {
		inv.Notes = lo.ToPtr(r.Notes)
	}
	if p.Group != nil {
		inv.Group = lo.ToPtr(r.Group)
	}
	return inv
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}
