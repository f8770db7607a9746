package proxy

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/maxliu9403/ProxyBoard/internal/logic/parser"
	"github.com/maxliu9403/ProxyBoard/internal/logic/store"
	"github.com/maxliu9403/ProxyBoard/internal/types"
	"github.com/maxliu9403/ProxyBoard/models"
)

type ListParams struct {
	types.Page
	Statuses    []models.Status    `json:"Statuses" binding:"omitempty,dive,proxystatus"`
	Types       []models.ProxyType `json:"Types" binding:"omitempty,dive,proxytype"`
	Anonymities []models.Anonymity `json:"Anonymities" binding:"omitempty,dive,anonymity"`
	Countries   []string           `json:"Countries"`
	Groups      []string           `json:"Groups"`
}

func (q ListParams) validate() error {
	for _, v := range q.Statuses {
		if !v.Valid() {
			return fmt.Errorf("%w: status %q", ErrInvalidQuery, v)
		}
	}
	for _, v := range q.Types {
		if !v.Valid() {
			return fmt.Errorf("%w: type %q", ErrInvalidQuery, v)
		}
	}
	for _, v := range q.Anonymities {
		if !v.Valid() {
			return fmt.Errorf("%w: anonymity %q", ErrInvalidQuery, v)
		}
	}
	return nil
}

func set[T comparable](vals []T) map[T]struct{} {
	return lo.Associate(vals, func(v T) (T, struct{}) { return v, struct{}{} })
}

func (q ListParams) match() func(models.ProxyRecord, int) bool {
	ids := set(q.IDList)
	statuses := set(q.Statuses)
	typs := set(q.Types)
	anons := set(q.Anonymities)
	countries := set(lo.Map(q.Countries, func(c string, _ int) string { return strings.ToLower(c) }))
	groups := set(q.Groups)
	keyword := strings.ToLower(strings.TrimSpace(q.Keyword))

	in := func(m map[string]struct{}, v string) bool {
		_, ok := m[v]
		return ok
	}

	return func(p models.ProxyRecord, _ int) bool {
		if len(ids) > 0 {
			if _, ok := ids[p.ID]; !ok {
				return false
			}
		}
		if len(statuses) > 0 {
			if _, ok := statuses[p.Status]; !ok {
				return false
			}
		}
		if len(typs) > 0 {
			if _, ok := typs[p.Type]; !ok {
				return false
			}
		}
		if len(anons) > 0 {
			anon := p.Anonymity
			if anon == "" {
				anon = models.AnonymityUnknown
			}
			if _, ok := anons[anon]; !ok {
				return false
			}
		}
		if len(countries) > 0 && !in(countries, strings.ToLower(p.Country)) {
			return false
		}
		if len(groups) > 0 && !in(groups, p.Group) {
			return false
		}
		if keyword != "" {
			fields := []string{p.Host, p.Username, p.Country, p.City, p.Notes, p.Group, p.PublicIP}
			return lo.SomeBy(fields, func(f string) bool { return strings.Contains(strings.ToLower(f), keyword) })
		}
		return true
	}
}

// 可排序字段，升序时 nil 指标排在最后
var orderKeys = map[string]func(a, b models.ProxyRecord) int{
	"id":   func(a, b models.ProxyRecord) int { return cmp.Compare(a.ID, b.ID) },
	"host": func(a, b models.ProxyRecord) int { return strings.Compare(a.Key(), b.Key()) },
	"ping": func(a, b models.ProxyRecord) int {
		return cmpNil(a.Ping == nil, b.Ping == nil, func() int { return cmp.Compare(*a.Ping, *b.Ping) })
	},
	"speed": func(a, b models.ProxyRecord) int {
		return cmpNil(a.Speed == nil, b.Speed == nil, func() int { return cmp.Compare(*a.Speed, *b.Speed) })
	},
	"lasttested": func(a, b models.ProxyRecord) int {
		return cmpNil(a.LastTested == nil, b.LastTested == nil, func() int { return a.LastTested.Compare(*b.LastTested) })
	},
	"country": func(a, b models.ProxyRecord) int { return strings.Compare(a.Country, b.Country) },
	"status":  func(a, b models.ProxyRecord) int { return strings.Compare(string(a.Status), string(b.Status)) },
}

type orderBy struct {
	cmp  func(a, b models.ProxyRecord) int
	desc bool
}

// parseOrder parses "Ping desc,Id" style clauses.
func parseOrder(order string) ([]orderBy, error) {
	var out []orderBy
	for _, clause := range strings.Split(order, ",") {
		parts := strings.Fields(clause)
		if len(parts) == 0 {
			continue
		}
		less, ok := orderKeys[strings.ToLower(parts[0])]
		if !ok {
			return nil, fmt.Errorf("%w: unknown order field %q", ErrInvalidQuery, parts[0])
		}
		ob := orderBy{cmp: less}
		if len(parts) > 1 {
			ob.desc = strings.EqualFold(parts[1], "desc")
		}
		out = append(out, ob)
	}
	return out, nil
}

// List filters, orders and pages the collection. The total is counted before
// paging.
func (s *Service) List(ctx context.Context, q ListParams) ([]models.ProxyRecord, int64, error) {
	if err := q.validate(); err != nil {
		return nil, 0, err
	}
	orders, err := parseOrder(q.Order)
	if err != nil {
		return nil, 0, err
	}

	st, err := s.snapshot(ctx)
	if err != nil {
		return nil, 0, err
	}

	list := lo.Filter(st.Proxies, q.match())
	if len(orders) > 0 {
		sort.SliceStable(list, func(i, j int) bool {
			for _, o := range orders {
				c := o.cmp(list[i], list[j])
				if c == 0 {
					continue
				}
				if o.desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	total := int64(len(list))
	if q.Offset > 0 {
		if q.Offset >= len(list) {
			return []models.ProxyRecord{}, total, nil
		}
		list = list[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(list) {
		list = list[:q.Limit]
	}
	return list, total, nil
}

type AddResult struct {
	Added      []models.ProxyRecord `json:"Added"`
	Duplicates []string             `json:"Duplicates"`
	Skipped    []parser.Skipped     `json:"Skipped,omitempty"`
}

// maxAddAttempts bounds retries when a concurrent Add wins a host:port.
const maxAddAttempts = 3

// Add stores new records. Records whose host:port already exists, in the
// collection or earlier in the same call, are reported as duplicates.
func (s *Service) Add(ctx context.Context, records []models.ProxyRecord) (*AddResult, error) {
	for attempt := 1; ; attempt++ {
		st, err := s.snapshot(ctx)
		if err != nil {
			return nil, err
		}

		res, fresh := splitDuplicates(st, records)
		if len(fresh) == 0 {
			return res, nil
		}

		next, err := s.store.Dispatch(ctx, store.Added{Records: fresh})
		if errors.Is(err, store.ErrDuplicate) && attempt < maxAddAttempts {
			continue
		}
		if err != nil {
			return nil, err
		}
		res.Added = append(res.Added, next.Proxies[len(next.Proxies)-len(fresh):]...)
		return res, nil
	}
}

func splitDuplicates(st store.State, records []models.ProxyRecord) (*AddResult, []models.ProxyRecord) {
	seen := set(lo.Map(st.Proxies, func(p models.ProxyRecord, _ int) string { return p.Key() }))
	res := &AddResult{Added: []models.ProxyRecord{}, Duplicates: []string{}}
	fresh := make([]models.ProxyRecord, 0, len(records))
	for _, r := range records {
		r.ID = 0
		r.Host = strings.TrimSpace(r.Host)
		if _, dup := seen[r.Key()]; dup {
			res.Duplicates = append(res.Duplicates, r.Key())
			continue
		}
		seen[r.Key()] = struct{}{}
		fresh = append(fresh, r)
	}
	return res, fresh
}

// Import parses a pasted proxy list and adds the recognised records. A
// non-empty group is applied to every imported record.
func (s *Service) Import(ctx context.Context, text, group string) (*AddResult, error) {
	var popts []parser.Option
	if s.opts.StrictIPv4 {
		popts = append(popts, parser.WithStrictIPv4())
	}
	parsed := parser.Parse(text, popts...)

	records := lo.Map(parsed.Proxies, func(p models.ProxyRecord, _ int) models.ProxyRecord {
		if group != "" {
			p.Group = group
		}
		return p
	})

	res, err := s.Add(ctx, records)
	if err != nil {
		return nil, err
	}
	res.Skipped = parsed.Skipped
	return res, nil
}

func cmpNil(aNil, bNil bool, both func() int) int {
	switch {
	case aNil && bNil:
		return 0
	case aNil:
		return 1
	case bNil:
		return -1
	}
	return both()
}
