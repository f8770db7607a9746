package reconcile

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/maxliu9403/ProxyBoard/internal/logic/health"
	"github.com/maxliu9403/ProxyBoard/models"
)

// Merge folds one result into its record. Metrics missing from the result
// keep their last known value; LastTested is always refreshed.
func Merge(rec models.ProxyRecord, res models.ValidationResult, now time.Time) models.ProxyRecord {
	if res.IsValid {
		rec.Status = models.StatusAlive
	} else {
		rec.Status = models.StatusDead
	}

	if res.Ping != nil {
		rec.Ping = models.Int64Ptr(*res.Ping)
	}
	if res.Speed != nil {
		rec.Speed = models.Float64Ptr(*res.Speed)
	}
	if res.Country != "" {
		rec.Country = res.Country
	}
	if res.City != "" {
		rec.City = res.City
	}
	if res.Anonymity != "" {
		rec.Anonymity = res.Anonymity
	}
	if res.PublicIP != "" {
		rec.PublicIP = res.PublicIP
	}

	t := now
	rec.LastTested = &t
	return rec
}

// Apply merges results by proxy ID. Results for unknown IDs are ignored and
// the input slice is not modified.
func Apply(records []models.ProxyRecord, results []models.ValidationResult, now time.Time) []models.ProxyRecord {
	byID := lo.Associate(results, func(r models.ValidationResult) (int64, models.ValidationResult) {
		return r.Proxy.ID, r
	})

	out := make([]models.ProxyRecord, len(records))
	for i, rec := range records {
		if res, ok := byID[rec.ID]; ok {
			rec = Merge(rec, res, now)
		}
		out[i] = rec
	}
	return out
}

type Performer struct {
	ID          int64  `json:"Id"`
	Address     string `json:"Address"`
	HealthScore int    `json:"HealthScore"`
}

// Stats 看板聚合数据，每次从完整集合重新计算
type Stats struct {
	Total        int                      `json:"Total"`
	ByStatus     map[models.Status]int    `json:"ByStatus"`
	ByType       map[models.ProxyType]int `json:"ByType"`
	ByCountry    map[string]int           `json:"ByCountry"`
	ByAnonymity  map[models.Anonymity]int `json:"ByAnonymity"`
	AvgPingMs    float64                  `json:"AvgPingMs"`
	AvgSpeedKBps float64                  `json:"AvgSpeedKBps"`
	AliveRatePct float64                  `json:"AliveRatePct"`
	Top          []Performer              `json:"Top"`
	Bottom       []Performer              `json:"Bottom"`
}

// Aggregate recomputes dashboard statistics. Leaderboards hold at most k
// entries and only consider proxies present in metrics.
func Aggregate(records []models.ProxyRecord, metrics map[int64]health.Metrics, k int) Stats {
	st := Stats{
		Total:       len(records),
		ByStatus:    make(map[models.Status]int),
		ByType:      make(map[models.ProxyType]int),
		ByCountry:   make(map[string]int),
		ByAnonymity: make(map[models.Anonymity]int),
		Top:         []Performer{},
		Bottom:      []Performer{},
	}

	var (
		pingSum, speedSum     float64
		pingCount, speedCount int
		ranked                []Performer
	)

	for _, r := range records {
		st.ByStatus[r.Status]++
		st.ByType[r.Type]++
		if r.Country != "" {
			st.ByCountry[r.Country]++
		}
		anon := r.Anonymity
		if anon == "" {
			anon = models.AnonymityUnknown
		}
		st.ByAnonymity[anon]++

		if r.Ping != nil {
			pingSum += float64(*r.Ping)
			pingCount++
		}
		if r.Speed != nil {
			speedSum += *r.Speed
			speedCount++
		}

		if m, ok := metrics[r.ID]; ok {
			ranked = append(ranked, Performer{ID: r.ID, Address: r.Key(), HealthScore: m.HealthScore})
		}
	}

	if pingCount > 0 {
		st.AvgPingMs = pingSum / float64(pingCount)
	}
	if speedCount > 0 {
		st.AvgSpeedKBps = speedSum / float64(speedCount)
	}
	if st.Total > 0 {
		st.AliveRatePct = float64(st.ByStatus[models.StatusAlive]) / float64(st.Total) * 100
	}

	if k > 0 && len(ranked) > 0 {
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].HealthScore != ranked[j].HealthScore {
				return ranked[i].HealthScore > ranked[j].HealthScore
			}
			return ranked[i].ID < ranked[j].ID
		})
		n := lo.Min([]int{k, len(ranked)})
		st.Top = append(st.Top, ranked[:n]...)
		for i := len(ranked) - 1; i >= len(ranked)-n; i-- {
			st.Bottom = append(st.Bottom, ranked[i])
		}
	}

	return st
}

// RunSummary 单次测试运行的统计
type RunSummary struct {
	Tested          int     `json:"Tested"`
	Valid           int     `json:"Valid"`
	Invalid         int     `json:"Invalid"`
	SuccessRatePct  float64 `json:"SuccessRatePct"`
	AvgQualityScore float64 `json:"AvgQualityScore"`
	AvgPingMs       float64 `json:"AvgPingMs"`
	AvgSpeedKBps    float64 `json:"AvgSpeedKBps"`
	AvgTestTimeMs   float64 `json:"AvgTestTimeMs"`
	DurationMs      int64   `json:"DurationMs"`
}

// Summarize aggregates the results of one run; ping, speed and score are
// averaged over valid results only.
func Summarize(results []models.ValidationResult, duration time.Duration) RunSummary {
	s := RunSummary{Tested: len(results), DurationMs: duration.Milliseconds()}

	var scoreSum, pingSum, speedSum float64
	var testTimeSum int64
	var pingCount, speedCount int

	for _, r := range results {
		testTimeSum += r.TestTime
		if !r.IsValid {
			s.Invalid++
			continue
		}
		s.Valid++
		scoreSum += float64(r.QualityScore)
		if r.Ping != nil {
			pingSum += float64(*r.Ping)
			pingCount++
		}
		if r.Speed != nil {
			speedSum += *r.Speed
			speedCount++
		}
	}

	if s.Tested > 0 {
		s.SuccessRatePct = float64(s.Valid) / float64(s.Tested) * 100
		s.AvgTestTimeMs = float64(testTimeSum) / float64(s.Tested)
	}
	if s.Valid > 0 {
		s.AvgQualityScore = scoreSum / float64(s.Valid)
	}
	if pingCount > 0 {
		s.AvgPingMs = pingSum / float64(pingCount)
	}
	if speedCount > 0 {
		s.AvgSpeedKBps = speedSum / float64(speedCount)
	}
	return s
}

// Failed returns the proxies whose result was invalid, used for retries.
func Failed(results []models.ValidationResult) []models.ProxyRecord {
	return lo.FilterMap(results, func(r models.ValidationResult, _ int) (models.ProxyRecord, bool) {
		return r.Proxy, !r.IsValid
	})
}
