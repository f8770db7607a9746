package health

import (
	"math"
	"sync"
	"time"

	"github.com/maxliu9403/ProxyBoard/models"
)

const (
	emaAlpha   = 0.3
	windowSize = 20

	latencyFloorMs = 1000.0
)

// Metrics 单个代理的滚动健康指标
type Metrics struct {
	ProxyID             int64     `json:"ProxyId"`
	Checks              int       `json:"Checks"`
	SuccessRate         float64   `json:"SuccessRate"` // 0..1 over the rolling window
	EMAPingMs           float64   `json:"EmaPingMs"`
	ConsecutiveFailures int       `json:"ConsecutiveFailures"`
	LastScore           int       `json:"LastScore"`
	HealthScore         int       `json:"HealthScore"`
	UpdatedAt           time.Time `json:"UpdatedAt"`

	window []bool
	hasEMA bool
}

// Tracker keeps metrics for every observed proxy. It is safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	metrics map[int64]*Metrics
}

func NewTracker() *Tracker {
	return &Tracker{metrics: make(map[int64]*Metrics)}
}

func (t *Tracker) Observe(res models.ValidationResult, now time.Time) Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := res.Proxy.ID
	m, ok := t.metrics[id]
	if !ok {
		m = &Metrics{ProxyID: id}
		t.metrics[id] = m
	}

	m.Checks++
	m.window = append(m.window, res.IsValid)
	if len(m.window) > windowSize {
		m.window = m.window[len(m.window)-windowSize:]
	}

	m.SuccessRate = successRate(m.window)

	if res.IsValid {
		m.ConsecutiveFailures = 0
		if res.Ping != nil {
			p := float64(*res.Ping)
			if !m.hasEMA {
				m.EMAPingMs = p
				m.hasEMA = true
			} else {
				m.EMAPingMs = emaAlpha*p + (1-emaAlpha)*m.EMAPingMs
			}
		}
	} else {
		m.ConsecutiveFailures++
	}

	m.LastScore = res.QualityScore
	m.HealthScore = healthScore(m)
	m.UpdatedAt = now

	return m.snapshot()
}

func (t *Tracker) Get(id int64) (Metrics, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m, ok := t.metrics[id]
	if !ok {
		return Metrics{}, false
	}
	return m.snapshot(), true
}

func (t *Tracker) Snapshot() map[int64]Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[int64]Metrics, len(t.metrics))
	for id, m := range t.metrics {
		out[id] = m.snapshot()
	}
	return out
}

// Forget drops metrics of removed proxies.
func (t *Tracker) Forget(ids ...int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range ids {
		delete(t.metrics, id)
	}
}

func (m *Metrics) snapshot() Metrics {
	c := *m
	c.window = nil
	return c
}

func successRate(window []bool) float64 {
	if len(window) == 0 {
		return 0
	}
	n := 0
	for _, v := range window {
		if v {
			n++
		}
	}
	return float64(n) / float64(len(window))
}

// healthScore = 60% 成功率 + 25% 延迟 + 15% 最近一次质量分
func healthScore(m *Metrics) int {
	latency := 0.0
	if m.hasEMA {
		latency = math.Max(0, 1-m.EMAPingMs/latencyFloorMs)
	}
	v := m.SuccessRate*60 + latency*25 + float64(m.LastScore)/100*15
	return int(math.Round(math.Max(0, math.Min(100, v))))
}
