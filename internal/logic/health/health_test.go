package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maxliu9403/ProxyBoard/models"
)

func result(id int64, ok bool, ping int64, score int) models.ValidationResult {
	r := models.ValidationResult{Proxy: models.ProxyRecord{ID: id}, IsValid: ok, QualityScore: score}
	if ok {
		r.Ping = models.Int64Ptr(ping)
	}
	return r
}

func TestObserve(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	m := tr.Observe(result(1, true, 100, 80), now)
	require.Equal(t, 1, m.Checks)
	require.Equal(t, 1.0, m.SuccessRate)
	require.Equal(t, 100.0, m.EMAPingMs)
	// 60 + 0.9*25 + 0.8*15 = 94.5
	require.Equal(t, 95, m.HealthScore)

	m = tr.Observe(result(1, true, 200, 80), now)
	require.InDelta(t, 130.0, m.EMAPingMs, 0.001)

	m = tr.Observe(result(1, false, 0, 0), now)
	require.Equal(t, 1, m.ConsecutiveFailures)
	require.InDelta(t, 2.0/3.0, m.SuccessRate, 0.0001)
	require.InDelta(t, 130.0, m.EMAPingMs, 0.001, "failures do not move the latency average")

	got, ok := tr.Get(1)
	require.True(t, ok)
	require.Equal(t, m, got)
}

func TestWindow(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < windowSize; i++ {
		tr.Observe(result(7, false, 0, 0), time.Now())
	}
	for i := 0; i < windowSize; i++ {
		tr.Observe(result(7, true, 10, 90), time.Now())
	}
	m, _ := tr.Get(7)
	require.Equal(t, 1.0, m.SuccessRate)
	require.Equal(t, 2*windowSize, m.Checks)
	require.Equal(t, 0, m.ConsecutiveFailures)
}

func TestSnapshotAndForget(t *testing.T) {
	tr := NewTracker()
	tr.Observe(result(1, true, 10, 90), time.Now())
	tr.Observe(result(2, false, 0, 0), time.Now())

	snap := tr.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, 0, snap[2].HealthScore)

	tr.Forget(1, 99)
	_, ok := tr.Get(1)
	require.False(t, ok)
	require.Len(t, tr.Snapshot(), 1)
}
