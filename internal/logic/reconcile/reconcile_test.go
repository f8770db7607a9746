package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maxliu9403/ProxyBoard/internal/logic/health"
	"github.com/maxliu9403/ProxyBoard/models"
)

func TestMerge_KeepsLastKnownMetrics(t *testing.T) {
	before := time.Now().Add(-time.Hour)
	rec := models.ProxyRecord{
		ID:         1,
		Host:       "1.2.3.4",
		Port:       8080,
		Status:     models.StatusAlive,
		Ping:       models.Int64Ptr(50),
		Speed:      models.Float64Ptr(800),
		Country:    "DE",
		LastTested: &before,
	}

	now := time.Now()
	got := Merge(rec, models.ValidationResult{Proxy: rec, IsValid: false, Error: "timeout"}, now)

	require.Equal(t, models.StatusDead, got.Status)
	require.Equal(t, int64(50), *got.Ping)
	require.Equal(t, 800.0, *got.Speed)
	require.Equal(t, "DE", got.Country)
	require.True(t, got.LastTested.Equal(now))
	require.True(t, rec.LastTested.Equal(before), "input record untouched")
}

func TestMerge_Overwrites(t *testing.T) {
	rec := models.ProxyRecord{ID: 1, Status: models.StatusDead, Ping: models.Int64Ptr(500)}
	res := models.ValidationResult{
		IsValid:   true,
		Ping:      models.Int64Ptr(40),
		Speed:     models.Float64Ptr(1200),
		Country:   "NL",
		City:      "Amsterdam",
		Anonymity: models.AnonymityElite,
		PublicIP:  "5.5.5.5",
	}
	got := Merge(rec, res, time.Now())

	require.Equal(t, models.StatusAlive, got.Status)
	require.Equal(t, int64(40), *got.Ping)
	require.Equal(t, 1200.0, *got.Speed)
	require.Equal(t, "NL", got.Country)
	require.Equal(t, "Amsterdam", got.City)
	require.Equal(t, models.AnonymityElite, got.Anonymity)
	require.Equal(t, "5.5.5.5", got.PublicIP)

	*res.Ping = 1
	require.Equal(t, int64(40), *got.Ping, "record does not alias result pointers")
}

func TestApply(t *testing.T) {
	records := []models.ProxyRecord{
		{ID: 1, Status: models.StatusPending},
		{ID: 2, Status: models.StatusPending},
	}
	results := []models.ValidationResult{
		{Proxy: models.ProxyRecord{ID: 2}, IsValid: true},
		{Proxy: models.ProxyRecord{ID: 42}, IsValid: true},
	}

	out := Apply(records, results, time.Now())
	require.Len(t, out, 2)
	require.Equal(t, models.StatusPending, out[0].Status)
	require.Nil(t, out[0].LastTested)
	require.Equal(t, models.StatusAlive, out[1].Status)
	require.Equal(t, models.StatusPending, records[1].Status)
}

func TestAggregate(t *testing.T) {
	records := []models.ProxyRecord{
		{ID: 1, Host: "1.1.1.1", Port: 80, Type: models.TypeHTTP, Status: models.StatusAlive, Country: "US", Anonymity: models.AnonymityElite, Ping: models.Int64Ptr(100), Speed: models.Float64Ptr(1000)},
		{ID: 2, Host: "2.2.2.2", Port: 80, Type: models.TypeSOCKS5, Status: models.StatusAlive, Country: "US", Ping: models.Int64Ptr(300)},
		{ID: 3, Host: "3.3.3.3", Port: 80, Type: models.TypeHTTP, Status: models.StatusDead},
		{ID: 4, Host: "4.4.4.4", Port: 80, Type: models.TypeHTTP, Status: models.StatusPending},
	}
	metrics := map[int64]health.Metrics{
		1: {ProxyID: 1, HealthScore: 90},
		2: {ProxyID: 2, HealthScore: 60},
		3: {ProxyID: 3, HealthScore: 10},
	}

	st := Aggregate(records, metrics, 2)

	require.Equal(t, 4, st.Total)
	require.Equal(t, 2, st.ByStatus[models.StatusAlive])
	require.Equal(t, 1, st.ByStatus[models.StatusDead])
	require.Equal(t, 3, st.ByType[models.TypeHTTP])
	require.Equal(t, 2, st.ByCountry["US"])
	require.Equal(t, 1, st.ByAnonymity[models.AnonymityElite])
	require.Equal(t, 3, st.ByAnonymity[models.AnonymityUnknown])
	require.Equal(t, 200.0, st.AvgPingMs)
	require.Equal(t, 1000.0, st.AvgSpeedKBps)
	require.Equal(t, 50.0, st.AliveRatePct)

	require.Equal(t, []int64{1, 2}, []int64{st.Top[0].ID, st.Top[1].ID})
	require.Equal(t, []int64{3, 2}, []int64{st.Bottom[0].ID, st.Bottom[1].ID})
	require.Equal(t, "1.1.1.1:80", st.Top[0].Address)
}

func TestAggregate_Empty(t *testing.T) {
	st := Aggregate(nil, nil, 5)
	require.Equal(t, 0, st.Total)
	require.Empty(t, st.Top)
	require.Equal(t, 0.0, st.AliveRatePct)
}

func TestSummarize(t *testing.T) {
	results := []models.ValidationResult{
		{IsValid: true, QualityScore: 80, Ping: models.Int64Ptr(100), Speed: models.Float64Ptr(500), TestTime: 200},
		{IsValid: true, QualityScore: 60, Ping: models.Int64Ptr(300), TestTime: 400},
		{IsValid: false, TestTime: 900, Error: "refused"},
	}
	s := Summarize(results, 2*time.Second)

	require.Equal(t, 3, s.Tested)
	require.Equal(t, 2, s.Valid)
	require.Equal(t, 1, s.Invalid)
	require.InDelta(t, 66.666, s.SuccessRatePct, 0.01)
	require.Equal(t, 70.0, s.AvgQualityScore)
	require.Equal(t, 200.0, s.AvgPingMs)
	require.Equal(t, 500.0, s.AvgSpeedKBps)
	require.Equal(t, 500.0, s.AvgTestTimeMs)
	require.Equal(t, int64(2000), s.DurationMs)
}

func TestFailed(t *testing.T) {
	results := []models.ValidationResult{
		{Proxy: models.ProxyRecord{ID: 1}, IsValid: true},
		{Proxy: models.ProxyRecord{ID: 2}, IsValid: false},
	}
	failed := Failed(results)
	require.Len(t, failed, 1)
	require.Equal(t, int64(2), failed[0].ID)
}
