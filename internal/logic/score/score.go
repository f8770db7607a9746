package score

import (
	"math"

	"github.com/maxliu9403/ProxyBoard/models"
)

// 100 分制: 成功 40 / 速度 25 / 延迟 20 / 匿名 10 / 测试耗时 5
const (
	successWeight  = 40.0
	speedWeight    = 25.0
	pingWeight     = 20.0
	testTimeWeight = 5.0

	speedSaturation = 10000.0 // KB/s
	pingCeilingMs   = 100.0
	testTimeCeiling = 1000.0 // ms
)

type Input struct {
	Success    bool
	Speed      *float64 // KB/s
	Ping       *float64 // ms
	Anonymity  models.Anonymity
	TestTimeMs float64
}

// Compute returns the composite quality score in [0, 100].
func Compute(in Input) int {
	var total float64

	if in.Success {
		total += successWeight
	}
	if in.Speed != nil {
		total += clamp(*in.Speed/speedSaturation*speedWeight, 0, speedWeight)
	}
	if in.Ping != nil {
		total += clamp(pingWeight-*in.Ping/pingCeilingMs*pingWeight, 0, pingWeight)
	}
	total += anonymityPoints(in.Anonymity)
	total += clamp(testTimeWeight-in.TestTimeMs/testTimeCeiling*testTimeWeight, 0, testTimeWeight)

	return int(math.Round(clamp(total, 0, 100)))
}

// FromResult scores a validation result using its own fields.
func FromResult(r models.ValidationResult) int {
	in := Input{
		Success:    r.IsValid,
		Speed:      r.Speed,
		Anonymity:  r.Anonymity,
		TestTimeMs: float64(r.TestTime),
	}
	if r.Ping != nil {
		p := float64(*r.Ping)
		in.Ping = &p
	}
	return Compute(in)
}

func anonymityPoints(a models.Anonymity) float64 {
	switch a {
	case models.AnonymityElite:
		return 10
	case models.AnonymityAnonymous:
		return 7
	case models.AnonymityTransparent:
		return 3
	case models.AnonymityUnknown:
		return 0
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Label 仅用于展示
func Label(s int) string {
	switch {
	case s >= 80:
		return "excellent"
	case s >= 60:
		return "good"
	case s >= 40:
		return "fair"
	default:
		return "poor"
	}
}
