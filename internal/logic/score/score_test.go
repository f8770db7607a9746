package score

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maxliu9403/ProxyBoard/models"
)

func f(v float64) *float64 { return &v }

func TestCompute_Boundaries(t *testing.T) {
	best := Compute(Input{Success: true, Speed: f(10000), Ping: f(0), Anonymity: models.AnonymityElite, TestTimeMs: 0})
	require.Equal(t, 100, best)

	worst := Compute(Input{Success: false, TestTimeMs: 5000})
	require.Equal(t, 0, worst)
}

func TestCompute_Components(t *testing.T) {
	// 40 + 12.5 + 10 + 7 + 2.5 = 72
	got := Compute(Input{Success: true, Speed: f(5000), Ping: f(50), Anonymity: models.AnonymityAnonymous, TestTimeMs: 500})
	require.Equal(t, 72, got)

	// speed beyond saturation is capped, slow pings contribute nothing
	got = Compute(Input{Success: true, Speed: f(50000), Ping: f(400), Anonymity: models.AnonymityTransparent, TestTimeMs: 2000})
	require.Equal(t, 68, got)

	require.Equal(t, 5, Compute(Input{Anonymity: "bogus"}))
}

func TestCompute_Monotonic(t *testing.T) {
	prev := -1
	for ping := 150.0; ping >= 0; ping -= 10 {
		s := Compute(Input{Success: true, Speed: f(1000), Ping: f(ping), TestTimeMs: 300})
		require.GreaterOrEqual(t, s, prev, "ping %v", ping)
		prev = s
	}

	prev = -1
	for speed := 0.0; speed <= 12000; speed += 500 {
		s := Compute(Input{Success: true, Speed: f(speed), Ping: f(40), TestTimeMs: 300})
		require.GreaterOrEqual(t, s, prev, "speed %v", speed)
		prev = s
	}
}

func TestFromResult(t *testing.T) {
	r := models.ValidationResult{
		IsValid:   true,
		Ping:      models.Int64Ptr(0),
		Speed:     f(10000),
		Anonymity: models.AnonymityElite,
	}
	require.Equal(t, 100, FromResult(r))
}

func TestLabel(t *testing.T) {
	require.Equal(t, "excellent", Label(95))
	require.Equal(t, "good", Label(60))
	require.Equal(t, "fair", Label(45))
	require.Equal(t, "poor", Label(0))
}
