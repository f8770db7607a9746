package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maxliu9403/ProxyBoard/internal/logic/reconcile"
	"github.com/maxliu9403/ProxyBoard/models"
)

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	err := PrintResults(&buf, []models.ValidationResult{
		{Proxy: models.ProxyRecord{Host: "1.1.1.1", Port: 8080, Type: models.TypeHTTP}, IsValid: true, Ping: models.Int64Ptr(150), Speed: models.Float64Ptr(512.5), QualityScore: 90, Country: "DE"},
		{Proxy: models.ProxyRecord{Host: "2.2.2.2", Port: 1080}, Error: "timeout"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "PROXY"))
	require.Equal(t, []string{"1.1.1.1:8080", "http", "yes", "150", "512.5", "90", "excellent", "DE", "-", "-"}, strings.Fields(lines[1]))
	require.Equal(t, []string{"2.2.2.2:1080", "-", "no", "-", "-", "0", "poor", "-", "-", "timeout"}, strings.Fields(lines[2]))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, reconcile.RunSummary{Tested: 4, Valid: 1, SuccessRatePct: 25, DurationMs: 1500})
	require.Contains(t, buf.String(), "1 (25.0%)")
	require.Contains(t, buf.String(), "1.50 s")
}
