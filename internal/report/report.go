package report

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/maxliu9403/ProxyBoard/internal/logic/reconcile"
	"github.com/maxliu9403/ProxyBoard/internal/logic/score"
	"github.com/maxliu9403/ProxyBoard/models"
)

// PrintResults writes one row per validation result.
func PrintResults(w io.Writer, results []models.ValidationResult) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "PROXY\tTYPE\tALIVE\tPING(ms)\tSPEED(KB/s)\tSCORE\tGRADE\tCOUNTRY\tANONYMITY\tERROR")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.Proxy.Key(),
			dashIfEmpty(string(r.Proxy.Type)),
			yesNo(r.IsValid),
			ping(r.Ping),
			speed(r.Speed),
			r.QualityScore,
			score.Label(r.QualityScore),
			dashIfEmpty(r.Country),
			dashIfEmpty(string(r.Anonymity)),
			dashIfEmpty(r.Error),
		)
	}
	return tw.Flush()
}

func PrintSummary(w io.Writer, s reconcile.RunSummary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Tested:               %d\n", s.Tested)
	fmt.Fprintf(w, "  Alive:                %d (%.1f%%)\n", s.Valid, s.SuccessRatePct)
	fmt.Fprintf(w, "  Avg score (alive):    %.1f\n", s.AvgQualityScore)
	fmt.Fprintf(w, "  Avg ping (alive):     %.1f ms\n", s.AvgPingMs)
	fmt.Fprintf(w, "  Avg speed (alive):    %.1f KB/s\n", s.AvgSpeedKBps)
	fmt.Fprintf(w, "  Run time:             %.2f s\n", float64(s.DurationMs)/1000.0)
}

func ping(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func speed(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
