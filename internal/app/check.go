package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/maxliu9403/ProxyBoard/internal/logic/parser"
	"github.com/maxliu9403/ProxyBoard/internal/logic/proxy"
	"github.com/maxliu9403/ProxyBoard/internal/logic/reconcile"
	"github.com/maxliu9403/ProxyBoard/internal/logic/runner"
	"github.com/maxliu9403/ProxyBoard/internal/logic/tester"
	"github.com/maxliu9403/ProxyBoard/internal/report"
)

type checkFlags struct {
	input           string
	endpoint        string
	testURL         string
	timeout         time.Duration
	batchSize       int
	strictIPv4      bool
	geoIPPath       string
	trafficEndpoint string
	trafficURL      string
	userAgent       string
}

// newCheckCommand 从文件读取代理并在终端输出测试结果，不依赖服务端配置
func newCheckCommand() *cobra.Command {
	f := &checkFlags{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "test proxies from a file and print the results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runCheck(ctx, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.input, "file", "f", "", "proxy list file, one proxy per line")
	fl.StringVar(&f.endpoint, "endpoint", "http://127.0.0.1:8000", "tester endpoint")
	fl.StringVar(&f.testURL, "test-url", "", "URL requested through every proxy")
	fl.DurationVar(&f.timeout, "timeout", tester.DefaultTimeout, "timeout of one test")
	fl.IntVar(&f.batchSize, "batch-size", proxy.DefaultBatchSize, "proxies tested concurrently")
	fl.BoolVar(&f.strictIPv4, "strict-ipv4", false, "only accept numeric IPv4 hosts")
	fl.StringVar(&f.geoIPPath, "geoip", "", "GeoLite2 City database used when the tester omits location")
	fl.StringVar(&f.trafficEndpoint, "traffic-endpoint", "", "traffic endpoint, defaults to --endpoint")
	fl.StringVar(&f.trafficURL, "traffic-url", "", "send a page request through every proxy instead of a plain test")
	fl.StringVar(&f.userAgent, "user-agent", "", "User-Agent of the traffic request")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (f *checkFlags) settings() testerSettings {
	return testerSettings{
		endpoint:        f.endpoint,
		testURL:         f.testURL,
		timeout:         f.timeout,
		geoIPPath:       f.geoIPPath,
		trafficURL:      f.trafficURL,
		trafficEndpoint: f.trafficEndpoint,
		userAgent:       f.userAgent,
	}
}

func runCheck(ctx context.Context, f *checkFlags) error {
	var popts []parser.Option
	if f.strictIPv4 {
		popts = append(popts, parser.WithStrictIPv4())
	}
	parsed, err := parser.Load(f.input, popts...)
	if err != nil {
		return err
	}
	for _, s := range parsed.Skipped {
		fmt.Fprintf(os.Stderr, "line %d skipped: %s (%s)\n", s.Line, s.Raw, s.Reason)
	}
	if len(parsed.Proxies) == 0 {
		return fmt.Errorf("no proxies found in %s", f.input)
	}

	test, closer, err := f.settings().testFunc()
	if err != nil {
		return err
	}
	defer closer()

	r := runner.New(f.batchSize, runner.WithProgress(func(p runner.Progress) {
		fmt.Fprintf(os.Stderr, "batch %d/%d: %d/%d tested (%d%%)\n", p.Batch, p.Batches, p.Completed, p.Total, p.Percent)
	}))

	start := time.Now()
	rep := r.Run(ctx, parsed.Proxies, test)
	if rep.Cancelled {
		fmt.Fprintf(os.Stderr, "interrupted after %d/%d proxies\n", rep.Completed, rep.Total)
	}

	if err = report.PrintResults(os.Stdout, rep.Results); err != nil {
		return err
	}
	report.PrintSummary(os.Stdout, reconcile.Summarize(rep.Results, time.Since(start)))
	return nil
}
