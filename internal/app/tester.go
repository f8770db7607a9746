package app

import (
	"fmt"
	"time"

	"github.com/maxliu9403/ProxyBoard/internal/config"
	"github.com/maxliu9403/ProxyBoard/internal/logic/runner"
	"github.com/maxliu9403/ProxyBoard/internal/logic/tester"
	"github.com/maxliu9403/ProxyBoard/internal/pkg/geo"
)

// testerSettings 服务端与 check 命令共用的测试参数
type testerSettings struct {
	endpoint        string
	testURL         string
	timeout         time.Duration
	geoIPPath       string
	trafficURL      string
	trafficEndpoint string
	userAgent       string
}

func settingsFromConfig(t config.Tester, geoIPPath string) testerSettings {
	return testerSettings{
		endpoint:        t.Endpoint,
		testURL:         t.TestURL,
		timeout:         t.Timeout(),
		geoIPPath:       geoIPPath,
		trafficURL:      t.TrafficURL,
		trafficEndpoint: t.TrafficEndpoint,
		userAgent:       t.TrafficUserAgent,
	}
}

// testFunc picks the traffic runner when a traffic URL is set, otherwise the
// /api/test-proxy client with optional geoip lookup. The returned closer
// releases the geoip database.
func (s testerSettings) testFunc() (runner.TestFunc, func(), error) {
	if s.endpoint == "" {
		return nil, nil, fmt.Errorf("tester endpoint is required")
	}

	if s.trafficURL != "" {
		endpoint := s.trafficEndpoint
		if endpoint == "" {
			endpoint = s.endpoint
		}
		c := tester.NewTrafficClient(endpoint, s.timeout)
		return tester.TrafficFunc(c, tester.Target{URL: s.trafficURL, UserAgent: s.userAgent}), func() {}, nil
	}

	opts := []tester.Option{tester.WithTestURL(s.testURL), tester.WithTimeout(s.timeout)}
	closer := func() {}
	if s.geoIPPath != "" {
		g, err := geo.Open(s.geoIPPath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, tester.WithGeo(g))
		closer = func() { _ = g.Close() }
	}
	return tester.NewClient(s.endpoint, opts...).Test, closer, nil
}
