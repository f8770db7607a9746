package tester

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maxliu9403/common/logger"

	"github.com/maxliu9403/ProxyBoard/internal/logic/runner"
	"github.com/maxliu9403/ProxyBoard/internal/logic/score"
	callAPi "github.com/maxliu9403/ProxyBoard/internal/pkg/callAPI"
	"github.com/maxliu9403/ProxyBoard/models"
)

type TrafficRequest struct {
	Proxy     string `json:"proxy"`
	URL       string `json:"url"`
	UserAgent string `json:"userAgent,omitempty"`
	Referer   string `json:"referer,omitempty"`
	Method    string `json:"method,omitempty"`
}

type TrafficResponse struct {
	Success       bool   `json:"success"`
	StatusCode    int    `json:"statusCode"`
	BytesReceived int64  `json:"bytesReceived"`
	BytesSent     int64  `json:"bytesSent"`
	PageTitle     string `json:"pageTitle,omitempty"`
	FinalURL      string `json:"finalUrl,omitempty"`
	RedirectCount int    `json:"redirectCount"`
	Error         string `json:"error,omitempty"`
}

// Target 模拟访问的页面
type Target struct {
	URL       string
	UserAgent string
	Referer   string
	Method    string
}

type TrafficClient struct {
	endpoint string
	timeout  time.Duration
	call     caller
}

func NewTrafficClient(endpoint string, timeout time.Duration) *TrafficClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TrafficClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		timeout:  timeout,
		call:     callAPi.CallAPI,
	}
}

func (c *TrafficClient) Request(ctx context.Context, p models.ProxyRecord, t Target) (TrafficResponse, time.Duration, error) {
	method := strings.ToUpper(t.Method)
	if method == "" {
		method = "GET"
	}
	req := TrafficRequest{
		Proxy:     ProxyURL(p),
		URL:       t.URL,
		UserAgent: t.UserAgent,
		Referer:   t.Referer,
		Method:    method,
	}

	var resp TrafficResponse
	start := time.Now()
	_, err := c.call(ctx, c.endpoint+TrafficPath, req, &resp, callAPi.SetTimeout(c.timeout))
	if IsStatusError(err) {
		logger.WarnfWithTrace(ctx, "traffic endpoint rejected %s: %s", p.Key(), err.Error())
	}
	return resp, time.Since(start), err
}

// TrafficFunc adapts traffic requests into a runner test function. A request
// is valid when the target answered 2xx or 3xx; speed is the received KB/s.
func TrafficFunc(c *TrafficClient, t Target) runner.TestFunc {
	return func(ctx context.Context, p models.ProxyRecord) (models.ValidationResult, error) {
		resp, elapsed, err := c.Request(ctx, p, t)
		if err != nil {
			return models.ValidationResult{}, err
		}

		res := models.ValidationResult{
			Proxy:    p,
			IsValid:  resp.StatusCode >= 200 && resp.StatusCode < 400,
			Ping:     models.Int64Ptr(elapsed.Milliseconds()),
			TestTime: elapsed.Milliseconds(),
		}
		if secs := elapsed.Seconds(); secs > 0 && resp.BytesReceived > 0 {
			res.Speed = models.Float64Ptr(float64(resp.BytesReceived) / 1024 / secs)
		}
		if !res.IsValid {
			res.Error = resp.Error
			if res.Error == "" {
				res.Error = fmt.Sprintf("target answered status %d", resp.StatusCode)
			}
		}
		res.QualityScore = score.FromResult(res)
		return res, nil
	}
}

// ProxyURL renders p as scheme://[user:pass@]host:port. Non-protocol types are
// sent as http.
func ProxyURL(p models.ProxyRecord) string {
	scheme := string(p.Type)
	if !p.Type.IsScheme() {
		scheme = string(models.TypeHTTP)
	}
	u := url.URL{Scheme: scheme, Host: net.JoinHostPort(p.Host, strconv.Itoa(p.Port))}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u.String()
}
