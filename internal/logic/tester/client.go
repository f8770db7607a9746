package tester

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/maxliu9403/common/logger"

	"github.com/maxliu9403/ProxyBoard/internal/logic/score"
	callAPi "github.com/maxliu9403/ProxyBoard/internal/pkg/callAPI"
	"github.com/maxliu9403/ProxyBoard/internal/pkg/geo"
	"github.com/maxliu9403/ProxyBoard/models"
)

const (
	TestProxyPath    = "/api/test-proxy"
	TrafficPath      = "/api/traffic-request"
	DefaultTimeout   = 10 * time.Second
	defaultFailedMsg = "proxy test failed"
)

// caller matches callAPi.CallAPI.
type caller func(ctx context.Context, url string, params, resp interface{}, options ...callAPi.CallOption) (int, error)

type TestRequest struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Type     string `json:"type"`
	TestURL  string `json:"testUrl,omitempty"`
}

type TestResponse struct {
	Success   bool     `json:"success"`
	Ping      *float64 `json:"ping,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	PublicIP  string   `json:"publicIP,omitempty"`
	Country   string   `json:"country,omitempty"`
	City      string   `json:"city,omitempty"`
	Anonymity string   `json:"anonymity,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type Option func(*Client)

func WithTestURL(u string) Option {
	return func(c *Client) { c.testURL = u }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithGeo fills country and city from the public IP when the endpoint omits them.
func WithGeo(r geo.Resolver) Option {
	return func(c *Client) { c.geo = r }
}

// Client 调用 /api/test-proxy 检测单个代理
type Client struct {
	endpoint string
	testURL  string
	timeout  time.Duration
	geo      geo.Resolver
	call     caller
}

func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		timeout:  DefaultTimeout,
		call:     callAPi.CallAPI,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Test probes one proxy. Transport failures and error statuses are returned as
// errors so the runner records them as failed results.
func (c *Client) Test(ctx context.Context, p models.ProxyRecord) (models.ValidationResult, error) {
	req := TestRequest{
		Host:     p.Host,
		Port:     p.Port,
		Username: p.Username,
		Password: p.Password,
		Type:     string(p.Type),
		TestURL:  c.testURL,
	}

	var resp TestResponse
	start := time.Now()
	_, err := c.call(ctx, c.endpoint+TestProxyPath, req, &resp, callAPi.SetTimeout(c.timeout), callAPi.AddHeader("X-Proxy-Key", p.Key()))
	elapsed := time.Since(start)
	if err != nil {
		if IsStatusError(err) {
			logger.WarnfWithTrace(ctx, "tester endpoint rejected %s: %s", p.Key(), err.Error())
		}
		return models.ValidationResult{}, err
	}

	res := c.toResult(p, resp, elapsed)
	res.QualityScore = score.FromResult(res)
	return res, nil
}

func (c *Client) toResult(p models.ProxyRecord, resp TestResponse, elapsed time.Duration) models.ValidationResult {
	res := models.ValidationResult{
		Proxy:     p,
		IsValid:   resp.Success,
		TestTime:  elapsed.Milliseconds(),
		Country:   resp.Country,
		City:      resp.City,
		Anonymity: models.ParseAnonymity(resp.Anonymity),
		PublicIP:  resp.PublicIP,
		Speed:     resp.Speed,
	}

	switch {
	case resp.Ping != nil:
		res.Ping = models.Int64Ptr(int64(*resp.Ping))
	case resp.Success:
		res.Ping = models.Int64Ptr(res.TestTime)
	}

	if !resp.Success {
		res.Error = resp.Error
		if res.Error == "" {
			res.Error = defaultFailedMsg
		}
	}

	if c.geo != nil && res.Country == "" && res.PublicIP != "" {
		country, city, err := c.geo.Lookup(res.PublicIP)
		if err != nil {
			logger.Debugf("geo lookup %s failed: %s", res.PublicIP, err)
		} else {
			res.Country = country
			if res.City == "" {
				res.City = city
			}
		}
	}
	return res
}

// IsStatusError reports whether err came from a non-success HTTP status.
func IsStatusError(err error) bool {
	return errors.Is(err, callAPi.ErrStatus)
}
