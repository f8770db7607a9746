/*
@Date: 2021/1/12 下午2:23
@Author: max.liu
@File : config
@Desc:
*/

package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/maxliu9403/common/apiserver"
)

// Tester 代理测试后端配置
type Tester struct {
	Endpoint       string `yaml:"endpoint"`
	TestURL        string `yaml:"test_url"`
	TimeoutSec     int    `yaml:"timeout_sec"`
	BatchSize      int    `yaml:"batch_size"`
	ItemTimeoutSec int    `yaml:"item_timeout_sec"`
	RetryFailed    bool   `yaml:"retry_failed"`
	RetryCount     int    `yaml:"retry_count"`
	StrictIPv4     bool   `yaml:"strict_ipv4"`

	// 配置 traffic_url 后以页面访问代替 /api/test-proxy 检测
	TrafficURL       string `yaml:"traffic_url"`
	TrafficEndpoint  string `yaml:"traffic_endpoint"`
	TrafficUserAgent string `yaml:"traffic_user_agent"`
}

func (t Tester) Timeout() time.Duration {
	return time.Duration(t.TimeoutSec) * time.Second
}

func (t Tester) ItemTimeout() time.Duration {
	return time.Duration(t.ItemTimeoutSec) * time.Second
}

type CronJob struct {
	// 定时全量测试，为空则不注册，例如 "@every 30m"
	RetestPeriod string `yaml:"retest_period"`
}

type CustomCfg struct {
	Persist       bool   `yaml:"persist"`
	KafkaEnabled  bool   `yaml:"kafka_enabled"`
	GeoIPPath     string `yaml:"geoip_path"`
	LeaderboardK  int    `yaml:"leaderboard_k"`
	MaxOperations int    `yaml:"max_operations"`
	Locale        string `yaml:"locale"`
}

type Mail struct {
	Enabled  bool     `yaml:"enabled"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password" json:"-"`
	SendTo   []string `yaml:"send_to"`
}

type Config struct {
	apiserver.APIConfig `yaml:"base"`
	Tester              Tester    `yaml:"tester"`
	CronJob             CronJob   `yaml:"cron_job"`
	CustomCfg           CustomCfg `yaml:"custom_cfg"`
	Mail                Mail      `yaml:"mail"`
}

func (c *Config) String() string {
	configData, err := json.Marshal(c)
	if err != nil {
		fmt.Println(err)
	}

	return string(configData)
}

var G = &Config{}
