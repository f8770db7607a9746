package models

import (
	"net"
	"strconv"
	"time"
)

// ProxyRecord 是看板中维护的一条代理
//
// Speed is throughput in KB/s. Latency is carried only by Ping, in milliseconds.
type ProxyRecord struct {
	ID         int64      `json:"Id"`
	Host       string     `json:"Host"`
	Port       int        `json:"Port"`
	Username   string     `json:"Username,omitempty"`
	Password   string     `json:"Password,omitempty"`
	Type       ProxyType  `json:"Type"`
	Status     Status     `json:"Status"`
	Ping       *int64     `json:"Ping,omitempty"`
	Speed      *float64   `json:"Speed,omitempty"`
	Country    string     `json:"Country,omitempty"`
	City       string     `json:"City,omitempty"`
	Anonymity  Anonymity  `json:"Anonymity,omitempty"`
	PublicIP   string     `json:"PublicIP,omitempty"`
	LastTested *time.Time `json:"LastTested,omitempty"`
	Notes      string     `json:"Notes,omitempty"`
	Group      string     `json:"Group,omitempty"`
}

// Key is the host:port dedup key.
func (p ProxyRecord) Key() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// ValidationResult 单次测试结果，不落库
type ValidationResult struct {
	Proxy        ProxyRecord `json:"Proxy"`
	IsValid      bool        `json:"IsValid"`
	Ping         *int64      `json:"Ping,omitempty"`
	Speed        *float64    `json:"Speed,omitempty"`
	QualityScore int         `json:"QualityScore"`
	TestTime     int64       `json:"TestTime"` // ms
	Error        string      `json:"Error,omitempty"`

	Country   string    `json:"Country,omitempty"`
	City      string    `json:"City,omitempty"`
	Anonymity Anonymity `json:"Anonymity,omitempty"`
	PublicIP  string    `json:"PublicIP,omitempty"`
}

// BulkOperation 是一次批量操作的可见状态
type BulkOperation struct {
	ID        string          `json:"Id"`
	Type      OperationType   `json:"Type"`
	Status    OperationStatus `json:"Status"`
	Progress  int             `json:"Progress"`
	Processed int             `json:"Processed"`
	Total     int             `json:"Total"`
	StartTime *time.Time      `json:"StartTime,omitempty"`
	EndTime   *time.Time      `json:"EndTime,omitempty"`
	CanUndo   bool            `json:"CanUndo"`
	Error     string          `json:"Error,omitempty"`
}

// Int64Ptr and Float64Ptr are small helpers for optional metrics.
func Int64Ptr(v int64) *int64 { return &v }

func Float64Ptr(v float64) *float64 { return &v }
