/*
@Date: 2025/7/2
@Author: max.liu
@File : enums
*/

package models

import (
	"fmt"
	"strings"
)

// Status 代理生命周期状态
type Status string

const (
	StatusPending Status = "pending"
	StatusTesting Status = "testing"
	StatusAlive   Status = "alive"
	StatusDead    Status = "dead"
)

var AllStatuses = []Status{StatusPending, StatusTesting, StatusAlive, StatusDead}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusTesting, StatusAlive, StatusDead:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// ProxyType 代理协议或来源类型
type ProxyType string

const (
	TypeHTTP        ProxyType = "http"
	TypeHTTPS       ProxyType = "https"
	TypeSOCKS4      ProxyType = "socks4"
	TypeSOCKS5      ProxyType = "socks5"
	TypeResidential ProxyType = "residential"
	TypeDatacenter  ProxyType = "datacenter"
	TypeMobile      ProxyType = "mobile"
)

var AllProxyTypes = []ProxyType{
	TypeHTTP, TypeHTTPS, TypeSOCKS4, TypeSOCKS5, TypeResidential, TypeDatacenter, TypeMobile,
}

func (t ProxyType) Valid() bool {
	switch t {
	case TypeHTTP, TypeHTTPS, TypeSOCKS4, TypeSOCKS5, TypeResidential, TypeDatacenter, TypeMobile:
		return true
	}
	return false
}

// IsScheme reports whether the type can appear as a URL scheme in a proxy string.
func (t ProxyType) IsScheme() bool {
	switch t {
	case TypeHTTP, TypeHTTPS, TypeSOCKS4, TypeSOCKS5:
		return true
	case TypeResidential, TypeDatacenter, TypeMobile:
		return false
	}
	return false
}

// ParseProxyType 空字符串返回默认的 http
func ParseProxyType(raw string) (ProxyType, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return TypeHTTP, nil
	}
	t := ProxyType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("unknown proxy type %q", raw)
	}
	return t, nil
}

// Anonymity 匿名等级
type Anonymity string

const (
	AnonymityUnknown     Anonymity = "unknown"
	AnonymityTransparent Anonymity = "transparent"
	AnonymityAnonymous   Anonymity = "anonymous"
	AnonymityElite       Anonymity = "elite"
)

var AllAnonymities = []Anonymity{AnonymityUnknown, AnonymityTransparent, AnonymityAnonymous, AnonymityElite}

func (a Anonymity) Valid() bool {
	switch a {
	case AnonymityUnknown, AnonymityTransparent, AnonymityAnonymous, AnonymityElite:
		return true
	}
	return false
}

// ParseAnonymity never fails: anything unrecognised is AnonymityUnknown.
func ParseAnonymity(raw string) Anonymity {
	a := Anonymity(strings.ToLower(strings.TrimSpace(raw)))
	if a.Valid() {
		return a
	}
	return AnonymityUnknown
}

// OperationType 批量操作类型
type OperationType string

const (
	OpDelete OperationType = "delete"
	OpUpdate OperationType = "update"
	OpTest   OperationType = "test"
	OpExport OperationType = "export"
)

// OperationStatus 批量操作状态
type OperationStatus string

const (
	OpPending   OperationStatus = "pending"
	OpRunning   OperationStatus = "running"
	OpCompleted OperationStatus = "completed"
	OpError     OperationStatus = "error"
	OpCancelled OperationStatus = "cancelled"
)

func (s OperationStatus) Terminal() bool {
	switch s {
	case OpCompleted, OpError, OpCancelled:
		return true
	case OpPending, OpRunning:
		return false
	}
	return false
}
