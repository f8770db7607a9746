package models

import "time"

// Proxy 是 ProxyRecord 的持久化行，ID 与看板中的 ID 保持一致
type Proxy struct {
	Meta
	Host       string     `json:"Host" gorm:"column:host;type:varchar(255);not null;index:idx_proxy_addr;comment:'主机或IP'"`
	Port       int        `json:"Port" gorm:"column:port;not null;index:idx_proxy_addr;comment:'端口'"`
	Username   string     `json:"Username" gorm:"column:username;type:varchar(128);not null;default:'';comment:'用户名'"`
	Password   string     `json:"Password" gorm:"column:password;type:varchar(128);not null;default:'';comment:'密码'"`
	ProxyType  string     `json:"ProxyType" gorm:"column:proxy_type;type:varchar(32);not null;default:http;comment:'代理类型'"`
	Status     string     `json:"Status" gorm:"column:status;type:varchar(16);not null;default:pending;index;comment:'状态'"`
	Ping       *int64     `json:"Ping" gorm:"column:ping;comment:'延迟ms'"`
	Speed      *float64   `json:"Speed" gorm:"column:speed;comment:'速度KB/s'"`
	Country    string     `json:"Country" gorm:"column:country;type:varchar(64);not null;default:'';index;comment:'国家'"`
	City       string     `json:"City" gorm:"column:city;type:varchar(64);not null;default:'';comment:'城市'"`
	Anonymity  string     `json:"Anonymity" gorm:"column:anonymity;type:varchar(16);not null;default:'';comment:'匿名等级'"`
	PublicIP   string     `json:"PublicIP" gorm:"column:public_ip;type:varchar(64);not null;default:'';comment:'出口IP'"`
	LastTested *time.Time `json:"LastTested" gorm:"column:last_tested;comment:'最近测试时间'"`
	Notes      string     `json:"Notes" gorm:"column:notes;type:varchar(512);not null;default:'';comment:'备注'"`
	GroupName  string     `json:"Group" gorm:"column:group_name;type:varchar(64);not null;default:'';index;comment:'分组'"`
}

func (Proxy) TableName() string {
	return "proxy"
}

func ProxyFromRecord(r ProxyRecord) *Proxy {
	return &Proxy{
		Meta:       Meta{ID: r.ID},
		Host:       r.Host,
		Port:       r.Port,
		Username:   r.Username,
		Password:   r.Password,
		ProxyType:  string(r.Type),
		Status:     string(r.Status),
		Ping:       r.Ping,
		Speed:      r.Speed,
		Country:    r.Country,
		City:       r.City,
		Anonymity:  string(r.Anonymity),
		PublicIP:   r.PublicIP,
		LastTested: r.LastTested,
		Notes:      r.Notes,
		GroupName:  r.Group,
	}
}

// ToRecord 非法的枚举值回退为默认值，不报错
func (p *Proxy) ToRecord() ProxyRecord {
	t, err := ParseProxyType(p.ProxyType)
	if err != nil {
		t = TypeHTTP
	}
	st, err := ParseStatus(p.Status)
	if err != nil {
		st = StatusPending
	}
	var anon Anonymity
	if p.Anonymity != "" {
		anon = ParseAnonymity(p.Anonymity)
	}

	return ProxyRecord{
		ID:         p.ID,
		Host:       p.Host,
		Port:       p.Port,
		Username:   p.Username,
		Password:   p.Password,
		Type:       t,
		Status:     st,
		Ping:       p.Ping,
		Speed:      p.Speed,
		Country:    p.Country,
		City:       p.City,
		Anonymity:  anon,
		PublicIP:   p.PublicIP,
		LastTested: p.LastTested,
		Notes:      p.Notes,
		Group:      p.GroupName,
	}
}
