package geo

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

var ErrInvalidIP = errors.New("invalid ip address")

// Resolver fills country and city for a public IP.
type Resolver interface {
	Lookup(ip string) (country, city string, err error)
}

// GeoIP 基于 GeoLite2-City 数据库
type GeoIP struct {
	reader *geoip2.Reader
}

func Open(path string) (*GeoIP, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db %s: %w", path, err)
	}
	return &GeoIP{reader: reader}, nil
}

func (g *GeoIP) Lookup(ip string) (country, city string, err error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}

	record, err := g.reader.City(addr)
	if err != nil {
		return "", "", err
	}
	return record.Country.Names["en"], record.City.Names["en"], nil
}

func (g *GeoIP) Close() error {
	return g.reader.Close()
}
