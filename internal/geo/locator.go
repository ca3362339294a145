// Package geo resolves the device position and turns coordinates into a
// display name.
package geo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/oschwald/geoip2-golang"
)

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Locator is a one-shot position source.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

var ErrNoFix = errors.New("no position fix available")

// StaticLocator reports a fixed position, typically from configuration.
type StaticLocator struct {
	Latitude  *float64
	Longitude *float64
}

func (l StaticLocator) Locate(ctx context.Context) (Coordinates, error) {
	if l.Latitude == nil || l.Longitude == nil {
		return Coordinates{}, ErrNoFix
	}
	return Coordinates{Latitude: *l.Latitude, Longitude: *l.Longitude}, nil
}

// GeoIPLocator estimates the position from the public IP address using a
// MaxMind City database.
type GeoIPLocator struct {
	reader      *geoip2.Reader
	address     string
	publicIPURL string
	http        *resty.Client
}

// NewGeoIPLocator opens the database at dbPath. When address is empty the
// public address is fetched from publicIPURL on every Locate.
func NewGeoIPLocator(dbPath, address, publicIPURL string, http *resty.Client) (*GeoIPLocator, error) {
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &GeoIPLocator{reader: reader, address: address, publicIPURL: publicIPURL, http: http}, nil
}

func (l *GeoIPLocator) Close() error {
	return l.reader.Close()
}

func (l *GeoIPLocator) Locate(ctx context.Context) (Coordinates, error) {
	address := l.address
	if address == "" {
		discovered, err := discoverPublicIP(ctx, l.http, l.publicIPURL)
		if err != nil {
			return Coordinates{}, err
		}
		address = discovered
	}
	ip := net.ParseIP(address)
	if ip == nil {
		return Coordinates{}, fmt.Errorf("invalid ip address %q", address)
	}
	record, err := l.reader.City(ip)
	if err != nil {
		return Coordinates{}, err
	}
	if record.Location.Latitude == 0 && record.Location.Longitude == 0 {
		return Coordinates{}, ErrNoFix
	}
	return Coordinates{Latitude: record.Location.Latitude, Longitude: record.Location.Longitude}, nil
}

func discoverPublicIP(ctx context.Context, http *resty.Client, url string) (string, error) {
	resp, err := http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("discover public ip: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("discover public ip: %s", resp.Status())
	}
	return strings.TrimSpace(resp.String()), nil
}
