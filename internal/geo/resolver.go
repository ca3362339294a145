package geo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"safeguard-go/internal/apperr"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

type PlaceKind int

const (
	// PlaceResolved carries a name returned by the geocoder.
	PlaceResolved PlaceKind = iota
	// PlaceFallback carries the raw "lat, lng" text because the lookup failed.
	PlaceFallback
)

func (k PlaceKind) String() string {
	if k == PlaceResolved {
		return "resolved"
	}
	return "fallback"
}

type Place struct {
	Kind      PlaceKind
	Name      string
	Latitude  float64
	Longitude float64
}

func (p Place) Resolved() bool {
	return p.Kind == PlaceResolved
}

func (p Place) String() string {
	return p.Name
}

func fallbackPlace(lat, lng float64) Place {
	return Place{
		Kind:      PlaceFallback,
		Name:      strconv.FormatFloat(lat, 'f', -1, 64) + ", " + strconv.FormatFloat(lng, 'f', -1, 64),
		Latitude:  lat,
		Longitude: lng,
	}
}

type nominatimReverse struct {
	Error   string `json:"error"`
	Address struct {
		City    string `json:"city"`
		Country string `json:"country"`
	} `json:"address"`
}

const placeCacheSize = 256

type Resolver struct {
	locator Locator
	http    *resty.Client
	places  *lru.Cache[string, Place]
	logger  *zap.Logger
}

func NewResolver(locator Locator, nominatimURL, userAgent string, timeout time.Duration, logger *zap.Logger) (*Resolver, error) {
	places, err := lru.New[string, Place](placeCacheSize)
	if err != nil {
		return nil, err
	}
	client := resty.New().
		SetBaseURL(nominatimURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	return &Resolver{locator: locator, http: client, places: places, logger: logger}, nil
}

// ResolveCurrentLocation asks the locator for one fix.
func (r *Resolver) ResolveCurrentLocation(ctx context.Context) (Coordinates, error) {
	coords, err := r.locator.Locate(ctx)
	if err != nil {
		return Coordinates{}, apperr.LocationUnavailable("resolve current location", err)
	}
	return coords, nil
}

// ReverseGeocode names the coordinates: city, else country. Any lookup
// failure yields a PlaceFallback; it never returns an error.
func (r *Resolver) ReverseGeocode(ctx context.Context, lat, lng float64) Place {
	key := fmt.Sprintf("%.4f,%.4f", lat, lng)
	if place, ok := r.places.Get(key); ok {
		return place
	}
	var body nominatimReverse
	resp, err := r.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":    strconv.FormatFloat(lat, 'f', -1, 64),
			"lon":    strconv.FormatFloat(lng, 'f', -1, 64),
			"format": "json",
		}).
		ForceContentType("application/json").
		SetResult(&body).
		Get("/reverse")
	if err != nil {
		r.logger.Debug("reverse geocode failed", zap.Error(err))
		return fallbackPlace(lat, lng)
	}
	if resp.IsError() || body.Error != "" {
		r.logger.Debug("reverse geocode rejected", zap.Int("status", resp.StatusCode()), zap.String("error", body.Error))
		return fallbackPlace(lat, lng)
	}
	name := body.Address.City
	if name == "" {
		name = body.Address.Country
	}
	if name == "" {
		return fallbackPlace(lat, lng)
	}
	place := Place{Kind: PlaceResolved, Name: name, Latitude: lat, Longitude: lng}
	r.places.Add(key, place)
	return place
}
