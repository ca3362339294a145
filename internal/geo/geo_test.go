package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"safeguard-go/internal/apperr"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newResolver(t *testing.T, locator Locator, handler http.HandlerFunc) *Resolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	r, err := NewResolver(locator, srv.URL, "safeguard-test", 2*time.Second, zap.NewNop())
	require.NoError(t, err)
	return r
}

func floatPtr(v float64) *float64 { return &v }

func TestResolveCurrentLocation(t *testing.T) {
	r := newResolver(t, StaticLocator{Latitude: floatPtr(44.4268), Longitude: floatPtr(26.1025)}, nil)
	coords, err := r.ResolveCurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 44.4268, coords.Latitude)
	assert.Equal(t, 26.1025, coords.Longitude)
}

func TestResolveCurrentLocationUnavailable(t *testing.T) {
	r := newResolver(t, StaticLocator{}, nil)
	_, err := r.ResolveCurrentLocation(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrLocationUnavailable))
	assert.True(t, errors.Is(err, ErrNoFix))
}

func TestReverseGeocodePrefersCityAndCaches(t *testing.T) {
	var calls int32
	r := newResolver(t, StaticLocator{}, func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/reverse", req.URL.Path)
		assert.Equal(t, "json", req.URL.Query().Get("format"))
		assert.Equal(t, "44.4268", req.URL.Query().Get("lat"))
		assert.Equal(t, "26.1025", req.URL.Query().Get("lon"))
		assert.Equal(t, "safeguard-test", req.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"address":{"city":"Bucharest","country":"Romania"}}`))
	})

	place := r.ReverseGeocode(context.Background(), 44.4268, 26.1025)
	assert.Equal(t, PlaceResolved, place.Kind)
	assert.Equal(t, "Bucharest", place.Name)

	again := r.ReverseGeocode(context.Background(), 44.4268, 26.1025)
	assert.Equal(t, place, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReverseGeocodeCountryWhenNoCity(t *testing.T) {
	r := newResolver(t, StaticLocator{}, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"address":{"country":"Romania"}}`))
	})
	place := r.ReverseGeocode(context.Background(), 45.5, 25.5)
	assert.True(t, place.Resolved())
	assert.Equal(t, "Romania", place.Name)
}

func TestReverseGeocodeFallbacks(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		"unparseable": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>rate limited</html>"))
		},
		"geocoder error": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
		},
		"empty address": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"address":{}}`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			r := newResolver(t, StaticLocator{}, handler)
			place := r.ReverseGeocode(context.Background(), 44.4268, 26.1025)
			assert.Equal(t, PlaceFallback, place.Kind)
			assert.Equal(t, "44.4268, 26.1025", place.Name)
			assert.Equal(t, "fallback", place.Kind.String())
		})
	}
}

func TestReverseGeocodeUnreachable(t *testing.T) {
	r, err := NewResolver(StaticLocator{}, "http://127.0.0.1:1", "safeguard-test", time.Second, zap.NewNop())
	require.NoError(t, err)
	place := r.ReverseGeocode(context.Background(), -33.9, 18.4)
	assert.Equal(t, PlaceFallback, place.Kind)
	assert.Equal(t, "-33.9, 18.4", place.String())
}

func TestDiscoverPublicIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("203.0.113.7\n"))
	}))
	defer srv.Close()

	ip, err := discoverPublicIP(context.Background(), resty.New(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", ip)
}

func TestNewGeoIPLocatorMissingDatabase(t *testing.T) {
	_, err := NewGeoIPLocator("/nonexistent/GeoLite2-City.mmdb", "", "", resty.New())
	assert.Error(t, err)
}
