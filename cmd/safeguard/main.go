package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"safeguard-go/internal/backend/rest"
	"safeguard-go/internal/cli"
	"safeguard-go/internal/config"
	"safeguard-go/internal/geo"
	"safeguard-go/internal/logging"

	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadClient()

	logger, err := logging.New(cfg.Log, "safeguard-cli")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	app, cleanup, err := build(cfg, logger)
	if err != nil {
		cli.Notice(os.Stderr, err)
		os.Exit(1)
	}

	err = cli.Execute(context.Background(), app, cli.NewRootCommand(app))
	cleanup()
	if err != nil {
		cli.Notice(os.Stderr, err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func build(cfg config.ClientConfig, logger *zap.Logger) (*cli.App, func(), error) {
	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	client, err := rest.New(cfg.APIURL, rest.FileTokenStore{Path: cfg.TokenFile}, timeout, logger)
	if err != nil {
		return nil, nil, err
	}

	locator, closeLocator, err := newLocator(cfg, timeout)
	if err != nil {
		return nil, nil, err
	}
	resolver, err := geo.NewResolver(locator, cfg.NominatimURL, cfg.NominatimUserAgent, timeout, logger)
	if err != nil {
		closeLocator()
		return nil, nil, err
	}
	return cli.NewApp(client, resolver, logger), closeLocator, nil
}

// newLocator prefers configured device coordinates and falls back to a
// GeoIP estimate when a database is available.
func newLocator(cfg config.ClientConfig, timeout time.Duration) (geo.Locator, func(), error) {
	static := geo.StaticLocator{Latitude: cfg.DeviceLatitude, Longitude: cfg.DeviceLongitude}
	if (cfg.DeviceLatitude != nil && cfg.DeviceLongitude != nil) || cfg.GeoIPDBPath == "" {
		return static, func() {}, nil
	}
	locator, err := geo.NewGeoIPLocator(cfg.GeoIPDBPath, cfg.GeoIPAddress, cfg.PublicIPURL, resty.New().SetTimeout(timeout))
	if err != nil {
		return nil, nil, err
	}
	return locator, func() { _ = locator.Close() }, nil
}
