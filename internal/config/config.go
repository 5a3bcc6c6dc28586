package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress          string
	BackendAddress      string
	BackendServiceToken string
	BackendTimeout      time.Duration
	DatabaseURI         string
	GeocoderAddress     string
	GeocodeTimeout      time.Duration
	ConfirmPollInterval time.Duration
	ConfirmMaxAttempts  int
	SessionTTL          time.Duration
	ReconcileInterval   time.Duration
	ReconcileBatch      int
	WorkerPoolSize      int
	ShutdownTimeout     time.Duration
	LogLevel            string
	Currency            string
	MerchantName        string
}

const (
	defaultRunAddress          = ":8080"
	defaultBackendTimeout      = 10 * time.Second
	defaultGeocoderAddress     = "https://nominatim.openstreetmap.org"
	defaultGeocodeTimeout      = 3 * time.Second
	defaultConfirmPollInterval = 500 * time.Millisecond
	defaultConfirmMaxAttempts  = 4
	defaultSessionTTL          = 30 * time.Minute
	defaultReconcileInterval   = 30 * time.Second
	defaultReconcileBatch      = 32
	defaultWorkerPoolSize      = 4
	defaultShutdownTimeout     = 10 * time.Second
	defaultLogLevel            = "info"
	defaultCurrency            = "INR"
	defaultMerchantName        = "Storefront"
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

type durationFlag struct {
	name string
	raw  string
	dst  *time.Duration
}

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:          getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		BackendAddress:      getString(lookup, "BACKEND_ADDRESS", ""),
		BackendServiceToken: getString(lookup, "BACKEND_SERVICE_TOKEN", ""),
		BackendTimeout:      getDuration(lookup, "BACKEND_TIMEOUT", defaultBackendTimeout),
		DatabaseURI:         getString(lookup, "DATABASE_URI", ""),
		GeocoderAddress:     getString(lookup, "GEOCODER_ADDRESS", defaultGeocoderAddress),
		GeocodeTimeout:      getDuration(lookup, "GEOCODE_TIMEOUT", defaultGeocodeTimeout),
		ConfirmPollInterval: getDuration(lookup, "CONFIRM_POLL_INTERVAL", defaultConfirmPollInterval),
		ConfirmMaxAttempts:  getInt(lookup, "CONFIRM_MAX_ATTEMPTS", defaultConfirmMaxAttempts),
		SessionTTL:          getDuration(lookup, "SESSION_TTL", defaultSessionTTL),
		ReconcileInterval:   getDuration(lookup, "RECONCILE_INTERVAL", defaultReconcileInterval),
		ReconcileBatch:      getInt(lookup, "RECONCILE_BATCH", defaultReconcileBatch),
		WorkerPoolSize:      getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:     getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LogLevel:            getString(lookup, "LOG_LEVEL", defaultLogLevel),
		Currency:            getString(lookup, "CURRENCY", defaultCurrency),
		MerchantName:        getString(lookup, "MERCHANT_NAME", defaultMerchantName),
	}

	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	durations := []*durationFlag{
		{name: "backend timeout", raw: cfg.BackendTimeout.String(), dst: &cfg.BackendTimeout},
		{name: "geocode timeout", raw: cfg.GeocodeTimeout.String(), dst: &cfg.GeocodeTimeout},
		{name: "confirm interval", raw: cfg.ConfirmPollInterval.String(), dst: &cfg.ConfirmPollInterval},
		{name: "session ttl", raw: cfg.SessionTTL.String(), dst: &cfg.SessionTTL},
		{name: "reconcile interval", raw: cfg.ReconcileInterval.String(), dst: &cfg.ReconcileInterval},
		{name: "shutdown timeout", raw: cfg.ShutdownTimeout.String(), dst: &cfg.ShutdownTimeout},
	}

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.BackendAddress, "b", cfg.BackendAddress, "Storefront backend base URL")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.GeocoderAddress, "g", cfg.GeocoderAddress, "Reverse geocoder base URL")
	fs.StringVar(&durations[0].raw, "backend-timeout", durations[0].raw, "Backend request timeout")
	fs.StringVar(&durations[1].raw, "geocode-timeout", durations[1].raw, "Reverse geocoding timeout")
	fs.StringVar(&durations[2].raw, "confirm-interval", durations[2].raw, "Interval between deferred confirmation polls")
	fs.IntVar(&cfg.ConfirmMaxAttempts, "confirm-attempts", cfg.ConfirmMaxAttempts, "Maximum deferred confirmation polls")
	fs.StringVar(&durations[3].raw, "session-ttl", durations[3].raw, "Idle checkout session lifetime")
	fs.StringVar(&durations[4].raw, "reconcile-interval", durations[4].raw, "Interval between reconciliation passes")
	fs.IntVar(&cfg.ReconcileBatch, "reconcile-batch", cfg.ReconcileBatch, "Maximum attempts per reconciliation pass")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent reconciliation workers")
	fs.StringVar(&durations[5].raw, "shutdown-timeout", durations[5].raw, "Graceful shutdown timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.Currency, "currency", cfg.Currency, "Gateway currency code")
	fs.StringVar(&cfg.MerchantName, "merchant", cfg.MerchantName, "Merchant name shown by the gateway")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	for _, d := range durations {
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	if tokenFile, ok := lookup("BACKEND_SERVICE_TOKEN_FILE"); ok && tokenFile != "" {
		content, err := os.ReadFile(tokenFile)
		if err != nil {
			return nil, fmt.Errorf("read backend service token file: %w", err)
		}
		cfg.BackendServiceToken = strings.TrimSpace(string(content))
	}

	normalize(cfg)

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.BackendAddress == "" {
		return nil, fmt.Errorf("backend address must be provided")
	}

	return cfg, nil
}

func normalize(cfg *Config) {
	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = defaultBackendTimeout
	}
	if cfg.GeocodeTimeout <= 0 {
		cfg.GeocodeTimeout = defaultGeocodeTimeout
	}
	if cfg.ConfirmPollInterval <= 0 {
		cfg.ConfirmPollInterval = defaultConfirmPollInterval
	}
	if cfg.ConfirmMaxAttempts <= 0 {
		cfg.ConfirmMaxAttempts = defaultConfirmMaxAttempts
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = defaultReconcileInterval
	}
	if cfg.ReconcileBatch <= 0 {
		cfg.ReconcileBatch = defaultReconcileBatch
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
