package config

import (
	"fmt"
	"time"
)

// ClientApp holds client-side application settings derived from the shared
// structured config.
type ClientApp struct {
	// DeviceName labels this installation in updated_by audit fields.
	DeviceName string
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the HTTP endpoint address of the remote server.
	HTTPAddress string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	// DSN is the SQLite file path used for the local replica.
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB
}

// ClientNetwork contains the reachability probe settings.
type ClientNetwork struct {
	// ProbeInterval defines how often the liveness probe runs.
	ProbeInterval time.Duration
	// ProbeTimeout bounds a single probe.
	ProbeTimeout time.Duration
}

// ClientSync contains sync driver and retry settings.
type ClientSync struct {
	// Interval defines how often the background drain trigger fires.
	Interval time.Duration
	// RetryCap caps automatic requeue rounds for FAILED entries.
	RetryCap int
	// BackoffBase is the first delay of the exponential requeue backoff.
	BackoffBase time.Duration
	// BackoffCap bounds the exponential requeue backoff.
	BackoffCap time.Duration
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// App contains application-level client settings.
	App ClientApp
	// Adapter contains client transport addresses and timeouts.
	Adapter ClientAdapter
	// Storage contains client storage settings.
	Storage ClientStorage
	// Network contains reachability probe settings.
	Network ClientNetwork
	// Sync contains drain and retry settings.
	Sync ClientSync
}

// GetClientConfig builds and validates a client-specific config view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the client runtime, and validates the resulting [ClientConfig].
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		App: ClientApp{
			DeviceName: cfg.App.DeviceName,
		},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			DB: ClientDB{
				DSN: cfg.Storage.DB.DSN,
			},
		},
		Network: ClientNetwork{
			ProbeInterval: cfg.Network.ProbeInterval,
			ProbeTimeout:  cfg.Network.ProbeTimeout,
		},
		Sync: ClientSync{
			Interval:    cfg.Sync.Interval,
			RetryCap:    cfg.Sync.RetryCap,
			BackoffBase: cfg.Sync.BackoffBase,
			BackoffCap:  cfg.Sync.BackoffCap,
		},
	}

	clientCfg.applyDefaults()

	return clientCfg, clientCfg.validate()
}

// applyDefaults fills the optional tuning knobs a deployment rarely sets.
func (cfg *ClientConfig) applyDefaults() {
	if cfg.App.DeviceName == "" {
		cfg.App.DeviceName = "client"
	}
	if cfg.Network.ProbeInterval == 0 {
		cfg.Network.ProbeInterval = 30 * time.Second
	}
	if cfg.Network.ProbeTimeout == 0 {
		cfg.Network.ProbeTimeout = 3 * time.Second
	}
	if cfg.Sync.RetryCap == 0 {
		cfg.Sync.RetryCap = 5
	}
	if cfg.Sync.BackoffBase == 0 {
		cfg.Sync.BackoffBase = 2 * time.Second
	}
	if cfg.Sync.BackoffCap == 0 {
		cfg.Sync.BackoffCap = 2 * time.Minute
	}
}
