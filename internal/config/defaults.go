package config

import "time"

// Loader and sink kinds.
const (
	LoaderStore = "store"
	LoaderDir   = "dir"
	LoaderHTTP  = "http"
	LoaderRedis = "redis"

	SinkConsole = "console"
	SinkStore   = "store"
	SinkHTTP    = "http"
	SinkAMQP    = "amqp"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = 32 << 20
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/crmsheet/data/records.db"
	}
	if cfg.Loader.Kind == "" {
		cfg.Loader.Kind = LoaderStore
	}
	if cfg.Loader.HTTP.Timeout == 0 {
		cfg.Loader.HTTP.Timeout = 30 * time.Second
	}
	if cfg.Loader.Redis.Addr == "" {
		cfg.Loader.Redis.Addr = "localhost:6379"
	}
	if cfg.Loader.Redis.KeyPrefix == "" {
		cfg.Loader.Redis.KeyPrefix = "crmsheet:record:"
	}
	if cfg.Sink.Kind == "" {
		cfg.Sink.Kind = SinkConsole
	}
	if cfg.Sink.HTTP.Timeout == 0 {
		cfg.Sink.HTTP.Timeout = 30 * time.Second
	}
	if cfg.Sink.AMQP.RoutingKey == "" {
		cfg.Sink.AMQP.RoutingKey = "crmsheet.tables"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".xlsx", ".xlsm"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
	if len(cfg.Sheets) == 0 {
		cfg.Sheets = []SheetConfig{{Name: "Business Summary", Ranges: []string{"C3:D15"}}}
	}
}
