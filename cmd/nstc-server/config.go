package main

import (
	"nstcaward-backend/internal/configutil"
	"nstcaward-backend/internal/scrapers/nstc"
	"path/filepath"
	"time"
)

type HttpConfig struct {
	Port        int      `json:"port"`
	CorsOrigins []string `json:"cors_origins"`
}

type CacheConfig struct {
	TtlSeconds     int `json:"ttl_seconds"`
	CleanupSeconds int `json:"cleanup_seconds"`
}

type Config struct {
	BaseUrl        string      `json:"base_url"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	DetailWorkers  int         `json:"detail_workers"`
	Http           HttpConfig  `json:"http"`
	Cache          CacheConfig `json:"cache"`
}

var defaultConfig = Config{
	BaseUrl:        nstc.DefaultBaseUrl,
	TimeoutSeconds: int(nstc.DefaultTimeout / time.Second),
	DetailWorkers:  nstc.DefaultDetailWorkers,
	Http: HttpConfig{
		Port:        8000,
		CorsOrigins: []string{"*"},
	},
	Cache: CacheConfig{
		TtlSeconds:     3600,
		CleanupSeconds: 600,
	},
}

// loadConfig reads the config file, a missing file runs on the defaults. A
// bare file name is searched for from the working directory upwards.
func loadConfig(path string) (Config, error) {
	read := configutil.ReadConfig[Config]
	if filepath.Base(path) == path {
		read = configutil.ReadRecursively[Config]
	}
	cfg, err := read(path)
	if err != nil && !isNotExist(err) {
		return Config{}, err
	}
	return configutil.WithDefaults(cfg, defaultConfig)
}

func (c Config) ClientOptions() nstc.ClientOptions {
	return nstc.ClientOptions{
		BaseUrl:       c.BaseUrl,
		Timeout:       time.Duration(c.TimeoutSeconds) * time.Second,
		DetailWorkers: c.DetailWorkers,
	}
}
