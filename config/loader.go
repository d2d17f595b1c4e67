package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults match the production Rio de Janeiro SPPO deployment.
const (
	DefaultFeedURL         = "https://dados.mobilidade.rio/gps/sppo"
	DefaultUserAgent       = "Mozilla/5.0"
	DefaultTimezone        = "America/Sao_Paulo"
	defaultPort            = 8000
	defaultTimeoutMS       = 15000
	defaultCacheTTLSeconds = 45
	defaultProximityKM     = 1.5
	defaultCooldownSeconds = 1800
	defaultCheckSeconds    = 60
	defaultStorePath       = "alerts.json"
	defaultLedgerPath      = "sent_notifications.json"
	defaultSMTPPort        = 465
)

// Load reads and validates the application configuration. The search order
// is the explicit path argument, the BUSALERTS_CONFIG environment variable,
// and finally ./config.yml. A missing file is not an error; defaults apply.
func Load(path string) (AppConfig, error) {
	paths := []string{}
	if path != "" {
		paths = append(paths, path)
	}
	if env := os.Getenv("BUSALERTS_CONFIG"); env != "" {
		paths = append(paths, env)
	}
	paths = append(paths, "config.yml")

	var cfg AppConfig
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, err
		}
		break
	}

	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Feed.URL == "" {
		cfg.Feed.URL = DefaultFeedURL
	}
	if cfg.Feed.Format == "" {
		cfg.Feed.Format = "json"
	}
	if cfg.Feed.UserAgent == "" {
		cfg.Feed.UserAgent = DefaultUserAgent
	}
	if cfg.Feed.TimeoutMS == 0 {
		cfg.Feed.TimeoutMS = defaultTimeoutMS
	}
	if cfg.Feed.CacheTTLSeconds == 0 {
		cfg.Feed.CacheTTLSeconds = defaultCacheTTLSeconds
	}
	if cfg.Alerts.StorePath == "" {
		cfg.Alerts.StorePath = defaultStorePath
	}
	if cfg.Alerts.LedgerPath == "" {
		cfg.Alerts.LedgerPath = defaultLedgerPath
	}
	if cfg.Alerts.ProximityKM == 0 {
		cfg.Alerts.ProximityKM = defaultProximityKM
	}
	if cfg.Alerts.CooldownSeconds == 0 {
		cfg.Alerts.CooldownSeconds = defaultCooldownSeconds
	}
	if cfg.Alerts.CheckIntervalSeconds == 0 {
		cfg.Alerts.CheckIntervalSeconds = defaultCheckSeconds
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = defaultSMTPPort
	}
	if cfg.SMTP.PasswordEnv == "" {
		cfg.SMTP.PasswordEnv = "EMAIL_HOST_PASSWORD"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
}

// Location resolves the configured operational time zone. "Today" and
// time-of-day strings are always computed in this zone, never in the host's.
func (c AppConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
