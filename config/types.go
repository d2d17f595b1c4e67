package config

import "time"

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port        int      `yaml:"port" validate:"gt=0"`
	CORSOrigins []string `yaml:"corsOrigins"`
}

// FeedConfig contains upstream vehicle-position feed configuration
type FeedConfig struct {
	URL             string `yaml:"url" validate:"omitempty,url"`
	Format          string `yaml:"format" validate:"omitempty,oneof=json gtfsrt"`
	UserAgent       string `yaml:"userAgent"`
	TimeoutMS       int    `yaml:"timeoutMS" validate:"gte=0"`
	CacheTTLSeconds int    `yaml:"cacheTTLSeconds" validate:"gte=0"`
}

// AlertsConfig contains proximity-matching and persistence configuration
type AlertsConfig struct {
	StorePath            string  `yaml:"storePath"`
	LedgerPath           string  `yaml:"ledgerPath"`
	ProximityKM          float64 `yaml:"proximityKM" validate:"gte=0"`
	CooldownSeconds      int     `yaml:"cooldownSeconds" validate:"gte=0"`
	CheckIntervalSeconds int     `yaml:"checkIntervalSeconds" validate:"gte=0"`
}

// SMTPConfig contains outbound mail configuration. The account password is
// never stored in the config file; it is read from the environment variable
// named by PasswordEnv.
type SMTPConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port" validate:"gte=0"`
	From        string `yaml:"from" validate:"omitempty,email"`
	PasswordEnv string `yaml:"passwordEnv"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server   ServerConfig `yaml:"server"`
	Feed     FeedConfig   `yaml:"feed"`
	Alerts   AlertsConfig `yaml:"alerts"`
	SMTP     SMTPConfig   `yaml:"smtp"`
	Timezone string       `yaml:"timezone"`
}

// Timeout returns the upstream fetch timeout as a duration.
func (f FeedConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutMS) * time.Millisecond
}

// CacheTTL returns the snapshot cache time-to-live as a duration.
func (f FeedConfig) CacheTTL() time.Duration {
	return time.Duration(f.CacheTTLSeconds) * time.Second
}

// Cooldown returns the per-(subscriber, vehicle) notification cooldown.
func (a AlertsConfig) Cooldown() time.Duration {
	return time.Duration(a.CooldownSeconds) * time.Second
}

// CheckInterval returns the matcher cadence used by watch mode.
func (a AlertsConfig) CheckInterval() time.Duration {
	return time.Duration(a.CheckIntervalSeconds) * time.Second
}
