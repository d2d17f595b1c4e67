// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Every tunable has a default, so the service boots with an empty file; in
// practice only the upstream feed URL and SMTP settings change between
// deployments.
package config
