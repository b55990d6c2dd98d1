package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config contains runtime configuration for the service.
//
// External-service values are intentionally optional here: each client
// checks for the values it needs at call time, so a missing Mailchimp key
// surfaces as "newsletter service is not configured" on the subscribe
// path rather than preventing the process from booting.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string `env:"ADDR" envDefault:":8080"`

	// SiteURL is the public URL of the marketing site. Consumed by
	// sitemap/robots tooling elsewhere; here it only appears in startup
	// logging so operators can confirm which deployment they are on.
	SiteURL string `env:"SITE_URL"`

	// Mailchimp audience configuration.
	MailchimpAPIKey       string `env:"MAILCHIMP_API_KEY"`
	MailchimpServerPrefix string `env:"MAILCHIMP_SERVER_PREFIX"`
	MailchimpAudienceID   string `env:"MAILCHIMP_AUDIENCE_ID"`

	// Backup subscriber store. BackupDBURL is a Postgres connection URL;
	// BackupDBServiceKey, when set, overrides the password in that URL
	// with the privileged service credential.
	BackupDBURL        string `env:"BACKUP_DATABASE_URL"`
	BackupDBServiceKey string `env:"BACKUP_DATABASE_SERVICE_KEY"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// BackupConfigured reports whether both values required to reach the
// backup store are present.
func (c Config) BackupConfigured() bool {
	return c.BackupDBURL != "" && c.BackupDBServiceKey != ""
}

// PublicSiteURL resolves the public site URL. An explicit SITE_URL wins,
// with "https://" assumed when no scheme is given; otherwise a localhost
// URL matching the default listen address is returned.
func (c Config) PublicSiteURL() *url.URL {
	if c.SiteURL != "" {
		raw := c.SiteURL
		if !strings.HasPrefix(raw, "http") {
			raw = "https://" + raw
		}
		if u, err := url.Parse(raw); err == nil {
			return u
		}
	}
	u, _ := url.Parse("http://localhost:8080")
	return u
}
