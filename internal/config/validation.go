package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/classifier"
)

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true,
	"error": true, "disabled": true, "off": true,
}

// Validate checks enumerations, ranges and cron specs. The first problem is
// returned as an *InvalidConfigError.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case SourceCSV, SourceSQLite:
	default:
		return invalid("catalog.source", fmt.Sprintf("unknown source %q", c.Catalog.Source),
			"Use csv or sqlite")
	}
	if !catalog.InvalidRowPolicy(c.Catalog.InvalidRows).Valid() {
		return invalid("catalog.invalid_rows", fmt.Sprintf("unknown policy %q", c.Catalog.InvalidRows),
			"Use reject or skip")
	}

	if err := c.Classifier.validate(); err != nil {
		return err
	}

	if c.Server.Addr == "" {
		return invalid("server.addr", "must not be empty", `Use a listen address such as ":8080"`)
	}
	if c.Server.RateLimit < 0 {
		return invalid("server.rate_limit", "must not be negative", "Set 0 to disable rate limiting")
	}
	if c.Server.RateLimit > 0 && c.Server.RateLimitWindow <= 0 {
		return invalid("server.rate_limit_window", "must be positive when rate_limit is set", "Use a duration such as 1m")
	}

	if c.Storage.Retention < 0 {
		return invalid("storage.retention", "must not be negative", "Set 0 to keep history forever")
	}

	for _, job := range []struct{ field, spec string }{
		{"scheduler.cleanup_cron", c.Scheduler.CleanupCron},
		{"scheduler.reload_cron", c.Scheduler.ReloadCron},
	} {
		if job.spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(job.spec); err != nil {
			return invalid(job.field, err.Error(), `Use a 5-field cron spec or a descriptor such as "@daily"`)
		}
	}

	if !logLevels[strings.ToLower(c.Log.Level)] {
		return invalid("log.level", fmt.Sprintf("unknown level %q", c.Log.Level), "Use debug, info, warn or error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return invalid("log.format", fmt.Sprintf("unknown format %q", c.Log.Format), "Use json or console")
	}
	return nil
}

func (c ClassifierConfig) validate() error {
	switch c.Kind {
	case "", classifier.KindThreshold:
	case classifier.KindProcess:
		if c.Command == "" {
			return invalid("classifier.command", "required when kind is process",
				"Point it at the model server executable")
		}
	default:
		return invalid("classifier.kind", fmt.Sprintf("unknown kind %q", c.Kind), "Use process or threshold")
	}
	if c.Timeout <= 0 {
		return invalid("classifier.timeout", "must be positive", "Use a duration such as 30s")
	}
	if c.BatchSize <= 0 {
		return invalid("classifier.batch_size", "must be positive", "The default is 512")
	}
	return nil
}

// ClassifierSettings converts to the classifier package's config.
func (c ClassifierConfig) ClassifierSettings() classifier.Config {
	return classifier.Config{
		Kind:            c.Kind,
		Command:         c.Command,
		Args:            c.Args,
		Env:             c.Env,
		Timeout:         c.Timeout,
		BreakerFailures: c.BreakerFailures,
		BreakerCooldown: c.BreakerCooldown,
	}
}

func invalid(field, msg, hint string) *InvalidConfigError {
	return &InvalidConfigError{Field: field, Message: msg, Hint: hint}
}
