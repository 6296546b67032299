// Package app wires configuration into a ready analysis service.
package app

import (
	"time"

	"phishguard/internal/analysis"
	"phishguard/internal/classifier"
	"phishguard/internal/config"
	"phishguard/internal/crawler"
	"phishguard/internal/features"
	"phishguard/internal/lookup"
	"phishguard/pkg/logger"
)

const dialTimeout = 5 * time.Second

// NewExtractor builds the extractor with live collaborators.
func NewExtractor(cfg config.Config, log *logger.Logger) *features.Extractor {
	ex := &features.Extractor{
		Fetcher:    crawler.NewHTTPClient(cfg.RequestTimeout, dialTimeout, cfg.MaxBodyBytes, cfg.UserAgent),
		Whois:      lookup.NewWhoisClient(cfg.WhoisTimeout, cfg.WhoisRate),
		Certs:      lookup.NewCertProber(cfg.TLSTimeout),
		Shorteners: cfg.Shorteners,
		Timeouts: features.Timeouts{
			Fetch:      cfg.RequestTimeout,
			Whois:      cfg.WhoisTimeout,
			TLS:        cfg.TLSTimeout,
			Reputation: cfg.FeedTimeout,
		},
		Log: log,
	}
	// the interface must stay nil when the feed is off
	if cfg.OpenPhishURL != "" {
		ex.Reputation = lookup.NewOpenPhishFeed(cfg.OpenPhishURL, cfg.FeedTimeout)
	}
	return ex
}

// NewService loads the model registry and returns the analysis service.
// Models that fail to load are reported unavailable, never fatal.
func NewService(cfg config.Config, log *logger.Logger) *analysis.Service {
	reg := classifier.LoadRegistry(cfg.ModelsDir, classifier.DefaultModels, features.Names(), log)
	log.Info("model registry ready", "loaded", len(reg.Available()), "unavailable", reg.Unavailable())
	return analysis.NewService(NewExtractor(cfg, log), reg, log)
}

func NewLogger(cfg config.Config) *logger.Logger {
	return logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
}
