package bootstrap

import (
	"log/slog"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/config"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/observability/notify/pagerduty"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/observability/notify/slack"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/observability/statsd"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/service/failurenotifier"
)

// buildMetrics returns a StatsD client. Dial failures degrade to a client that discards metrics.
func buildMetrics(cfg config.AppConfig, logger *slog.Logger) *statsd.Client {
	metricsCfg := cfg.Observability.Metrics
	client, err := statsd.NewClient(statsd.Config{
		Enabled: metricsCfg.IsEnabled(),
		Address: metricsCfg.StatsdAddress,
		Prefix:  metricsCfg.Prefix,
		Logger:  logger,
		GlobalTags: map[string]string{
			"env": cfg.Environment,
		},
	})
	if err != nil {
		logger.Warn("statsd client init failed; metrics disabled",
			"error", err,
			"address", metricsCfg.StatsdAddress,
		)
		client, _ = statsd.NewClient(statsd.Config{Prefix: metricsCfg.Prefix, Logger: logger})
	}
	return client
}

// buildFailureNotifier returns nil when notifications are disabled or no sink could be built.
func buildFailureNotifier(cfg config.ObservabilityNotificationsConfig, logger *slog.Logger) *failurenotifier.Service {
	if !cfg.Enabled {
		return nil
	}

	var sinks []failurenotifier.SinkRegistration

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:   cfg.Slack.WebhookURL,
			Channel:      cfg.Slack.Channel,
			Username:     cfg.Slack.Username,
			Timeout:      cfg.Timeout,
			RetryLimit:   cfg.RetryLimit,
			RunURLPrefix: cfg.Slack.RunURLPrefix,
		})
		if err != nil {
			logger.Warn("slack notifier init failed", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Warn("pagerduty notifier init failed", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}

	if len(sinks) == 0 {
		logger.Warn("failure notifications enabled but no sinks configured")
		return nil
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger: logger,
		Sinks:  sinks,
	})
}
