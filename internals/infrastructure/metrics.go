package infrastructure

import (
	"fmt"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/phihc116/attr-backfill/internals/config"
)

// MetricsProvider is implemented by the no-op and DogStatsD backends.
type MetricsProvider interface {
	Count(name string, value float64, tags []string) error
	Gauge(name string, value float64, tags []string) error
	Close() error
}

type NoopProvider struct{}

func (NoopProvider) Count(string, float64, []string) error { return nil }
func (NoopProvider) Gauge(string, float64, []string) error { return nil }
func (NoopProvider) Close() error                          { return nil }

type DatadogProvider struct {
	client *statsd.Client
}

func (d *DatadogProvider) Count(name string, value float64, tags []string) error {
	return d.client.Count(name, int64(value), tags, 1)
}

func (d *DatadogProvider) Gauge(name string, value float64, tags []string) error {
	return d.client.Gauge(name, value, tags, 1)
}

func (d *DatadogProvider) Close() error {
	return d.client.Close()
}

// NewMetrics returns a DogStatsD provider when an address is configured, otherwise a no-op.
func NewMetrics(cfg config.MetricsConf) (MetricsProvider, error) {
	if cfg.DatadogAddr == "" {
		return NoopProvider{}, nil
	}

	client, err := statsd.New(cfg.DatadogAddr, statsd.WithNamespace(cfg.Namespace))
	if err != nil {
		return nil, fmt.Errorf("failed to create statsd client: %w", err)
	}
	return &DatadogProvider{client: client}, nil
}
