package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	kitlogrus "github.com/go-kit/kit/log/logrus"
	"github.com/go-kit/kit/metrics"
	discardMetrics "github.com/go-kit/kit/metrics/discard"
	expvarMetrics "github.com/go-kit/kit/metrics/expvar"
	kitinflux "github.com/go-kit/kit/metrics/influx"
	prometheusMetrics "github.com/go-kit/kit/metrics/prometheus"
	influx "github.com/influxdata/influxdb1-client/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/slp-responder/slp-responder/config"
)

// MetricsBuilder constructs a ResponderMetrics bundle wired to one of the
// supported backends and, for backends needing a background reporting
// loop (influxdb), starts it.
type MetricsBuilder interface {
	BuildResponderMetrics() *ResponderMetrics
	Start(ctx context.Context) error
}

const (
	MetricsBackendExpvar     = "expvar"
	MetricsBackendPrometheus = "prometheus"
	MetricsBackendInfluxDB   = "influxdb"
	MetricsBackendDiscard    = "discard"
)

// ResponderMetrics are the counters and gauges emitted while servicing
// status/ping/legacy-ping/login-kick traffic.
type ResponderMetrics struct {
	StatusServed       metrics.Counter
	PingServed         metrics.Counter
	LegacyPingsServed  metrics.Counter
	LoginsKicked       metrics.Counter
	Errors             metrics.Counter
	ActiveConnections  metrics.Gauge
	BytesTransmitted   metrics.Counter
	RateLimitAvailable metrics.Gauge
}

// NewMetricsBuilder creates a new MetricsBuilder based on the specified
// backend. An unrecognized backend falls back to discard. cfg may be nil
// unless backend is influxdb.
func NewMetricsBuilder(backend string, cfg *config.MetricsBackendConfig) MetricsBuilder {
	switch strings.ToLower(backend) {
	case MetricsBackendExpvar:
		return &expvarMetricsBuilder{}
	case MetricsBackendPrometheus:
		return &prometheusMetricsBuilder{}
	case MetricsBackendInfluxDB:
		return &influxMetricsBuilder{config: cfg}
	case MetricsBackendDiscard:
		return &discardMetricsBuilder{}
	default:
		return &discardMetricsBuilder{}
	}
}

type expvarMetricsBuilder struct{}

func (b expvarMetricsBuilder) Start(ctx context.Context) error { return nil }

func (b expvarMetricsBuilder) BuildResponderMetrics() *ResponderMetrics {
	return &ResponderMetrics{
		StatusServed:       expvarMetrics.NewCounter("status_served"),
		PingServed:         expvarMetrics.NewCounter("ping_served"),
		LegacyPingsServed:  expvarMetrics.NewCounter("legacy_pings_served"),
		LoginsKicked:       expvarMetrics.NewCounter("logins_kicked"),
		Errors:             expvarMetrics.NewCounter("errors"),
		ActiveConnections:  expvarMetrics.NewGauge("active_connections"),
		BytesTransmitted:   expvarMetrics.NewCounter("bytes_transmitted"),
		RateLimitAvailable: expvarMetrics.NewGauge("rate_limit_available"),
	}
}

type discardMetricsBuilder struct{}

func (b discardMetricsBuilder) Start(ctx context.Context) error { return nil }

func (b discardMetricsBuilder) BuildResponderMetrics() *ResponderMetrics {
	return &ResponderMetrics{
		StatusServed:       discardMetrics.NewCounter(),
		PingServed:         discardMetrics.NewCounter(),
		LegacyPingsServed:  discardMetrics.NewCounter(),
		LoginsKicked:       discardMetrics.NewCounter(),
		Errors:             discardMetrics.NewCounter(),
		ActiveConnections:  discardMetrics.NewGauge(),
		BytesTransmitted:   discardMetrics.NewCounter(),
		RateLimitAvailable: discardMetrics.NewGauge(),
	}
}

type influxMetricsBuilder struct {
	config  *config.MetricsBackendConfig
	metrics *kitinflux.Influx
}

func (b *influxMetricsBuilder) Start(ctx context.Context) error {
	influxConfig := &b.config.Influxdb
	if influxConfig.Addr == "" {
		return errors.New("influx addr is required")
	}

	ticker := time.NewTicker(influxConfig.Interval)
	client, err := influx.NewHTTPClient(influx.HTTPConfig{
		Addr:     influxConfig.Addr,
		Username: influxConfig.Username,
		Password: influxConfig.Password,
	})
	if err != nil {
		return fmt.Errorf("failed to create influx http client: %w", err)
	}

	go b.metrics.WriteLoop(ctx, ticker.C, client)

	logrus.WithField("addr", influxConfig.Addr).Debug("reporting metrics to influxdb")
	return nil
}

func (b *influxMetricsBuilder) BuildResponderMetrics() *ResponderMetrics {
	influxConfig := &b.config.Influxdb

	m := kitinflux.New(influxConfig.Tags, influx.BatchPointsConfig{
		Database: influxConfig.Database,
	}, kitlogrus.NewLogger(logrus.StandardLogger()))

	b.metrics = m

	return &ResponderMetrics{
		StatusServed:       m.NewCounter("slp_responder_status_served"),
		PingServed:         m.NewCounter("slp_responder_ping_served"),
		LegacyPingsServed:  m.NewCounter("slp_responder_legacy_pings_served"),
		LoginsKicked:       m.NewCounter("slp_responder_logins_kicked"),
		Errors:             m.NewCounter("slp_responder_errors"),
		ActiveConnections:  m.NewGauge("slp_responder_active_connections"),
		BytesTransmitted:   m.NewCounter("slp_responder_bytes_transmitted"),
		RateLimitAvailable: m.NewGauge("slp_responder_rate_limit_available"),
	}
}

type prometheusMetricsBuilder struct{}

func (b prometheusMetricsBuilder) Start(ctx context.Context) error { return nil }

func (b prometheusMetricsBuilder) BuildResponderMetrics() *ResponderMetrics {
	return &ResponderMetrics{
		StatusServed: prometheusMetrics.NewCounter(promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slp_responder",
			Name:      "status_served_total",
			Help:      "The total number of status replies served",
		}, nil)),
		PingServed: prometheusMetrics.NewCounter(promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slp_responder",
			Name:      "ping_served_total",
			Help:      "The total number of ping/pong replies served",
		}, nil)),
		LegacyPingsServed: prometheusMetrics.NewCounter(promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slp_responder",
			Name:      "legacy_pings_served_total",
			Help:      "The total number of legacy (1.6) ping replies served",
		}, nil)),
		LoginsKicked: prometheusMetrics.NewCounter(promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slp_responder",
			Name:      "logins_kicked_total",
			Help:      "The total number of login attempts kicked",
		}, nil)),
		Errors: prometheusMetrics.NewCounter(promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slp_responder",
			Name:      "errors_total",
			Help:      "The total number of connection errors by type",
		}, []string{"type"})),
		ActiveConnections: prometheusMetrics.NewGauge(promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "slp_responder",
			Name:      "active_connections",
			Help:      "The number of connections currently being serviced",
		}, nil)),
		BytesTransmitted: prometheusMetrics.NewCounter(promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slp_responder",
			Name:      "bytes_transmitted_total",
			Help:      "The total number of bytes written to clients",
		}, nil)),
		RateLimitAvailable: prometheusMetrics.NewGauge(promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "slp_responder",
			Name:      "rate_limit_available",
			Help:      "The number of available tokens in the accept rate limit bucket",
		}, nil)),
	}
}
