package tracing

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"contrib.go.opencensus.io/exporter/aws"
	"contrib.go.opencensus.io/exporter/jaeger"
	"contrib.go.opencensus.io/exporter/prometheus"
	"contrib.go.opencensus.io/exporter/stackdriver"
	"contrib.go.opencensus.io/exporter/zipkin"
	"contrib.go.opencensus.io/integrations/ocsql"
	datadog "github.com/DataDog/opencensus-go-exporter-datadog"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"

	"github.com/simulai/simulai/config"
	"github.com/simulai/simulai/pkg/logger"
)

type flusher interface {
	Flush()
}

type traceExporterFactory func(cfg *config.TracingConfig) (trace.Exporter, error)

type metricsExporterFactory func(cfg *config.TracingConfig, log logger.Logger) (view.Exporter, error)

var traceExporters = map[string]traceExporterFactory{
	"jaeger":      newJaegerExporter,
	"zipkin":      newZipkinExporter,
	"stackdriver": newStackdriverExporter,
	"datadog":     newDatadogExporter,
	"xray":        newXRayExporter,
}

var metricsExporters = map[string]metricsExporterFactory{
	"prometheus":  newPrometheusExporter,
	"stackdriver": newStackdriverMetricsExporter,
	"datadog":     newDatadogMetricsExporter,
}

var (
	mu       sync.Mutex
	flushers []flusher
)

// InitTracing registers the configured OpenCensus trace and metrics exporters.
// It is a no-op when tracing is disabled.
// codecov:ignore:start
func InitTracing(cfg *config.TracingConfig, log logger.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	trace.ApplyConfig(trace.Config{
		DefaultSampler: trace.ProbabilitySampler(cfg.SamplingProbability),
	})

	if name := strings.TrimSpace(cfg.TraceExporter); name != "" && name != "none" {
		factory, ok := traceExporters[name]
		if !ok {
			return fmt.Errorf("unsupported trace exporter: %s", name)
		}
		exporter, err := factory(cfg)
		if err != nil {
			return err
		}
		trace.RegisterExporter(exporter)
		track(exporter)
		log.WithField("exporter", name).Info("Trace exporter initialized")
	}

	for _, name := range splitExporters(cfg.MetricsExporter) {
		factory, ok := metricsExporters[name]
		if !ok {
			return fmt.Errorf("unsupported metrics exporter: %s", name)
		}
		exporter, err := factory(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize %s metrics exporter: %w", name, err)
		}
		view.RegisterExporter(exporter)
		track(exporter)
		log.WithField("exporter", name).Info("Metrics exporter initialized")
	}

	if err := view.Register(ochttp.DefaultServerViews...); err != nil {
		return fmt.Errorf("failed to register HTTP server views: %w", err)
	}
	if err := view.Register(ocsql.DefaultViews...); err != nil {
		return fmt.Errorf("failed to register database views: %w", err)
	}
	return nil
}

// Flush pushes buffered spans and views of exporters that batch
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	for _, f := range flushers {
		f.Flush()
	}
}

func track(exporter interface{}) {
	if f, ok := exporter.(flusher); ok {
		mu.Lock()
		flushers = append(flushers, f)
		mu.Unlock()
	}
}

func splitExporters(value string) []string {
	var names []string
	for _, name := range strings.Split(value, ",") {
		name = strings.TrimSpace(name)
		if name == "" || name == "none" {
			continue
		}
		names = append(names, name)
	}
	return names
}

func newJaegerExporter(cfg *config.TracingConfig) (trace.Exporter, error) {
	if cfg.JaegerEndpoint == "" {
		return nil, errors.New("jaeger endpoint is required for the jaeger exporter")
	}
	exporter, err := jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: cfg.JaegerEndpoint,
		ServiceName:       cfg.ServiceName,
		Process:           jaeger.Process{ServiceName: cfg.ServiceName},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create jaeger exporter: %w", err)
	}
	return exporter, nil
}

func newZipkinExporter(cfg *config.TracingConfig) (trace.Exporter, error) {
	if cfg.ZipkinEndpoint == "" {
		return nil, errors.New("zipkin endpoint is required for the zipkin exporter")
	}
	return zipkin.NewExporter(zipkinhttp.NewReporter(cfg.ZipkinEndpoint), nil), nil
}

func newStackdriverExporter(cfg *config.TracingConfig) (trace.Exporter, error) {
	if cfg.StackdriverProjectID == "" {
		return nil, errors.New("stackdriver project ID is required for the stackdriver exporter")
	}
	exporter, err := stackdriver.NewExporter(stackdriver.Options{ProjectID: cfg.StackdriverProjectID})
	if err != nil {
		return nil, fmt.Errorf("failed to create stackdriver exporter: %w", err)
	}
	return exporter, nil
}

func newDatadogExporter(cfg *config.TracingConfig) (trace.Exporter, error) {
	if cfg.DatadogAgentAddress == "" {
		return nil, errors.New("datadog agent address is required for the datadog exporter")
	}
	exporter, err := datadog.NewExporter(datadog.Options{
		Service:   cfg.ServiceName,
		TraceAddr: cfg.DatadogAgentAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create datadog exporter: %w", err)
	}
	return exporter, nil
}

func newXRayExporter(cfg *config.TracingConfig) (trace.Exporter, error) {
	if cfg.XRayRegion == "" {
		return nil, errors.New("AWS region is required for the xray exporter")
	}
	exporter, err := aws.NewExporter(aws.WithRegion(cfg.XRayRegion), aws.WithVersion("latest"))
	if err != nil {
		return nil, fmt.Errorf("failed to create xray exporter: %w", err)
	}
	return exporter, nil
}

// newPrometheusExporter publishes OpenCensus views on the default prometheus
// registry, which /metrics already serves. A dedicated listener is started
// when a port is configured.
func newPrometheusExporter(cfg *config.TracingConfig, log logger.Logger) (view.Exporter, error) {
	exporter, err := prometheus.NewExporter(prometheus.Options{
		Namespace:  strings.ReplaceAll(cfg.ServiceName, "-", "_"),
		Registerer: promclient.DefaultRegisterer,
		Gatherer:   promclient.DefaultGatherer,
		OnError: func(err error) {
			log.WithField("error", err.Error()).Warn("Prometheus exporter error")
		},
	})
	if err != nil {
		return nil, err
	}

	if cfg.PrometheusPort > 0 {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", exporter)
			addr := fmt.Sprintf(":%d", cfg.PrometheusPort)
			log.WithField("addr", addr).Info("Starting prometheus metrics listener")
			if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithField("error", err.Error()).Error("Prometheus metrics listener stopped")
			}
		}()
	}
	return exporter, nil
}

func newStackdriverMetricsExporter(cfg *config.TracingConfig, log logger.Logger) (view.Exporter, error) {
	if cfg.StackdriverProjectID == "" {
		return nil, errors.New("stackdriver project ID is required")
	}
	return stackdriver.NewExporter(stackdriver.Options{
		ProjectID:    cfg.StackdriverProjectID,
		MetricPrefix: cfg.ServiceName,
		OnError: func(err error) {
			log.WithField("error", err.Error()).Warn("Stackdriver exporter error")
		},
	})
}

func newDatadogMetricsExporter(cfg *config.TracingConfig, log logger.Logger) (view.Exporter, error) {
	if cfg.DatadogAgentAddress == "" {
		return nil, errors.New("datadog agent address is required")
	}
	return datadog.NewExporter(datadog.Options{
		Service:   cfg.ServiceName,
		StatsAddr: cfg.DatadogAgentAddress,
		OnError: func(err error) {
			log.WithField("error", err.Error()).Warn("Datadog exporter error")
		},
	})
}

// codecov:ignore:end
