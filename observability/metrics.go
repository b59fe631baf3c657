package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"revreport/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the report pipeline
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	crmRequestsCounter      metric.Int64Counter
	crmRequestDurationHist  metric.Float64Histogram
	leadsFetchedCounter     metric.Int64Counter
	reportsGeneratedCounter metric.Int64Counter
	deliveriesCounter       metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Debug("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.Infof("Using OTLP metric exporter: %s", mp.config.OTelOTLPEndpoint)

	case "none":
		log.Debug("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)

	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("revreport")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.crmRequestsCounter, err = mp.meter.Int64Counter(
		CRMRequestsTotal,
		metric.WithDescription("Total number of CRM API requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create CRM requests counter: %w", err)
	}

	mp.crmRequestDurationHist, err = mp.meter.Float64Histogram(
		CRMRequestDuration,
		metric.WithDescription("Duration of CRM API requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create CRM request duration histogram: %w", err)
	}

	mp.leadsFetchedCounter, err = mp.meter.Int64Counter(
		LeadsFetchedTotal,
		metric.WithDescription("Total number of leads fetched from the CRM"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create leads fetched counter: %w", err)
	}

	mp.reportsGeneratedCounter, err = mp.meter.Int64Counter(
		ReportsGeneratedTotal,
		metric.WithDescription("Total number of revenue reports generated"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create reports generated counter: %w", err)
	}

	mp.deliveriesCounter, err = mp.meter.Int64Counter(
		DeliveriesTotal,
		metric.WithDescription("Total number of report delivery attempts"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create deliveries counter: %w", err)
	}

	return nil
}

// ForceFlush exports any pending metrics. One-shot runs call this before
// exiting so the last run's data points still leave the process.
func (mp *MetricsProvider) ForceFlush(ctx context.Context) error {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.ForceFlush(ctx)
	}
	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meterProvider != nil
}

// RecordCRMRequest records one CRM API request outcome and its duration
func (mp *MetricsProvider) RecordCRMRequest(endpoint, outcome string, seconds float64) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelEndpoint, endpoint),
		attribute.String(LabelOutcome, outcome),
	)
	mp.crmRequestsCounter.Add(context.Background(), 1, attrs)
	mp.crmRequestDurationHist.Record(context.Background(), seconds, attrs)
}

// RecordLeadsFetched records how many leads one fetch returned
func (mp *MetricsProvider) RecordLeadsFetched(count int) {
	if !mp.isEnabled() {
		return
	}

	mp.leadsFetchedCounter.Add(context.Background(), int64(count))
}

// RecordReportGenerated records one generated report
func (mp *MetricsProvider) RecordReportGenerated() {
	if !mp.isEnabled() {
		return
	}

	mp.reportsGeneratedCounter.Add(context.Background(), 1)
}

// RecordDeliveries records delivery attempts for one channel and outcome
func (mp *MetricsProvider) RecordDeliveries(channel, outcome string, count int) {
	if !mp.isEnabled() || count == 0 {
		return
	}

	mp.deliveriesCounter.Add(context.Background(), int64(count),
		metric.WithAttributes(
			attribute.String(LabelChannel, channel),
			attribute.String(LabelOutcome, outcome),
		),
	)
}
