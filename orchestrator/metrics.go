package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// tracer emits the one span that covers a whole Scan call, grounded on
// libindex/metrics.go's package-level tracer.
var tracer trace.Tracer

func init() {
	tracer = otel.Tracer("github.com/bazbom/bazbom/orchestrator",
		trace.WithSchemaURL(semconv.SchemaURL),
	)
}

// scanDuration, packagesTotal, and vulnerabilitiesTotal are the metric
// surface SPEC_FULL.md's domain stack section names explicitly. Grounded on
// indexer/controller2/metrics.go's promauto.NewCounterVec usage.
var (
	scanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bazbom",
		Name:      "scan_duration_seconds",
		Help:      "Wall-clock duration of one ecosystem's manifest scan stage.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"ecosystem"})

	packagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bazbom",
		Name:      "packages_total",
		Help:      "Packages discovered by an ecosystem scanner.",
	}, []string{"ecosystem"})

	vulnerabilitiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bazbom",
		Name:      "vulnerabilities_total",
		Help:      "Vulnerabilities found, labeled by ecosystem and reachability verdict.",
	}, []string{"ecosystem", "reachability"})
)
