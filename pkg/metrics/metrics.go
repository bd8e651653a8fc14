package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for seqflow components.
//
// Event-driven metrics (counters, histograms) are fed through component hooks;
// snapshot metrics (gauges) are set by a Reporter sampling component Stats.
type Registry struct {
	// Channel metrics, sampled from channel.Stats.
	ChannelSends        *prometheus.GaugeVec
	ChannelReceives     *prometheus.GaugeVec
	ChannelDrops        *prometheus.GaugeVec
	ChannelBlockedSends *prometheus.GaugeVec
	ChannelBuffered     *prometheus.GaugeVec
	ChannelPending      *prometheus.GaugeVec
	ChannelPendingPeak  *prometheus.GaugeVec

	// Producer metrics.
	ProducerItems  *prometheus.CounterVec
	ProducerErrors *prometheus.CounterVec
	ProducerCursor *prometheus.GaugeVec

	// Supervisor metrics.
	SupervisorRestarts *prometheus.CounterVec

	// Pipeline metrics.
	PipelineReleased        *prometheus.CounterVec
	PipelineSkipped         *prometheus.CounterVec
	PipelineErrors          *prometheus.CounterVec
	PipelineElementDuration *prometheus.HistogramVec
	PipelineReorderDepth    *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by seqflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a metrics registry with the default "seqflow" namespace.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Registry: reg, Namespace: defaultNamespace})
}

// NewRegistryWithConfig creates a metrics registry with the given configuration.
func NewRegistryWithConfig(config Config) *Registry {
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if config.Namespace == "" {
		config.Namespace = defaultNamespace
	}

	factory := promauto.With(config.Registry)
	ns := config.Namespace

	return &Registry{
		ChannelSends: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "sends_total",
				Help:      "Total values accepted by the channel",
			},
			[]string{"channel_name"},
		),

		ChannelReceives: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "receives_total",
				Help:      "Total values delivered to readers",
			},
			[]string{"channel_name"},
		),

		ChannelDrops: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "drops_total",
				Help:      "Total values dropped by the overflow policy",
			},
			[]string{"channel_name"},
		),

		ChannelBlockedSends: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "blocked_sends_total",
				Help:      "Total times a sender parked waiting for space",
			},
			[]string{"channel_name"},
		),

		ChannelBuffered: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "buffered",
				Help:      "Values currently buffered",
			},
			[]string{"channel_name"},
		),

		ChannelPending: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "pending_writes",
				Help:      "Asynchronous writes currently queued",
			},
			[]string{"channel_name"},
		),

		ChannelPendingPeak: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "pending_writes_peak",
				Help:      "High-water mark of the asynchronous write queue",
			},
			[]string{"channel_name"},
		),

		ProducerItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "producer",
				Name:      "items_total",
				Help:      "Total items fetched and written",
			},
			[]string{"producer_name"},
		),

		ProducerErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "producer",
				Name:      "errors_total",
				Help:      "Total producer failures",
			},
			[]string{"producer_name"},
		),

		ProducerCursor: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "producer",
				Name:      "cursor",
				Help:      "Current source cursor position",
			},
			[]string{"producer_name"},
		),

		SupervisorRestarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "supervisor",
				Name:      "restarts_total",
				Help:      "Total producer restarts",
			},
			[]string{"supervisor_name"},
		),

		PipelineReleased: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "pipeline",
				Name:      "released_total",
				Help:      "Total elements released to the output channel",
			},
			[]string{"pipeline_name"},
		),

		PipelineSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "pipeline",
				Name:      "skipped_total",
				Help:      "Total positions skipped by filters or the error handler",
			},
			[]string{"pipeline_name"},
		),

		PipelineErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "pipeline",
				Name:      "errors_total",
				Help:      "Total element transform failures",
			},
			[]string{"pipeline_name"},
		),

		PipelineElementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "pipeline",
				Name:      "element_duration_seconds",
				Help:      "Time spent transforming one element",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pipeline_name"},
		),

		PipelineReorderDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "pipeline",
				Name:      "reorder_depth_peak",
				Help:      "High-water mark of results held back for ordering",
			},
			[]string{"pipeline_name"},
		),
	}
}

// ObserveElementDuration records one element's transform latency.
func (r *Registry) ObserveElementDuration(pipeline string, d time.Duration) {
	r.PipelineElementDuration.WithLabelValues(pipeline).Observe(d.Seconds())
}
