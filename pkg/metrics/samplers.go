package metrics

import (
	"time"

	"github.com/vnykmshr/seqflow/pkg/scheduling/pipeline"
	"github.com/vnykmshr/seqflow/pkg/streaming/channel"
	"github.com/vnykmshr/seqflow/pkg/streaming/producer"
	"github.com/vnykmshr/seqflow/pkg/streaming/supervisor"
)

// ChannelSampler bridges a channel's Stats snapshot to the registry gauges.
func ChannelSampler[T any](name string, ch channel.Channel[T]) StatsFunc {
	return func(r *Registry) {
		s := ch.Stats()
		r.ChannelSends.WithLabelValues(name).Set(float64(s.SendCount))
		r.ChannelReceives.WithLabelValues(name).Set(float64(s.ReceiveCount))
		r.ChannelDrops.WithLabelValues(name).Set(float64(s.DroppedCount))
		r.ChannelBlockedSends.WithLabelValues(name).Set(float64(s.BlockedSends))
		r.ChannelBuffered.WithLabelValues(name).Set(float64(ch.Len()))
		r.ChannelPending.WithLabelValues(name).Set(float64(s.PendingWrites))
		r.ChannelPendingPeak.WithLabelValues(name).Set(float64(s.PendingHighWater))
	}
}

// ProducerSampler bridges a producer's cursor to the registry gauge.
func ProducerSampler[T any](name string, p *producer.Producer[T]) StatsFunc {
	return func(r *Registry) {
		r.ProducerCursor.WithLabelValues(name).Set(float64(p.Cursor()))
	}
}

// PipelineSampler bridges a pipeline's reorder-depth peak to the registry.
// The event counters are better fed live through PipelineHooks.
func PipelineSampler[T any](name string, p *pipeline.Pipeline[T]) StatsFunc {
	return func(r *Registry) {
		r.PipelineReorderDepth.WithLabelValues(name).Set(float64(p.Stats().MaxReorderDepth))
	}
}

// PipelineHooks returns ready-made pipeline callbacks feeding the registry's
// event counters and latency histogram. Assign the fields of interest to a
// pipeline Config:
//
//	hooks := metrics.PipelineHooks[int](registry, "ingest")
//	config.OnRelease = hooks.OnRelease
//	config.OnSkip = hooks.OnSkip
//	config.OnElementDone = hooks.OnElementDone
func PipelineHooks[T any](r *Registry, name string) Hooks[T] {
	return Hooks[T]{
		OnRelease: func(_ uint64, _ T) {
			r.PipelineReleased.WithLabelValues(name).Inc()
		},
		OnSkip: func(_ uint64) {
			r.PipelineSkipped.WithLabelValues(name).Inc()
		},
		OnElementDone: func(_ uint64, d time.Duration, err error) {
			r.ObserveElementDuration(name, d)
			if err != nil {
				r.PipelineErrors.WithLabelValues(name).Inc()
			}
		},
	}
}

// Hooks bundles pipeline callbacks wired to a registry.
type Hooks[T any] struct {
	OnRelease     func(seq uint64, elem T)
	OnSkip        func(seq uint64)
	OnElementDone func(seq uint64, d time.Duration, err error)
}

// RestartObserver returns a supervisor OnRestart callback that counts
// restarts in the registry.
func RestartObserver(r *Registry, name string) func(supervisor.RestartEvent) {
	return func(_ supervisor.RestartEvent) {
		r.SupervisorRestarts.WithLabelValues(name).Inc()
	}
}
