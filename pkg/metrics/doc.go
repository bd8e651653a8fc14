/*
Package metrics provides Prometheus instrumentation for seqflow components.

Components never import this package. Event counters are fed through the
callback hooks every component already exposes, and snapshot gauges are set by
a Reporter that samples component Stats on a cron schedule.

# Quick Start

	registry := metrics.NewRegistry(prometheus.DefaultRegisterer)

	reporter, _ := metrics.NewReporter(metrics.ReporterConfig{
		Registry: registry,
		Schedule: "@every 10s",
	})
	reporter.Register(metrics.ChannelSampler("ingest", ch))
	_ = reporter.Start()
	defer reporter.Stop()

# Pipeline Instrumentation

	hooks := metrics.PipelineHooks[Event](registry, "ingest")

	p, _ := pipeline.New(pipeline.Config[Event]{
		// ...
		OnRelease:     hooks.OnRelease,
		OnSkip:        hooks.OnSkip,
		OnElementDone: hooks.OnElementDone,
	})

# Supervisor Instrumentation

	sup, _ := supervisor.New(supervisor.Config[Event]{
		// ...
		OnRestart: metrics.RestartObserver(registry, "ingest"),
	})

# Custom Registries

NewRegistry registers collectors against any prometheus.Registerer, so tests
and multi-tenant setups can isolate their metrics:

	reg := prometheus.NewRegistry()
	registry := metrics.NewRegistry(reg)
*/
package metrics
