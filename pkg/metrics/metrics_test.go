package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/seqflow/internal/testutil"
	"github.com/vnykmshr/seqflow/pkg/streaming/channel"
	"github.com/vnykmshr/seqflow/pkg/streaming/supervisor"
)

func supervisorEvent() supervisor.RestartEvent {
	return supervisor.RestartEvent{Time: time.Now(), Cursor: 1, Restarts: 1}
}

func TestNewRegistryUsesCustomNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistryWithConfig(Config{Registry: reg, Namespace: "custom"})

	r.PipelineReleased.WithLabelValues("p").Inc()

	families, err := reg.Gather()
	testutil.AssertNoError(t, err)

	found := false
	for _, mf := range families {
		if mf.GetName() == "custom_pipeline_released_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected custom_pipeline_released_total to be registered")
	}
}

func TestChannelSamplerSetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	ch := channel.New[int](4)
	ctx := context.Background()
	testutil.AssertNoError(t, ch.Send(ctx, 1))
	testutil.AssertNoError(t, ch.Send(ctx, 2))
	_, err := ch.Receive(ctx)
	testutil.AssertNoError(t, err)

	ChannelSampler("test", ch)(r)

	testutil.AssertEqual(t, promtestutil.ToFloat64(r.ChannelSends.WithLabelValues("test")), 2.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.ChannelReceives.WithLabelValues("test")), 1.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.ChannelBuffered.WithLabelValues("test")), 1.0)

	_ = ch.Close()
}

func TestPipelineHooksCountEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	hooks := PipelineHooks[int](r, "p")
	hooks.OnRelease(0, 10)
	hooks.OnRelease(1, 11)
	hooks.OnSkip(2)
	hooks.OnElementDone(0, time.Millisecond, nil)
	hooks.OnElementDone(1, time.Millisecond, errors.New("boom"))

	testutil.AssertEqual(t, promtestutil.ToFloat64(r.PipelineReleased.WithLabelValues("p")), 2.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.PipelineSkipped.WithLabelValues("p")), 1.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.PipelineErrors.WithLabelValues("p")), 1.0)
}

func TestRestartObserverCountsRestarts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	observe := RestartObserver(r, "sup")
	observe(supervisorEvent())
	observe(supervisorEvent())

	testutil.AssertEqual(t, promtestutil.ToFloat64(r.SupervisorRestarts.WithLabelValues("sup")), 2.0)
}

func TestReporterValidatesSchedule(t *testing.T) {
	_, err := NewReporter(ReporterConfig{Schedule: "not a schedule"})
	testutil.AssertError(t, err)
}

func TestReporterSamplesRegisteredFuncs(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	reporter, err := NewReporter(ReporterConfig{Registry: r})
	testutil.AssertNoError(t, err)

	sampled := 0
	reporter.Register(func(*Registry) { sampled++ })
	reporter.Register(func(*Registry) { sampled++ })

	reporter.Sample()
	testutil.AssertEqual(t, sampled, 2)
}

func TestReporterStartStop(t *testing.T) {
	reporter, err := NewReporter(ReporterConfig{Schedule: "@every 1h"})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, reporter.Start())
	testutil.AssertNoError(t, reporter.Start()) // idempotent
	reporter.Stop()
	reporter.Stop()
}
