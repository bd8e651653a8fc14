package metrics

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSchedule is the sampling schedule used when none is configured.
const DefaultSchedule = "@every 10s"

// StatsFunc samples one component's counters into the registry. Implementations
// read a Stats snapshot and set the matching gauges.
type StatsFunc func(r *Registry)

// ReporterConfig holds configuration for a Reporter.
type ReporterConfig struct {
	// Registry receives the sampled values. Defaults to DefaultRegistry.
	Registry *Registry

	// Schedule is a cron expression or descriptor such as "@every 10s".
	// Defaults to DefaultSchedule.
	Schedule string

	// Logger receives reporter events. Nil disables logging.
	Logger *zerolog.Logger
}

// Reporter periodically samples registered StatsFuncs into a Registry on a
// cron schedule. Components keep their own counters; the reporter bridges
// those snapshots to Prometheus gauges without the components importing this
// package.
type Reporter struct {
	registry *Registry
	schedule string
	logger   zerolog.Logger
	runner   *cron.Cron

	mu       sync.Mutex
	samplers []StatsFunc
	started  bool
}

// NewReporter creates a Reporter from the given configuration.
func NewReporter(config ReporterConfig) (*Reporter, error) {
	if config.Registry == nil {
		config.Registry = DefaultRegistry
	}
	if config.Schedule == "" {
		config.Schedule = DefaultSchedule
	}

	// Validate the schedule up front so a bad expression fails at
	// construction, not at Start.
	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", config.Schedule, err)
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Reporter{
		registry: config.Registry,
		schedule: config.Schedule,
		logger:   logger.With().Str("component", "metrics-reporter").Logger(),
		runner:   cron.New(),
	}, nil
}

// Register adds a sampler. Safe to call before or after Start.
func (r *Reporter) Register(fn StatsFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samplers = append(r.samplers, fn)
}

// Start begins periodic sampling. Idempotent.
func (r *Reporter) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}
	if _, err := r.runner.AddFunc(r.schedule, r.Sample); err != nil {
		return fmt.Errorf("schedule sampling: %w", err)
	}
	r.runner.Start()
	r.started = true
	r.logger.Info().Str("schedule", r.schedule).Msg("reporter started")
	return nil
}

// Stop halts sampling and waits for an in-flight sample to finish.
func (r *Reporter) Stop() {
	r.mu.Lock()
	started := r.started
	r.started = false
	r.mu.Unlock()

	if started {
		<-r.runner.Stop().Done()
		r.logger.Info().Msg("reporter stopped")
	}
}

// Sample runs every registered sampler once. Called on the cron schedule, and
// callable directly for a final flush before shutdown.
func (r *Reporter) Sample() {
	r.mu.Lock()
	samplers := make([]StatsFunc, len(r.samplers))
	copy(samplers, r.samplers)
	r.mu.Unlock()

	for _, fn := range samplers {
		fn(r.registry)
	}
}
