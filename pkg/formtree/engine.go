package formtree

import (
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formsync/pkg/values"
)

// Engine runs Flatten and Apply with a fixed configuration. The zero value
// is not usable; construct engines with New.
type Engine struct {
	policy   values.MergePolicy
	notifier Notifier
	logger   zerolog.Logger
	sanitize bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithMergePolicy selects how Flatten resolves colliding keys.
func WithMergePolicy(policy values.MergePolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// WithNotifier receives every warning as it is recorded.
func WithNotifier(notifier Notifier) Option {
	return func(e *Engine) {
		e.notifier = notifier
	}
}

// WithLogger attaches a logger for debug tracing of the walk.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSanitizer strips markup from scalars before Apply writes them into the
// document.
func WithSanitizer(enabled bool) Option {
	return func(e *Engine) {
		e.sanitize = enabled
	}
}

// New constructs an Engine. Defaults: last-write-wins merging, no notifier,
// a disabled logger, no sanitising.
func New(options ...Option) *Engine {
	e := &Engine{
		policy: values.LastWriteWins,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Policy returns the configured merge policy.
func (e *Engine) Policy() values.MergePolicy {
	return e.policy
}

func (e *Engine) newRecorder() *recorder {
	return &recorder{report: &Report{}, notifier: e.notifier}
}
