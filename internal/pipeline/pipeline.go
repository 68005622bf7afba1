package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// tracerName is the instrumentation scope of pipeline spans.
const tracerName = "github.com/nao1215/aiaudit/internal/pipeline"

// Step is one stage of an audit.
type Step interface {
	// Do executes the step. Non-critical problems are recorded on the
	// audit and nil is returned.
	Do(ctx context.Context, audit *Audit) error

	// Name returns the step's name for logging and tracing.
	Name() string
}

// Essential is implemented by steps that must run even after the audit
// deadline, such as signal extraction and scoring over what was fetched.
type Essential interface {
	Essential() bool
}

func isEssential(step Step) bool {
	e, ok := step.(Essential)
	return ok && e.Essential()
}

// Skipper is implemented by steps that record the work they did not do
// when the run is cut short before they start. Skip receives the done
// context.
type Skipper interface {
	Skip(ctx context.Context, audit *Audit)
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError keeps running later steps after one fails.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to keep executing steps
// after one fails. The last error is recorded on the audit.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in order. Cancellation is checked before each
// step. Once ctx is done, regular steps are skipped, with a Skipper told
// so, while Essential steps still run on a context that is never
// cancelled. A deadline marks the audit as timed out; any other
// cancellation is returned as an error after the essential steps ran.
func (p *Pipeline) Execute(ctx context.Context, audit *Audit) error {
	var (
		firstErr error
		stopped  bool
	)

	for _, step := range p.steps {
		runCtx := ctx
		if err := ctx.Err(); err != nil {
			if !stopped {
				stopped = true
				p.logger.Warn("pipeline cancelled",
					"step", step.Name(),
					"site", audit.Target.URL,
					"reason", err,
				)
				if errors.Is(err, context.DeadlineExceeded) {
					audit.TimedOut = true
				} else if firstErr == nil {
					firstErr = err
				}
			}
			if !isEssential(step) {
				if s, ok := step.(Skipper); ok {
					s.Skip(ctx, audit)
				}
				continue
			}
			runCtx = context.WithoutCancel(ctx)
		}

		if err := p.run(runCtx, step, audit); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if !p.continueOnError {
				return err
			}
		}
	}
	return firstErr
}

func (p *Pipeline) run(ctx context.Context, step Step, audit *Audit) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "audit."+step.Name())
	defer span.End()
	span.SetAttributes(attribute.String("aiaudit.site", audit.Target.URL))

	p.logger.Debug("executing step", "step", step.Name(), "site", audit.Target.URL)

	if err := step.Do(ctx, audit); err != nil {
		p.logger.Error("step failed",
			"step", step.Name(),
			"site", audit.Target.URL,
			"error", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		audit.Err = err
		return err
	}

	audit.PerformedSteps = append(audit.PerformedSteps, step.Name())
	return nil
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
