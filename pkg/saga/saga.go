package saga

import (
	"context"
	"errors"
	"fmt"
)

// Step is one effect in a multi-step business transaction. Undo is optional;
// steps whose failure is deliberately left uncompensated (for example a
// confirmation that cannot be reversed) simply omit it.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// StepError reports which step failed. Compensation errors, if any, are
// joined into Err.
type StepError struct {
	Saga string
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("saga %s: step %q failed: %v", e.Saga, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Saga runs steps in order. On failure it undoes the completed steps in
// reverse order and returns a *StepError naming the failed step.
type Saga struct {
	name   string
	steps  []Step
	onStep func(step string, err error)
}

// Option configures a Saga.
type Option func(*Saga)

// WithStepHook installs a callback invoked after each step with its outcome,
// typically for logging.
func WithStepHook(fn func(step string, err error)) Option {
	return func(s *Saga) { s.onStep = fn }
}

// New creates a named saga.
func New(name string, opts ...Option) *Saga {
	s := &Saga{name: name}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Then appends a step.
func (s *Saga) Then(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs the steps. The returned error, if non-nil, is a *StepError.
func (s *Saga) Execute(ctx context.Context) error {
	var completed []Step

	for _, step := range s.steps {
		err := step.Run(ctx)
		if s.onStep != nil {
			s.onStep(step.Name, err)
		}
		if err != nil {
			if undoErr := s.undo(ctx, completed); undoErr != nil {
				err = errors.Join(err, fmt.Errorf("compensation failed: %w", undoErr))
			}
			return &StepError{Saga: s.name, Step: step.Name, Err: err}
		}
		completed = append(completed, step)
	}
	return nil
}

func (s *Saga) undo(ctx context.Context, completed []Step) error {
	var errs []error
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Undo == nil {
			continue
		}
		if err := step.Undo(ctx); err != nil {
			errs = append(errs, fmt.Errorf("undo step %q: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}
