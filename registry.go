package saga

import (
	"errors"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// ErrStepNotFound is returned by Registry.Get for an unregistered name.
var ErrStepNotFound = errors.New("step not found")

// Registry is a concurrent collection of reusable steps shared across
// sagas. Within a registry names are unique; that restriction exists only
// so Assemble can resolve names deterministically. A saga built by hand
// with Add is free to repeat names.
type Registry[T any] struct {
	steps *xsync.MapOf[string, Step[T]]
}

// NewRegistry creates a new Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		steps: xsync.NewMapOf[string, Step[T]](),
	}
}

// Register adds a step to the registry.
func (r *Registry[T]) Register(step Step[T]) error {
	if _, ok := r.steps.Load(step.Name); ok {
		return fmt.Errorf("step with name '%s' already registered", step.Name)
	}
	r.steps.Store(step.Name, step)
	return nil
}

// Get retrieves a step from the registry by its name.
func (r *Registry[T]) Get(name string) (Step[T], error) {
	step, ok := r.steps.Load(name)
	if !ok {
		return Step[T]{}, fmt.Errorf("%w: %q", ErrStepNotFound, name)
	}
	return step, nil
}

// Assemble builds a saga from registered step names, in the given order.
// The same name may appear more than once.
func (r *Registry[T]) Assemble(sagaName string, stepNames []string, opts ...Option[T]) (*Saga[T], error) {
	s := New[T](sagaName, opts...)
	for _, name := range stepNames {
		step, err := r.Get(name)
		if err != nil {
			return nil, fmt.Errorf("assemble %s: %w", sagaName, err)
		}
		s.Add(step)
	}
	return s, nil
}
