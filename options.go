package saga

import "go.uber.org/zap"

// Option configures a Saga at construction time.
type Option[T any] func(*Saga[T])

// WithLogger attaches a zap logger. Step transitions are logged at debug
// level, forward failures at error level, and swallowed compensate
// failures at warn level.
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(s *Saga[T]) {
		s.logger = logger
	}
}

// WithListener appends a listener that receives every run event. It can
// be supplied multiple times.
func WithListener[T any](l Listener) Option[T] {
	return func(s *Saga[T]) {
		s.listeners = append(s.listeners, l)
	}
}

// WithStore attaches a store where terminal run reports are archived.
func WithStore[T any](store Store[T]) Option[T] {
	return func(s *Saga[T]) {
		s.store = store
	}
}
