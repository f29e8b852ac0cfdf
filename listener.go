package saga

// Listener receives every event a saga run emits, including compensate
// failures that the orchestrator swallows from the caller's point of
// view. Listeners are invoked synchronously from the run's goroutine and
// must not block.
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts an ordinary function to the Listener interface.
type ListenerFunc func(Event)

// OnEvent implements the Listener interface for ListenerFunc.
func (f ListenerFunc) OnEvent(ev Event) {
	f(ev)
}
