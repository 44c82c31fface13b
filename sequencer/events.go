package sequencer

// Handler receives the arguments passed to Launch.
type Handler func(args ...any)

// EventBus is a named publish/subscribe channel. The sequencer owns one and every
// Control owns its own; launching on one bus never reaches another.
type EventBus struct {
	handlers map[string][]Handler
	invoke   func(fn func())
}

func newEventBus(invoke func(fn func())) *EventBus {
	return &EventBus{
		handlers: make(map[string][]Handler),
		invoke:   invoke,
	}
}

// On subscribes fn to event.
func (b *EventBus) On(event string, fn Handler) {
	b.handlers[event] = append(b.handlers[event], fn)
}

// Launch calls every subscriber of event in subscription order and reports whether
// there was any. A failing subscriber does not prevent the others from running.
func (b *EventBus) Launch(event string, args ...any) bool {
	handlers := b.handlers[event]
	for _, h := range handlers {
		h := h
		b.invoke(func() { h(args...) })
	}
	return len(handlers) > 0
}

// Has reports whether event has subscribers.
func (b *EventBus) Has(event string) bool {
	return len(b.handlers[event]) > 0
}
