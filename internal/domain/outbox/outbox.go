package outbox

import "context"

// Event is a named domain fact, e.g. "payment.recorded".
type Event interface {
	EventName() string
}

// Handler reacts to one published event. Errors are logged by the bus, never
// returned to the publisher.
type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Bus both accepts and fans out events.
type Bus interface {
	Publisher
	Subscriber
}
