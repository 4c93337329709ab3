package notify

// Publisher delivers a single event to a topic.
type Publisher interface {
	Publish(topic, event string, payload any)
}

// Fanout forwards every publish to each sink in order. Sinks must be
// non-blocking; the hub and the Kafka sink both are.
type Fanout struct {
	sinks []Publisher
}

// NewFanout builds a fanout over the given sinks.
func NewFanout(sinks ...Publisher) *Fanout {
	return &Fanout{sinks: sinks}
}

// Publish forwards the event to every sink.
func (f *Fanout) Publish(topic, event string, payload any) {
	for _, s := range f.sinks {
		s.Publish(topic, event, payload)
	}
}
