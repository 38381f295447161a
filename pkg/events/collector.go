package events

// EventCollector buffers the events an aggregate raises until a caller drains them.
// The zero value is ready to use.
type EventCollector struct {
	pending []DomainEvent
}

// Record buffers one event.
func (c *EventCollector) Record(event DomainEvent) {
	c.pending = append(c.pending, event)
}

// Events returns the buffered events in record order without draining them.
func (c *EventCollector) Events() []DomainEvent {
	return c.pending
}

// ClearEvents drains the buffer, returning its events in record order.
func (c *EventCollector) ClearEvents() []DomainEvent {
	drained := c.pending
	c.pending = nil
	return drained
}
