package kafka

import "time"

// EventDTO is the wire form of a bus event mirrored to Kafka.
type EventDTO struct {
	Topic   string    `json:"topic"`
	Event   string    `json:"event"`
	Payload any       `json:"payload,omitempty"`
	TS      time.Time `json:"ts"`
}
