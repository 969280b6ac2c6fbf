// Package messaging provides a broker-agnostic publisher used to emit domain
// events.
//
// The service only produces events (passcode issued, identity verified), so
// the abstraction is publish-side only. Implementations wrap NATS, NSQ and
// Kafka; the factory selects one by driver name from configuration.
package messaging
