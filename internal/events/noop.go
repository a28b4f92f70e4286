package events

import "context"

// NoopProducer accepts every message and discards it (used when no brokers
// are configured).
type NoopProducer struct{}

func (NoopProducer) WriteMessage(ctx context.Context, msg Message) error {
	return nil
}

func (NoopProducer) Close() error {
	return nil
}
