package events

import "context"

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers raw event payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}

// Stream subscribes to topic and calls fn for every payload until ctx is
// done, the subscription closes, or fn returns an error.
func Stream(ctx context.Context, sub Subscriber, topic string, fn func(payload []byte) error) error {
	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			if err := fn(data); err != nil {
				return err
			}
		}
	}
}
