// internal/transport/serializer.go
package transport

import "context"

// serializer allows one request on the wire at a time. Waiting callers are
// queued on the channel in arrival order.
type serializer struct {
	slot chan struct{}
}

func newSerializer() *serializer {
	return &serializer{slot: make(chan struct{}, 1)}
}

// acquire blocks until the slot is free or ctx is done
func (s *serializer) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case s.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *serializer) release() {
	<-s.slot
}
