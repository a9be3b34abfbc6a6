package core

import "context"

// Publisher fans platform events out to integrations.
type Publisher interface {
	Publish(ctx context.Context, event string, data any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) {}

func orNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
