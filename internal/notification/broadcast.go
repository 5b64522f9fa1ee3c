package notification

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BuildFunc composes a message onto a fresh Notification.
type BuildFunc func(n *Notification) *Notification

// Broadcast sends the message produced by build to every channel. Each channel
// gets its own Notification from factory, so no builder state is shared
// between goroutines. Responses are returned in channel order; the first
// failure cancels the remaining sends.
func Broadcast(ctx context.Context, factory Factory, channels []string, build BuildFunc) ([]*PostResponse, error) {
	if len(channels) == 0 {
		return nil, ErrChannelRequired
	}
	responses := make([]*PostResponse, len(channels))
	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range channels {
		i, ch := i, ch
		g.Go(func() error {
			n := build(factory().To(ch))
			resp, err := n.Send(gctx)
			if err != nil {
				return fmt.Errorf("channel %s: %w", ch, err)
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}
