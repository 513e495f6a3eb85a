package pubsub

import (
	"context"

	pkglog "github.com/weiawesome/wes-io-live/chatroom-service/pkg/log"
)

// Emit builds and publishes an event. Publishing is best effort: failures
// are logged with the context logger and never returned.
func Emit(ctx context.Context, pub Publisher, channel, eventType, key string, payload interface{}) {
	if pub == nil {
		return
	}

	l := pkglog.Ctx(ctx)

	event, err := NewEvent(eventType, key, payload)
	if err != nil {
		l.Warn().Err(err).Str("event_type", eventType).Msg("failed to build event")
		return
	}
	if err := pub.Publish(ctx, channel, event); err != nil {
		l.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
