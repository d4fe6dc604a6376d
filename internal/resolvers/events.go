package resolvers

import (
	"context"

	"bookshelf/pkg/kafka"
	"bookshelf/pkg/logging"
)

const (
	EventAuthorCreated = "author.created"
	EventBookCreated   = "book.created"
	EventBookUpdated   = "book.updated"
	EventBookDeleted   = "book.deleted"
)

// publish never fails the mutation; the write has already happened.
func (r *Resolver) publish(ctx context.Context, eventType, entity, id string, data interface{}) {
	if r.Events == nil {
		return
	}
	evt := kafka.NewEntityEvent(eventType, entity, id, data)
	if err := r.Events.PublishEntityEvent(ctx, evt); err != nil {
		r.Logger.WithError(err).WithFields(logging.Fields{
			"event_type": eventType,
			"entity_id":  id,
		}).Warn("Failed to publish entity event")
	}
}
