package middleware

import (
	"context"
	"fmt"

	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/repository"
)

// Reactions upserts and deletes reactions keyed by (message, user, type).
// Deleting a reaction that is not stored is a no-op.
type Reactions struct{}

func NewReactions() *Reactions {
	return &Reactions{}
}

func (r *Reactions) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	re, ok := ev.(events.ReactionEvent)
	if !ok {
		return ev
	}

	reaction := re.ReactionData()
	if reaction.MessageID == "" {
		if msg := re.MessageData(); msg != nil {
			reaction.MessageID = msg.ID
		}
	}

	var err error
	switch e := re.(type) {
	case *events.ReactionNew:
		err = s.SaveReaction(ctx, &reaction)
	case *events.ReactionUpdated:
		err = updateReaction(ctx, s, &reaction, e.EnforceUnique)
	case *events.ReactionDeleted:
		_, err = s.DeleteReaction(ctx, reaction.MessageID, reaction.UserID, reaction.Type)
	default:
		panic(fmt.Sprintf("middleware: unhandled reaction event %T", re))
	}

	if err != nil {
		logFailure("reaction", ev, err)
	}
	return ev
}

func updateReaction(ctx context.Context, s repository.DatabaseSession, reaction *models.Reaction, enforceUnique bool) error {
	if enforceUnique {
		if err := s.DeleteUserReactions(ctx, reaction.MessageID, reaction.UserID, reaction.Type); err != nil {
			return err
		}
	}
	return s.SaveReaction(ctx, reaction)
}
