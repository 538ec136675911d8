package middleware

import (
	"context"
	"errors"

	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg"
	"github.com/akinalp/mqvi-sync/repository"
)

// loadOrCreateChannel returns the stored channel or a fresh one for cid.
// The fresh one is not saved; callers save after they changed it.
func loadOrCreateChannel(ctx context.Context, s repository.DatabaseSession, cid string) (*models.Channel, error) {
	ch, err := s.Channel(ctx, cid)
	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	return models.NewChannel(cid)
}

// ensureChannel makes sure a row for cid exists and returns it.
func ensureChannel(ctx context.Context, s repository.DatabaseSession, cid string) (*models.Channel, error) {
	ch, err := s.Channel(ctx, cid)
	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}
	if ch, err = models.NewChannel(cid); err != nil {
		return nil, err
	}
	if err := s.SaveChannel(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// optionalChannel loads the channel and maps "not stored" to nil.
func optionalChannel(ctx context.Context, s repository.DatabaseSession, cid string) (*models.Channel, error) {
	ch, err := s.Channel(ctx, cid)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, nil
	}
	return ch, err
}

// currentUserID returns "" when no current user is stored yet.
func currentUserID(ctx context.Context, s repository.DatabaseSession) (string, error) {
	me, err := s.CurrentUser(ctx)
	if errors.Is(err, pkg.ErrNoCurrentUser) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return me.UserID, nil
}

// loadOrNewRead returns the stored read or a zero cursor for (cid, userID).
func loadOrNewRead(ctx context.Context, s repository.DatabaseSession, cid, userID string) (*models.ChannelRead, error) {
	rd, err := s.ChannelRead(ctx, cid, userID)
	if errors.Is(err, pkg.ErrNotFound) {
		return &models.ChannelRead{CID: cid, UserID: userID}, nil
	}
	return rd, err
}
