package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"heroesfund/internal/domain"
	"heroesfund/internal/metrics"
)

type FriendsService struct {
	Users       UsersStore
	Friendships FriendshipsStore
	Now         func() time.Time
}

func (s *FriendsService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *FriendsService) ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	return s.Friendships.ListOverview(ctx, userID)
}

func (s *FriendsService) SendRequest(ctx context.Context, requesterID, receiverID string) (domain.Friendship, error) {
	receiverID = strings.TrimSpace(receiverID)
	if err := domain.CheckFriendRequest(requesterID, receiverID); err != nil {
		return domain.Friendship{}, err
	}

	if _, err := s.Users.GetUserByID(ctx, receiverID); err != nil {
		return domain.Friendship{}, err
	}

	existing, err := s.Friendships.FindFriendshipBetween(ctx, requesterID, receiverID)
	switch {
	case err == nil && existing.Occupies():
		return domain.Friendship{}, domain.ErrDuplicateEdge
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return domain.Friendship{}, err
	}

	created, err := s.Friendships.CreateFriendship(ctx, domain.NewFriendship(requesterID, receiverID, s.now()))
	if err != nil {
		return domain.Friendship{}, err
	}
	metrics.RecordFriendship(string(created.Status))
	return created, nil
}

func (s *FriendsService) Respond(ctx context.Context, callerID, friendshipID string, action domain.FriendAction) (domain.Friendship, error) {
	f, err := s.Friendships.GetFriendship(ctx, friendshipID)
	if err != nil {
		return domain.Friendship{}, err
	}
	updated, err := f.Respond(action, callerID, s.now())
	if err != nil {
		return domain.Friendship{}, err
	}
	if err := s.Friendships.UpdateFriendship(ctx, updated, f.Status); err != nil {
		return domain.Friendship{}, err
	}
	metrics.RecordFriendship(string(updated.Status))
	return updated, nil
}

func (s *FriendsService) Block(ctx context.Context, callerID, friendshipID string) (domain.Friendship, error) {
	f, err := s.Friendships.GetFriendship(ctx, friendshipID)
	if err != nil {
		return domain.Friendship{}, err
	}
	updated, err := f.Block(callerID, s.now())
	if err != nil {
		return domain.Friendship{}, err
	}
	if err := s.Friendships.UpdateFriendship(ctx, updated, f.Status); err != nil {
		return domain.Friendship{}, err
	}
	metrics.RecordFriendship(string(updated.Status))
	return updated, nil
}

// Remove deletes the edge outright so the pair can start over with a new
// request.
func (s *FriendsService) Remove(ctx context.Context, callerID, friendshipID string) error {
	f, err := s.Friendships.GetFriendship(ctx, friendshipID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotAuthorized
		}
		return err
	}
	if err := f.CheckRemove(callerID); err != nil {
		return err
	}
	if err := s.Friendships.DeleteFriendship(ctx, f.ID); err != nil {
		return err
	}
	metrics.RecordFriendship("REMOVED")
	return nil
}
