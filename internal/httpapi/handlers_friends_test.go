package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"heroesfund/internal/domain"
	"heroesfund/internal/service"
)

type stubFriendshipsStore struct {
	t *testing.T

	getFunc          func(context.Context, string) (domain.Friendship, error)
	updateFunc       func(context.Context, domain.Friendship, domain.FriendshipStatus) error
	listOverviewFunc func(context.Context, string) (domain.FriendsOverview, error)
}

func (s *stubFriendshipsStore) CreateFriendship(ctx context.Context, f domain.Friendship) (domain.Friendship, error) {
	s.t.Fatalf("CreateFriendship called unexpectedly")
	return domain.Friendship{}, context.Canceled
}

func (s *stubFriendshipsStore) GetFriendship(ctx context.Context, id string) (domain.Friendship, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, id)
	}
	s.t.Fatalf("GetFriendship called unexpectedly")
	return domain.Friendship{}, context.Canceled
}

func (s *stubFriendshipsStore) FindFriendshipBetween(ctx context.Context, userA, userB string) (domain.Friendship, error) {
	s.t.Fatalf("FindFriendshipBetween called unexpectedly")
	return domain.Friendship{}, context.Canceled
}

func (s *stubFriendshipsStore) UpdateFriendship(ctx context.Context, f domain.Friendship, from domain.FriendshipStatus) error {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, f, from)
	}
	s.t.Fatalf("UpdateFriendship called unexpectedly")
	return context.Canceled
}

func (s *stubFriendshipsStore) DeleteFriendship(ctx context.Context, id string) error {
	s.t.Fatalf("DeleteFriendship called unexpectedly")
	return context.Canceled
}

func (s *stubFriendshipsStore) ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	if s.listOverviewFunc != nil {
		return s.listOverviewFunc(ctx, userID)
	}
	s.t.Fatalf("ListOverview called unexpectedly")
	return domain.FriendsOverview{}, context.Canceled
}

func TestFriendsRespondAccepts(t *testing.T) {
	respondedAt := time.Date(2026, 6, 1, 12, 34, 56, 0, time.UTC)
	stored := domain.Friendship{ID: "req-1", RequesterID: "user-2", ReceiverID: "user-1", Status: domain.FriendshipPending}

	store := &stubFriendshipsStore{
		t: t,
		getFunc: func(_ context.Context, id string) (domain.Friendship, error) {
			if id != "req-1" {
				t.Fatalf("unexpected id: %s", id)
			}
			return stored, nil
		},
		updateFunc: func(_ context.Context, f domain.Friendship, from domain.FriendshipStatus) error {
			if from != domain.FriendshipPending {
				t.Fatalf("unexpected from status: %s", from)
			}
			if f.Status != domain.FriendshipAccepted || f.RespondedAt == nil || !f.RespondedAt.Equal(respondedAt) {
				t.Fatalf("unexpected update: %+v", f)
			}
			return nil
		},
	}

	api := &api{
		friendsSvc: &service.FriendsService{
			Friendships: store,
			Now:         func() time.Time { return respondedAt },
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/v1/friendships/req-1", strings.NewReader(`{"status":"ACCEPT"}`))
	req.SetPathValue("id", "req-1")
	req = req.WithContext(withActor(req.Context(), domain.Actor{UserID: "user-1", Role: domain.RoleUser}))

	rr := httptest.NewRecorder()
	api.handleFriendsRespond(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var got domain.Friendship
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != domain.FriendshipAccepted {
		t.Fatalf("unexpected status in body: %s", got.Status)
	}
}

func TestFriendsRespondConcurrentChangeIsNotAuthorized(t *testing.T) {
	store := &stubFriendshipsStore{
		t: t,
		getFunc: func(context.Context, string) (domain.Friendship, error) {
			return domain.Friendship{ID: "req-1", RequesterID: "user-2", ReceiverID: "user-1", Status: domain.FriendshipPending}, nil
		},
		updateFunc: func(context.Context, domain.Friendship, domain.FriendshipStatus) error {
			return domain.ErrNotAuthorized
		},
	}
	api := &api{friendsSvc: &service.FriendsService{Friendships: store}}

	req := httptest.NewRequest(http.MethodPatch, "/v1/friendships/req-1", strings.NewReader(`{"status":"DECLINED"}`))
	req.SetPathValue("id", "req-1")
	req = req.WithContext(withActor(req.Context(), domain.Actor{UserID: "user-1", Role: domain.RoleUser}))

	rr := httptest.NewRecorder()
	api.handleFriendsRespond(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestFriendsOverviewRequiresActor(t *testing.T) {
	api := &api{friendsSvc: &service.FriendsService{Friendships: &stubFriendshipsStore{t: t}}}
	rr := httptest.NewRecorder()
	api.handleFriendsOverview(rr, httptest.NewRequest(http.MethodGet, "/v1/friendships", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}
