package service

import (
	"context"
	"errors"
	"testing"

	"heroesfund/internal/domain"
	"heroesfund/internal/store/memory"
)

type friendsFixture struct {
	svc     *FriendsService
	a, b, c string
}

func newFriendsFixture() friendsFixture {
	st := memory.New()
	a := st.PutUser(domain.User{Username: "a"})
	b := st.PutUser(domain.User{Username: "b"})
	c := st.PutUser(domain.User{Username: "c"})
	return friendsFixture{svc: &FriendsService{Users: st, Friendships: st}, a: a.ID, b: b.ID, c: c.ID}
}

func TestSendRequestRejectsSelf(t *testing.T) {
	f := newFriendsFixture()
	_, err := f.svc.SendRequest(context.Background(), f.a, f.a)
	if !errors.Is(err, domain.ErrSelfRequest) {
		t.Fatalf("err = %v, want ErrSelfRequest", err)
	}
}

func TestSendRequestUnknownReceiver(t *testing.T) {
	f := newFriendsFixture()
	_, err := f.svc.SendRequest(context.Background(), f.a, "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSendRequestDuplicateEitherDirection(t *testing.T) {
	f := newFriendsFixture()
	ctx := context.Background()

	req, err := f.svc.SendRequest(ctx, f.a, f.b)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := f.svc.SendRequest(ctx, f.a, f.b); !errors.Is(err, domain.ErrDuplicateEdge) {
		t.Fatalf("same direction err = %v", err)
	}
	if _, err := f.svc.SendRequest(ctx, f.b, f.a); !errors.Is(err, domain.ErrDuplicateEdge) {
		t.Fatalf("reverse direction err = %v", err)
	}

	if _, err := f.svc.Respond(ctx, f.b, req.ID, domain.FriendActionAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.SendRequest(ctx, f.b, f.a); !errors.Is(err, domain.ErrDuplicateEdge) {
		t.Fatalf("accepted pair err = %v", err)
	}

	if err := f.svc.Remove(ctx, f.a, req.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := f.svc.SendRequest(ctx, f.b, f.a); err != nil {
		t.Fatalf("send after remove: %v", err)
	}
}

func TestDeclineFreesPair(t *testing.T) {
	f := newFriendsFixture()
	ctx := context.Background()

	req, _ := f.svc.SendRequest(ctx, f.a, f.b)
	declined, err := f.svc.Respond(ctx, f.b, req.ID, domain.FriendActionDecline)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.Status != domain.FriendshipDeclined || declined.RespondedAt == nil {
		t.Fatalf("declined = %+v", declined)
	}
	if _, err := f.svc.SendRequest(ctx, f.a, f.b); err != nil {
		t.Fatalf("resend: %v", err)
	}
}

func TestRespondOnlyByReceiverOnce(t *testing.T) {
	f := newFriendsFixture()
	ctx := context.Background()
	req, _ := f.svc.SendRequest(ctx, f.a, f.b)

	for _, caller := range []string{f.a, f.c} {
		if _, err := f.svc.Respond(ctx, caller, req.ID, domain.FriendActionAccept); !errors.Is(err, domain.ErrNotAuthorized) {
			t.Fatalf("caller %s err = %v, want ErrNotAuthorized", caller, err)
		}
	}
	if _, err := f.svc.Respond(ctx, f.b, req.ID, domain.FriendActionAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Respond(ctx, f.b, req.ID, domain.FriendActionDecline); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("second response err = %v", err)
	}
}

func TestRemoveMissingIsNotAuthorized(t *testing.T) {
	f := newFriendsFixture()
	if err := f.svc.Remove(context.Background(), f.a, "missing"); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
}

func TestBlockAndUnblock(t *testing.T) {
	f := newFriendsFixture()
	ctx := context.Background()
	req, _ := f.svc.SendRequest(ctx, f.a, f.b)

	blocked, err := f.svc.Block(ctx, f.b, req.ID)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if blocked.Status != domain.FriendshipBlocked || blocked.BlockedBy != f.b {
		t.Fatalf("blocked = %+v", blocked)
	}
	if _, err := f.svc.SendRequest(ctx, f.a, f.b); !errors.Is(err, domain.ErrDuplicateEdge) {
		t.Fatalf("send while blocked err = %v", err)
	}
	if err := f.svc.Remove(ctx, f.a, req.ID); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("non-blocker remove err = %v", err)
	}
	if err := f.svc.Remove(ctx, f.b, req.ID); err != nil {
		t.Fatalf("unblock: %v", err)
	}
}

func TestListOverviewThroughService(t *testing.T) {
	f := newFriendsFixture()
	ctx := context.Background()
	_, _ = f.svc.SendRequest(ctx, f.a, f.b)

	ov, err := f.svc.ListOverview(ctx, f.b)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(ov.Incoming) != 1 || ov.Incoming[0].User.ID != f.a {
		t.Fatalf("incoming = %+v", ov.Incoming)
	}
}
