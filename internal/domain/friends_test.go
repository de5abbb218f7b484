package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCheckFriendRequestRejectsSelf(t *testing.T) {
	if err := CheckFriendRequest("u1", "u1"); !errors.Is(err, ErrSelfRequest) {
		t.Fatalf("expected self request error, got %v", err)
	}
	if err := CheckFriendRequest("u1", " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := CheckFriendRequest("u1", "u2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRespondOnlyReceiver(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFriendship("u1", "u2", now)

	if _, err := f.Respond(FriendActionAccept, "u1", now); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("requester accept: expected not authorized, got %v", err)
	}
	if _, err := f.Respond(FriendActionAccept, "u3", now); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("stranger accept: expected not authorized, got %v", err)
	}

	got, err := f.Respond(FriendActionAccept, "u2", now)
	if err != nil {
		t.Fatalf("receiver accept: %v", err)
	}
	if got.Status != FriendshipAccepted || got.RespondedAt == nil {
		t.Fatalf("unexpected friendship: %#v", got)
	}

	if _, err := got.Respond(FriendActionDecline, "u2", now); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("respond on accepted: expected not authorized, got %v", err)
	}
}

func TestRespondDecline(t *testing.T) {
	now := time.Now()
	got, err := NewFriendship("u1", "u2", now).Respond(FriendActionDecline, "u2", now)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if got.Status != FriendshipDeclined {
		t.Fatalf("unexpected status: %s", got.Status)
	}
	if got.Occupies() {
		t.Fatalf("declined edge must not occupy the pair")
	}
}

func TestCheckRemove(t *testing.T) {
	now := time.Now()
	pending := NewFriendship("u1", "u2", now)
	if err := pending.CheckRemove("u1"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("remove pending: expected not authorized, got %v", err)
	}

	accepted, _ := pending.Respond(FriendActionAccept, "u2", now)
	for _, caller := range []string{"u1", "u2"} {
		if err := accepted.CheckRemove(caller); err != nil {
			t.Fatalf("remove by %s: %v", caller, err)
		}
	}
	if err := accepted.CheckRemove("u3"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("remove by stranger: expected not authorized, got %v", err)
	}
}

func TestBlock(t *testing.T) {
	now := time.Now()
	f := NewFriendship("u1", "u2", now)

	blocked, err := f.Block("u2", now)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if blocked.Status != FriendshipBlocked || blocked.BlockedBy != "u2" {
		t.Fatalf("unexpected friendship: %#v", blocked)
	}
	if !blocked.Occupies() {
		t.Fatalf("blocked edge must occupy the pair")
	}
	if _, err := blocked.Block("u1", now); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("re-block: expected not authorized, got %v", err)
	}
	if _, err := blocked.Respond(FriendActionAccept, "u2", now); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("respond on blocked: expected not authorized, got %v", err)
	}
	if err := blocked.CheckRemove("u1"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("blocked party remove: expected not authorized, got %v", err)
	}
	if err := blocked.CheckRemove("u2"); err != nil {
		t.Fatalf("blocker remove: %v", err)
	}
}

func TestParseFriendAction(t *testing.T) {
	tests := []struct {
		in   string
		want FriendAction
		ok   bool
	}{
		{"ACCEPTED", FriendActionAccept, true},
		{"accept", FriendActionAccept, true},
		{"DECLINED", FriendActionDecline, true},
		{"BLOCKED", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := ParseFriendAction(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseFriendAction(%q) = %q, %v", tt.in, got, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("ParseFriendAction(%q): expected invalid status, got %v", tt.in, err)
		}
	}
}
