package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"heroesfund/internal/domain"
)

func TestTokenCodec_SignAndVerify(t *testing.T) {
	codec := NewTokenCodec([]byte(strings.Repeat("x", 32)))
	actor := domain.Actor{UserID: "u-1", Role: domain.RoleAdmin}

	token, err := codec.Encode(actor, 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(token, "u-1|") {
		t.Fatalf("expected encoded payload, got %q", token)
	}

	got, err := codec.Decode(token)
	if err != nil || got != actor {
		t.Fatalf("decode = %+v, %v", got, err)
	}

	if _, err := codec.Decode(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected tampered token to fail verification")
	}

	other := NewTokenCodec([]byte(strings.Repeat("y", 32)))
	if _, err := other.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token from another secret to fail")
	}
}

func TestTokenCodec_Expiry(t *testing.T) {
	codec := NewTokenCodec([]byte(strings.Repeat("x", 32)))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return base }

	token, err := codec.Encode(domain.Actor{UserID: "u-1", Role: domain.RoleUser}, time.Hour)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := codec.Decode(token); err != nil {
		t.Fatalf("fresh token: %v", err)
	}

	codec.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, err := codec.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestTokenCodec_Unsigned(t *testing.T) {
	codec := NewTokenCodec(nil)
	got, err := codec.Decode("abc|user")
	if err != nil || got.UserID != "abc" || got.Role != domain.RoleUser {
		t.Fatalf("decode = %+v, %v", got, err)
	}
	if token, _ := codec.Encode(got, 0); token != "abc|USER" {
		t.Fatalf("unexpected unsigned encoding")
	}
	for _, bad := range []string{"", "abc", "abc|ROOT", "|ADMIN"} {
		if _, err := codec.Decode(bad); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Decode(%q) err = %v", bad, err)
		}
	}
}

func TestTokenCodec_EncodeRejectsUndecodableActors(t *testing.T) {
	signed := NewTokenCodec([]byte(strings.Repeat("x", 32)))
	unsigned := NewTokenCodec(nil)
	bad := []domain.Actor{
		{UserID: "", Role: domain.RoleUser},
		{UserID: "a|b", Role: domain.RoleUser},
		{UserID: " u-1", Role: domain.RoleUser},
		{UserID: "u-1", Role: "ROOT"},
	}
	for _, codec := range []TokenCodec{signed, unsigned} {
		for _, actor := range bad {
			if _, err := codec.Encode(actor, time.Hour); !errors.Is(err, ErrInvalidActor) {
				t.Fatalf("Encode(%+v) err = %v, want ErrInvalidActor", actor, err)
			}
		}
	}
}
