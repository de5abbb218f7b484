package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"

	"heroesfund/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid actor token")
	ErrInvalidActor = errors.New("invalid actor")
)

const macInfo = "heroesfund actor token v1"

// TokenCodec signs and verifies actor tokens of the form
// base64url(userID|ROLE|expiry) "." base64url(hmac). Expiry is unix seconds,
// 0 for no expiry.
type TokenCodec struct {
	key []byte
	now func() time.Time
}

// NewTokenCodec derives the MAC key from secret with HKDF-SHA256. An empty
// secret yields an unsigned codec that accepts "userID|ROLE" verbatim; it is
// only meant for local development.
func NewTokenCodec(secret []byte) TokenCodec {
	if len(secret) == 0 {
		return TokenCodec{now: time.Now}
	}
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(macInfo)), key); err != nil {
		panic(err)
	}
	return TokenCodec{key: key, now: time.Now}
}

func (c TokenCodec) Signed() bool { return len(c.key) > 0 }

// Encode issues a token for actor. ttl <= 0 means the token does not expire.
// The user id must be non-empty, untrimmed and free of '|'.
func (c TokenCodec) Encode(actor domain.Actor, ttl time.Duration) (string, error) {
	id := actor.UserID
	if id == "" || id != strings.TrimSpace(id) || strings.Contains(id, "|") {
		return "", ErrInvalidActor
	}
	if _, ok := domain.ParseRole(string(actor.Role)); !ok {
		return "", ErrInvalidActor
	}

	var exp int64
	if ttl > 0 {
		exp = c.clock().Add(ttl).Unix()
	}
	payload := actor.UserID + "|" + string(actor.Role) + "|" + strconv.FormatInt(exp, 10)
	if !c.Signed() {
		return actor.UserID + "|" + string(actor.Role), nil
	}
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + base64.RawURLEncoding.EncodeToString(c.sign(payload)), nil
}

func (c TokenCodec) Decode(token string) (domain.Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Actor{}, ErrInvalidToken
	}
	if !c.Signed() {
		return parseActor(token, false)
	}

	payloadB64, sigB64, ok := strings.Cut(token, ".")
	if !ok || payloadB64 == "" || sigB64 == "" {
		return domain.Actor{}, ErrInvalidToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return domain.Actor{}, ErrInvalidToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil || len(sig) != sha256.Size {
		return domain.Actor{}, ErrInvalidToken
	}
	if subtle.ConstantTimeCompare(sig, c.sign(string(payload))) != 1 {
		return domain.Actor{}, ErrInvalidToken
	}

	actor, err := parseActor(string(payload), true)
	if err != nil {
		return domain.Actor{}, err
	}
	return actor, c.checkExpiry(string(payload))
}

func (c TokenCodec) sign(payload string) []byte {
	mac := hmac.New(sha256.New, c.key)
	_, _ = mac.Write([]byte(payload))
	return mac.Sum(nil)
}

func (c TokenCodec) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

func (c TokenCodec) checkExpiry(payload string) error {
	parts := strings.Split(payload, "|")
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || exp < 0 {
		return ErrInvalidToken
	}
	if exp > 0 && c.clock().Unix() >= exp {
		return ErrInvalidToken
	}
	return nil
}

func parseActor(s string, withExpiry bool) (domain.Actor, error) {
	parts := strings.Split(s, "|")
	want := 2
	if withExpiry {
		want = 3
	}
	if len(parts) != want || strings.TrimSpace(parts[0]) == "" {
		return domain.Actor{}, ErrInvalidToken
	}
	role, ok := domain.ParseRole(parts[1])
	if !ok {
		return domain.Actor{}, ErrInvalidToken
	}
	return domain.Actor{UserID: strings.TrimSpace(parts[0]), Role: role}, nil
}
