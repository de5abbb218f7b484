package domain

import (
	"strings"
	"time"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
	FriendshipDeclined FriendshipStatus = "DECLINED"
	FriendshipBlocked  FriendshipStatus = "BLOCKED"
)

func (s FriendshipStatus) Valid() bool {
	switch s {
	case FriendshipPending, FriendshipAccepted, FriendshipDeclined, FriendshipBlocked:
		return true
	default:
		return false
	}
}

type FriendAction string

const (
	FriendActionAccept  FriendAction = "ACCEPT"
	FriendActionDecline FriendAction = "DECLINE"
)

// ParseFriendAction accepts both the verb (ACCEPT) and the target status
// (ACCEPTED) spelling.
func ParseFriendAction(s string) (FriendAction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACCEPT", string(FriendshipAccepted):
		return FriendActionAccept, nil
	case "DECLINE", string(FriendshipDeclined):
		return FriendActionDecline, nil
	default:
		return "", ErrInvalidStatus
	}
}

type Friendship struct {
	ID          string           `json:"id"`
	RequesterID string           `json:"requester_id"`
	ReceiverID  string           `json:"receiver_id"`
	Status      FriendshipStatus `json:"status"`
	BlockedBy   string           `json:"blocked_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
}

func (f Friendship) Involves(userID string) bool {
	return userID != "" && (f.RequesterID == userID || f.ReceiverID == userID)
}

// Other returns the party of f that is not userID.
func (f Friendship) Other(userID string) string {
	if f.RequesterID == userID {
		return f.ReceiverID
	}
	return f.RequesterID
}

// Occupies reports whether f blocks a new request between the same pair.
func (f Friendship) Occupies() bool {
	return f.Status != FriendshipDeclined
}

func CheckFriendRequest(requesterID, receiverID string) error {
	requesterID = strings.TrimSpace(requesterID)
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return NewValidationError(map[string]string{"receiver_id": "required"})
	}
	if requesterID == receiverID {
		return ErrSelfRequest
	}
	return nil
}

func NewFriendship(requesterID, receiverID string, now time.Time) Friendship {
	return Friendship{
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Status:      FriendshipPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (f Friendship) Respond(action FriendAction, callerID string, now time.Time) (Friendship, error) {
	if callerID == "" || callerID != f.ReceiverID || f.Status != FriendshipPending {
		return Friendship{}, ErrNotAuthorized
	}
	switch action {
	case FriendActionAccept:
		f.Status = FriendshipAccepted
	case FriendActionDecline:
		f.Status = FriendshipDeclined
	default:
		return Friendship{}, ErrInvalidStatus
	}
	responded := now
	f.RespondedAt = &responded
	f.UpdatedAt = now
	return f, nil
}

// CheckRemove allows either party to unfriend an ACCEPTED edge, and only the
// blocker to lift a BLOCKED one.
func (f Friendship) CheckRemove(callerID string) error {
	if !f.Involves(callerID) {
		return ErrNotAuthorized
	}
	switch f.Status {
	case FriendshipAccepted:
		return nil
	case FriendshipBlocked:
		if f.BlockedBy == callerID {
			return nil
		}
	}
	return ErrNotAuthorized
}

func (f Friendship) Block(callerID string, now time.Time) (Friendship, error) {
	if !f.Involves(callerID) {
		return Friendship{}, ErrNotAuthorized
	}
	if f.Status != FriendshipPending && f.Status != FriendshipAccepted {
		return Friendship{}, ErrNotAuthorized
	}
	f.Status = FriendshipBlocked
	f.BlockedBy = callerID
	f.UpdatedAt = now
	return f, nil
}

type FriendRequest struct {
	ID        string      `json:"id"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}

type FriendsOverview struct {
	Friends  []UserSummary   `json:"friends"`
	Incoming []FriendRequest `json:"incoming_requests"`
	Outgoing []FriendRequest `json:"outgoing_requests"`
}
