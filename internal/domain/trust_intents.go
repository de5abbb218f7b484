package domain

import "time"

type TrustIntentStatus string

const (
	TrustIntentPending TrustIntentStatus = "pending"
	TrustIntentDone    TrustIntentStatus = "done"
	TrustIntentFailed  TrustIntentStatus = "failed"
)

// TrustIntent is a durable request to lower a user's trust tier by one step,
// recorded after the moderation decision that caused it.
type TrustIntent struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	ApplicationID string            `json:"application_id"`
	Status        TrustIntentStatus `json:"status"`
	Attempts      int               `json:"attempts"`
	LastError     string            `json:"last_error,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	AppliedAt     *time.Time        `json:"applied_at,omitempty"`
}
