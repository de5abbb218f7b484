package domain

import (
	"strings"
	"time"
)

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "PENDING"
	StatusApproved ApplicationStatus = "APPROVED"
	StatusRejected ApplicationStatus = "REJECTED"
	StatusContest  ApplicationStatus = "CONTEST"
)

var applicationStatuses = []ApplicationStatus{StatusPending, StatusApproved, StatusRejected, StatusContest}

func ApplicationStatuses() []ApplicationStatus {
	out := make([]ApplicationStatus, len(applicationStatuses))
	copy(out, applicationStatuses)
	return out
}

func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusContest:
		return true
	default:
		return false
	}
}

// Rank is the position of s in declaration order; used as the status sort key.
func (s ApplicationStatus) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusApproved:
		return 1
	case StatusRejected:
		return 2
	case StatusContest:
		return 3
	default:
		return len(applicationStatuses)
	}
}

// Financial reports whether a decision into s may carry a trust decrease.
func (s ApplicationStatus) Financial() bool {
	return s == StatusApproved || s == StatusRejected
}

type Application struct {
	ID                string            `json:"id"`
	OwnerID           string            `json:"owner_id"`
	Title             string            `json:"title"`
	Summary           string            `json:"summary"`
	Content           string            `json:"content"`
	Amount            int64             `json:"amount"`
	PaymentDetails    string            `json:"payment_details"`
	BankName          string            `json:"bank_name,omitempty"`
	Images            []string          `json:"images"`
	Status            ApplicationStatus `json:"status"`
	AdminComment      *string           `json:"admin_comment"`
	CountTowardsTrust bool              `json:"count_towards_trust"`
	PublishInStories  bool              `json:"publish_in_stories"`
	Version           int               `json:"version"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	DecidedAt         *time.Time        `json:"decided_at,omitempty"`
}

// ApplicationContent is the owner-editable part of an application.
type ApplicationContent struct {
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	Content        string   `json:"content"`
	Amount         int64    `json:"amount"`
	PaymentDetails string   `json:"payment_details"`
	BankName       string   `json:"bank_name,omitempty"`
	Images         []string `json:"images"`
}

const (
	maxTitleLen   = 120
	maxSummaryLen = 500
	maxContentLen = 20000
	maxImages     = 10
)

func (c ApplicationContent) Normalize() ApplicationContent {
	c.Title = strings.TrimSpace(c.Title)
	c.Summary = strings.TrimSpace(c.Summary)
	c.Content = strings.TrimSpace(c.Content)
	c.PaymentDetails = strings.TrimSpace(c.PaymentDetails)
	c.BankName = strings.TrimSpace(c.BankName)
	images := make([]string, 0, len(c.Images))
	for _, img := range c.Images {
		img = strings.TrimSpace(img)
		if img != "" {
			images = append(images, img)
		}
	}
	c.Images = images
	return c
}

func (c ApplicationContent) Validate() error {
	fields := map[string]string{}
	switch {
	case c.Title == "":
		fields["title"] = "required"
	case len(c.Title) > maxTitleLen:
		fields["title"] = "too long"
	}
	switch {
	case c.Summary == "":
		fields["summary"] = "required"
	case len(c.Summary) > maxSummaryLen:
		fields["summary"] = "too long"
	}
	if len(c.Content) > maxContentLen {
		fields["content"] = "too long"
	}
	if c.Amount <= 0 {
		fields["amount"] = "must be a positive integer"
	}
	if c.PaymentDetails == "" {
		fields["payment_details"] = "required"
	}
	if len(c.Images) > maxImages {
		fields["images"] = "too many images"
	}
	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

// NewApplication builds a PENDING application owned by ownerID. Content must
// already be normalized and validated.
func NewApplication(ownerID string, c ApplicationContent, now time.Time) Application {
	images := c.Images
	if images == nil {
		images = []string{}
	}
	return Application{
		OwnerID:           ownerID,
		Title:             c.Title,
		Summary:           c.Summary,
		Content:           c.Content,
		Amount:            c.Amount,
		PaymentDetails:    c.PaymentDetails,
		BankName:          c.BankName,
		Images:            images,
		Status:            StatusPending,
		CountTowardsTrust: true,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Editable reports whether the owner may still change the content.
func (a Application) Editable() bool {
	return a.Status == StatusPending && a.DecidedAt == nil
}

func (a Application) WithContent(c ApplicationContent, now time.Time) Application {
	a.Title = c.Title
	a.Summary = c.Summary
	a.Content = c.Content
	a.Amount = c.Amount
	a.PaymentDetails = c.PaymentDetails
	a.BankName = c.BankName
	a.Images = c.Images
	if a.Images == nil {
		a.Images = []string{}
	}
	a.UpdatedAt = now
	return a
}

// Decision is an administrator verdict on an application.
type Decision struct {
	Status           ApplicationStatus
	Comment          *string
	DecreaseTrust    bool
	PublishInStories bool

	// CountTowardsTrust overrides the trust-counting flag when set.
	CountTowardsTrust *bool
	// ExpectedVersion enables a compare-and-swap on Version when > 0.
	ExpectedVersion int
}

// ApplyDecision moves a to d.Status. Every state may move to every state;
// the only constraint is that PublishInStories survives only under CONTEST.
// The second result reports whether a trust decrease was requested and
// honored.
func ApplyDecision(a Application, d Decision, now time.Time) (Application, bool, error) {
	if !d.Status.Valid() {
		return Application{}, false, ErrInvalidStatus
	}
	if d.ExpectedVersion > 0 && d.ExpectedVersion != a.Version {
		return Application{}, false, ErrConflict
	}

	a.Status = d.Status
	a.AdminComment = normalizeComment(d.Comment)
	a.PublishInStories = d.PublishInStories && d.Status == StatusContest
	if d.CountTowardsTrust != nil {
		a.CountTowardsTrust = *d.CountTowardsTrust
	}
	if d.Status != StatusPending {
		decided := now
		a.DecidedAt = &decided
	}
	a.UpdatedAt = now

	return a, d.DecreaseTrust && d.Status.Financial(), nil
}

func normalizeComment(c *string) *string {
	if c == nil {
		return nil
	}
	s := strings.TrimSpace(*c)
	if s == "" {
		return nil
	}
	return &s
}

// CheckInvariants reports a field-invariant violation on a stored record.
func (a Application) CheckInvariants() error {
	if !a.Status.Valid() {
		return ErrInvalidStatus
	}
	if a.PublishInStories && a.Status != StatusContest {
		return ErrInvalidTransition
	}
	return nil
}
