package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingApplication() Application {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := NewApplication("owner-1", ApplicationContent{
		Title:          "Wheelchair repair",
		Summary:        "Need help fixing a wheelchair",
		Amount:         1200,
		PaymentDetails: "card 0000",
	}, now)
	a.ID = "app-1"
	return a
}

func TestApplyDecisionPublishOnlyUnderContest(t *testing.T) {
	now := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	for _, st := range ApplicationStatuses() {
		got, _, err := ApplyDecision(pendingApplication(), Decision{Status: st, PublishInStories: true}, now)
		require.NoError(t, err)
		assert.Equal(t, st == StatusContest, got.PublishInStories, "status=%s", st)
		require.NoError(t, got.CheckInvariants())
	}
}

func TestApplyDecisionLeavingContestClearsPublish(t *testing.T) {
	now := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	a, _, err := ApplyDecision(pendingApplication(), Decision{Status: StatusContest, PublishInStories: true}, now)
	require.NoError(t, err)
	require.True(t, a.PublishInStories)

	a, _, err = ApplyDecision(a, Decision{Status: StatusApproved, PublishInStories: true}, now)
	require.NoError(t, err)
	assert.False(t, a.PublishInStories)
}

func TestApplyDecisionInvalidStatus(t *testing.T) {
	_, _, err := ApplyDecision(pendingApplication(), Decision{Status: "ARCHIVED"}, time.Now())
	require.True(t, errors.Is(err, ErrInvalidStatus))
}

func TestApplyDecisionTrustOnlyForFinancialStatuses(t *testing.T) {
	now := time.Now()
	cases := map[ApplicationStatus]bool{
		StatusPending:  false,
		StatusApproved: true,
		StatusRejected: true,
		StatusContest:  false,
	}
	for st, want := range cases {
		_, requested, err := ApplyDecision(pendingApplication(), Decision{Status: st, DecreaseTrust: true}, now)
		require.NoError(t, err)
		assert.Equal(t, want, requested, "status=%s", st)
	}
	_, requested, err := ApplyDecision(pendingApplication(), Decision{Status: StatusRejected}, now)
	require.NoError(t, err)
	assert.False(t, requested)
}

func TestApplyDecisionAnyToAny(t *testing.T) {
	now := time.Now()
	for _, from := range ApplicationStatuses() {
		for _, to := range ApplicationStatuses() {
			a := pendingApplication()
			a.Status = from
			got, _, err := ApplyDecision(a, Decision{Status: to}, now)
			require.NoError(t, err, "%s -> %s", from, to)
			assert.Equal(t, to, got.Status)
		}
	}
}

func TestApplyDecisionIdempotent(t *testing.T) {
	now := time.Now()
	comment := "  looks fine "
	d := Decision{Status: StatusApproved, Comment: &comment}

	first, _, err := ApplyDecision(pendingApplication(), d, now)
	require.NoError(t, err)
	second, _, err := ApplyDecision(first, d, now)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	require.NotNil(t, second.AdminComment)
	assert.Equal(t, "looks fine", *second.AdminComment)
	assert.Equal(t, *first.AdminComment, *second.AdminComment)
}

func TestApplyDecisionVersionCheck(t *testing.T) {
	a := pendingApplication()
	_, _, err := ApplyDecision(a, Decision{Status: StatusApproved, ExpectedVersion: 2}, time.Now())
	require.True(t, errors.Is(err, ErrConflict))

	_, _, err = ApplyDecision(a, Decision{Status: StatusApproved, ExpectedVersion: 1}, time.Now())
	require.NoError(t, err)
}

func TestApplyDecisionCountTowardsTrust(t *testing.T) {
	off := false
	got, _, err := ApplyDecision(pendingApplication(), Decision{Status: StatusApproved, CountTowardsTrust: &off}, time.Now())
	require.NoError(t, err)
	assert.False(t, got.CountTowardsTrust)

	got, _, err = ApplyDecision(got, Decision{Status: StatusApproved}, time.Now())
	require.NoError(t, err)
	assert.False(t, got.CountTowardsTrust)
}

func TestApplicationEditableOnlyBeforeDecision(t *testing.T) {
	a := pendingApplication()
	require.True(t, a.Editable())

	a, _, err := ApplyDecision(a, Decision{Status: StatusRejected}, time.Now())
	require.NoError(t, err)
	require.False(t, a.Editable())

	a, _, err = ApplyDecision(a, Decision{Status: StatusPending}, time.Now())
	require.NoError(t, err)
	assert.False(t, a.Editable())
}

func TestApplicationContentValidate(t *testing.T) {
	err := ApplicationContent{}.Normalize().Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "summary")
	assert.Contains(t, verr.Fields, "amount")
	assert.Contains(t, verr.Fields, "payment_details")

	c := ApplicationContent{
		Title:          " Title ",
		Summary:        "Summary",
		Amount:         10,
		PaymentDetails: "iban",
		Images:         []string{" a.png ", "", "b.png"},
	}.Normalize()
	require.NoError(t, c.Validate())
	assert.Equal(t, "Title", c.Title)
	assert.Equal(t, []string{"a.png", "b.png"}, c.Images)
}
