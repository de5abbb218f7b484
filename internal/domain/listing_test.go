package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingFixture() []Application {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	statuses := ApplicationStatuses()
	out := make([]Application, 0, 60)
	for i := 0; i < 60; i++ {
		out = append(out, Application{
			ID:        fmt.Sprintf("app-%02d", i),
			OwnerID:   fmt.Sprintf("owner-%d", i%3),
			Title:     fmt.Sprintf("Request %d", i),
			Summary:   map[bool]string{true: "Medical BILLS", false: "school fees"}[i%2 == 0],
			Amount:    int64(250 * (i % 8)),
			Status:    statuses[i%len(statuses)],
			CreatedAt: base.Add(time.Duration(i%10) * time.Hour),
		})
	}
	return out
}

func mustNormalize(t *testing.T, q ApplicationQuery) ApplicationQuery {
	t.Helper()
	n, err := q.Normalize()
	require.NoError(t, err)
	return n
}

func TestListRejectedMinAmountScenario(t *testing.T) {
	items := listingFixture()
	min := int64(1000)
	q := mustNormalize(t, ApplicationQuery{
		Filter:   ApplicationFilter{Status: StatusRejected, MinAmount: &min},
		SortBy:   SortByAmount,
		Order:    SortDesc,
		Page:     1,
		PageSize: 20,
	})

	var want int
	for _, a := range items {
		if a.Status == StatusRejected && a.Amount >= 1000 {
			want++
		}
	}
	require.Greater(t, want, 0)

	var got []Application
	for page := 1; ; page++ {
		q.Page = page
		res := ListApplications(items, q)
		assert.Equal(t, PageCount(want, 20), res.Pages)
		assert.LessOrEqual(t, len(res.Items), 20)
		if len(res.Items) == 0 {
			break
		}
		got = append(got, res.Items...)
	}

	require.Len(t, got, want)
	for i, a := range got {
		assert.Equal(t, StatusRejected, a.Status)
		assert.GreaterOrEqual(t, a.Amount, int64(1000))
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Amount, a.Amount)
		}
	}
}

func TestListStableAcrossCalls(t *testing.T) {
	items := listingFixture()
	for _, key := range []SortKey{SortByDate, SortByAmount, SortByStatus} {
		for _, order := range []SortOrder{SortAsc, SortDesc} {
			q := mustNormalize(t, ApplicationQuery{SortBy: key, Order: order, Page: 2, PageSize: 7})
			first := ListApplications(items, q)
			second := ListApplications(items, q)
			assert.Equal(t, first, second, "sort=%s order=%s", key, order)
		}
	}
}

func TestListPagesConcatenateWithoutGapsOrDuplicates(t *testing.T) {
	items := listingFixture()
	q := mustNormalize(t, ApplicationQuery{SortBy: SortByStatus, Order: SortAsc, PageSize: 8})

	seen := map[string]bool{}
	pages := ListApplications(items, q).Pages
	require.Equal(t, 8, pages)
	for p := 1; p <= pages; p++ {
		q.Page = p
		for _, a := range ListApplications(items, q).Items {
			require.False(t, seen[a.ID], "duplicate %s", a.ID)
			seen[a.ID] = true
		}
	}
	assert.Len(t, seen, len(items))
}

func TestListTieBreakCreatedDescThenID(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []Application{
		{ID: "b", Amount: 100, CreatedAt: at},
		{ID: "a", Amount: 100, CreatedAt: at},
		{ID: "c", Amount: 100, CreatedAt: at.Add(time.Hour)},
	}
	q := mustNormalize(t, ApplicationQuery{SortBy: SortByAmount, Order: SortAsc})
	res := ListApplications(items, q)
	ids := []string{res.Items[0].ID, res.Items[1].ID, res.Items[2].ID}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestListQueryCaseInsensitive(t *testing.T) {
	items := listingFixture()
	q := mustNormalize(t, ApplicationQuery{Filter: ApplicationFilter{Query: "medical bills"}, PageSize: 100})
	res := ListApplications(items, q)
	assert.Len(t, res.Items, 30)

	q = mustNormalize(t, ApplicationQuery{Filter: ApplicationFilter{Query: "REQUEST 5"}, PageSize: 100})
	res = ListApplications(items, q)
	for _, a := range res.Items {
		assert.Contains(t, a.Title, "Request 5")
	}
	assert.NotEmpty(t, res.Items)
}

func TestListOwnerAndAmountRange(t *testing.T) {
	items := listingFixture()
	min, max := int64(500), int64(750)
	q := mustNormalize(t, ApplicationQuery{
		Filter:   ApplicationFilter{OwnerID: "owner-1", MinAmount: &min, MaxAmount: &max},
		PageSize: 100,
	})
	for _, a := range ListApplications(items, q).Items {
		assert.Equal(t, "owner-1", a.OwnerID)
		assert.GreaterOrEqual(t, a.Amount, min)
		assert.LessOrEqual(t, a.Amount, max)
	}
}

func TestListEmptyAndOutOfRange(t *testing.T) {
	q := mustNormalize(t, ApplicationQuery{Page: 3})
	res := ListApplications(nil, q)
	assert.Equal(t, 0, res.Pages)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)

	res = ListApplications(listingFixture(), mustNormalize(t, ApplicationQuery{Page: 99}))
	assert.Empty(t, res.Items)
	assert.Equal(t, 3, res.Pages)
}

func TestListHugePageIsEmpty(t *testing.T) {
	q := mustNormalize(t, ApplicationQuery{Page: math.MaxInt / 10, PageSize: 20})
	assert.Equal(t, MaxPage, q.Page)
	assert.GreaterOrEqual(t, q.Offset(), 0)

	res := ListApplications(listingFixture(), q)
	assert.Empty(t, res.Items)
	assert.Equal(t, 3, res.Pages)

	// Un-normalized queries still stay in range.
	res = ListApplications(listingFixture(), ApplicationQuery{Page: math.MaxInt, PageSize: MaxPageSize})
	assert.Empty(t, res.Items)
}

func TestNormalizeQuery(t *testing.T) {
	q := mustNormalize(t, ApplicationQuery{PageSize: 500, Page: -1, SortBy: "AMOUNT", Order: "ASC"})
	assert.Equal(t, MaxPageSize, q.PageSize)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, SortByAmount, q.SortBy)
	assert.Equal(t, SortAsc, q.Order)

	q = mustNormalize(t, ApplicationQuery{})
	assert.Equal(t, DefaultPageSize, q.PageSize)
	assert.Equal(t, SortByDate, q.SortBy)
	assert.Equal(t, SortDesc, q.Order)

	min, max := int64(10), int64(5)
	_, err := ApplicationQuery{Filter: ApplicationFilter{MinAmount: &min, MaxAmount: &max}}.Normalize()
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = ApplicationQuery{SortBy: "title"}.Normalize()
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = ParseStatusFilter("archived")
	assert.True(t, errors.Is(err, ErrInvalidStatus))

	st, err := ParseStatusFilter("all")
	require.NoError(t, err)
	assert.Equal(t, ApplicationStatus(""), st)
}
