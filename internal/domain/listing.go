package domain

import (
	"sort"
	"strings"
)

type SortKey string

const (
	SortByDate   SortKey = "date"
	SortByAmount SortKey = "amount"
	SortByStatus SortKey = "status"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage bounds the page number so the offset stays well inside int32.
	MaxPage         = 1_000_000

	StatusFilterAll = "ALL"
)

type ApplicationFilter struct {
	Query     string
	Status    ApplicationStatus // empty means ALL
	MinAmount *int64
	MaxAmount *int64
	OwnerID   string
}

type ApplicationQuery struct {
	Filter   ApplicationFilter
	SortBy   SortKey
	Order    SortOrder
	Page     int
	PageSize int
}

type ApplicationPage struct {
	Items []Application `json:"items"`
	Pages int           `json:"pages"`
}

// ParseStatusFilter maps "" and ALL to the empty (unfiltered) status.
func ParseStatusFilter(s string) (ApplicationStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, StatusFilterAll) {
		return "", nil
	}
	return ParseApplicationStatus(s)
}

// Normalize fills defaults and rejects values outside the closed sets.
func (q ApplicationQuery) Normalize() (ApplicationQuery, error) {
	fields := map[string]string{}

	q.Filter.Query = strings.TrimSpace(q.Filter.Query)
	if q.Filter.Status != "" && !q.Filter.Status.Valid() {
		fields["status"] = "must be one of PENDING, APPROVED, REJECTED, CONTEST, ALL"
	}
	if q.Filter.MinAmount != nil && q.Filter.MaxAmount != nil && *q.Filter.MinAmount > *q.Filter.MaxAmount {
		fields["amount"] = "min exceeds max"
	}

	switch SortKey(strings.ToLower(string(q.SortBy))) {
	case "":
		q.SortBy = SortByDate
	case SortByDate, SortByAmount, SortByStatus:
		q.SortBy = SortKey(strings.ToLower(string(q.SortBy)))
	default:
		fields["sortBy"] = "must be one of date, amount, status"
	}

	switch SortOrder(strings.ToLower(string(q.Order))) {
	case "":
		q.Order = SortDesc
	case SortAsc, SortDesc:
		q.Order = SortOrder(strings.ToLower(string(q.Order)))
	default:
		fields["sortOrder"] = "must be asc or desc"
	}

	if len(fields) > 0 {
		return ApplicationQuery{}, NewValidationError(fields)
	}

	switch {
	case q.Page < 1:
		q.Page = 1
	case q.Page > MaxPage:
		q.Page = MaxPage
	}
	switch {
	case q.PageSize <= 0:
		q.PageSize = DefaultPageSize
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}
	return q, nil
}

// Offset is the index of the first item on the page. q must be normalized.
func (q ApplicationQuery) Offset() int {
	if q.Page < 1 || q.PageSize <= 0 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// PageCount is ceil(matching / pageSize).
func PageCount(matching, pageSize int) int {
	if matching <= 0 || pageSize <= 0 {
		return 0
	}
	return (matching + pageSize - 1) / pageSize
}

func (f ApplicationFilter) Matches(a Application) bool {
	if f.OwnerID != "" && a.OwnerID != f.OwnerID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.MinAmount != nil && a.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && a.Amount > *f.MaxAmount {
		return false
	}
	if f.Query != "" {
		needle := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(a.Title), needle) && !strings.Contains(strings.ToLower(a.Summary), needle) {
			return false
		}
	}
	return true
}

// Less orders a before b for the query's sort key and order. Ties fall back
// to creation time descending, then id ascending, so the ordering is total.
func (q ApplicationQuery) Less(a, b Application) bool {
	var c int
	switch q.SortBy {
	case SortByAmount:
		c = cmpInt64(a.Amount, b.Amount)
	case SortByStatus:
		c = cmpInt64(int64(a.Status.Rank()), int64(b.Status.Rank()))
	default:
		c = cmpTime(a, b)
	}
	if q.Order == SortDesc {
		c = -c
	}
	if c != 0 {
		return c < 0
	}
	if tc := cmpTime(a, b); tc != 0 {
		return tc > 0
	}
	return a.ID < b.ID
}

// ListApplications evaluates q over items. q must be normalized.
func ListApplications(items []Application, q ApplicationQuery) ApplicationPage {
	matched := make([]Application, 0, len(items))
	for _, a := range items {
		if q.Filter.Matches(a) {
			matched = append(matched, a)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return q.Less(matched[i], matched[j]) })

	page := ApplicationPage{Items: []Application{}, Pages: PageCount(len(matched), q.PageSize)}
	start := q.Offset()
	if start < 0 || start >= len(matched) {
		return page
	}
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	page.Items = append(page.Items, matched[start:end]...)
	return page
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpTime(a, b Application) int {
	switch {
	case a.CreatedAt.Before(b.CreatedAt):
		return -1
	case a.CreatedAt.After(b.CreatedAt):
		return 1
	default:
		return 0
	}
}
