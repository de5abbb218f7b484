package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"heroesfund/internal/domain"
)

type applicationContentRequest struct {
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	Content        string   `json:"content"`
	Amount         int64    `json:"amount"`
	PaymentDetails string   `json:"payment_details"`
	BankName       string   `json:"bank_name"`
	Images         []string `json:"images"`
}

func (req applicationContentRequest) content() domain.ApplicationContent {
	return domain.ApplicationContent{
		Title:          req.Title,
		Summary:        req.Summary,
		Content:        req.Content,
		Amount:         req.Amount,
		PaymentDetails: req.PaymentDetails,
		BankName:       req.BankName,
		Images:         req.Images,
	}
}

func (a *api) handleApplicationsCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req applicationContentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	app, err := a.appsSvc.Create(r.Context(), actor, req.content())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, app)
}

func (a *api) handleApplicationsGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	app, err := a.appsSvc.Get(r.Context(), actor, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, app)
}

type updateContentRequest struct {
	applicationContentRequest
	ExpectedVersion int `json:"expected_version"`
}

func (a *api) handleApplicationsUpdateContent(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateContentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	app, err := a.appsSvc.UpdateContent(r.Context(), actor, id, req.content(), req.ExpectedVersion)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, app)
}

func (a *api) handleApplicationsList(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	if !actor.IsAdmin() {
		WriteDomainError(w, domain.ErrForbidden)
		return
	}

	q, err := parseApplicationQuery(r.URL.Query())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	page, err := a.appsSvc.List(r.Context(), actor, q)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (a *api) handleApplicationsMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	q, err := parseApplicationQuery(r.URL.Query())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	page, err := a.appsSvc.ListMine(r.Context(), actor, q)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

type decideRequest struct {
	Status                  string  `json:"status"`
	AdminComment            *string `json:"admin_comment"`
	DecreaseTrustOnDecision bool    `json:"decrease_trust_on_decision"`
	PublishInStories        bool    `json:"publish_in_stories"`
	CountTowardsTrust       *bool   `json:"count_towards_trust"`
	ExpectedVersion         int     `json:"expected_version"`
}

func (a *api) handleApplicationsDecide(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req decideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	// The status is checked after authorization, inside the decision.
	res, err := a.moderationSvc.Decide(r.Context(), actor, id, domain.Decision{
		Status:            domain.ApplicationStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		Comment:           req.AdminComment,
		DecreaseTrust:     req.DecreaseTrustOnDecision,
		PublishInStories:  req.PublishInStories,
		CountTowardsTrust: req.CountTowardsTrust,
		ExpectedVersion:   req.ExpectedVersion,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

type quickDecideRequest struct {
	AdminComment            *string `json:"admin_comment"`
	DecreaseTrustOnDecision bool    `json:"decrease_trust_on_decision"`
}

func (a *api) handleApplicationsApprove(w http.ResponseWriter, r *http.Request) {
	a.handleQuickDecide(w, r, domain.StatusApproved)
}

func (a *api) handleApplicationsReject(w http.ResponseWriter, r *http.Request) {
	a.handleQuickDecide(w, r, domain.StatusRejected)
}

func (a *api) handleQuickDecide(w http.ResponseWriter, r *http.Request, status domain.ApplicationStatus) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req quickDecideRequest
	if _, err := decodeJSONAllowEmpty(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	res, err := a.moderationSvc.QuickDecide(r.Context(), actor, id, status, req.AdminComment, req.DecreaseTrustOnDecision)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (a *api) handleApplicationsDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := a.moderationSvc.Delete(r.Context(), actor, id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return "", false
	}
	return id, true
}

// parseApplicationQuery reads q, status, minAmount, maxAmount, sortBy,
// sortOrder, page and limit. Defaults and caps are applied later by
// ApplicationQuery.Normalize.
func parseApplicationQuery(v url.Values) (domain.ApplicationQuery, error) {
	fields := map[string]string{}
	q := domain.ApplicationQuery{
		Filter: domain.ApplicationFilter{Query: v.Get("q")},
		SortBy: domain.SortKey(strings.TrimSpace(v.Get("sortBy"))),
		Order:  domain.SortOrder(strings.TrimSpace(v.Get("sortOrder"))),
	}

	status, err := domain.ParseStatusFilter(v.Get("status"))
	if err != nil {
		fields["status"] = "must be one of PENDING, APPROVED, REJECTED, CONTEST, ALL"
	}
	q.Filter.Status = status

	parseAmount := func(key string) *int64 {
		raw := strings.TrimSpace(v.Get(key))
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			fields[key] = "must be a non-negative integer"
			return nil
		}
		return &n
	}
	q.Filter.MinAmount = parseAmount("minAmount")
	q.Filter.MaxAmount = parseAmount("maxAmount")

	parseInt := func(key string) int {
		raw := strings.TrimSpace(v.Get(key))
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields[key] = "must be an integer"
			return 0
		}
		return n
	}
	q.Page = parseInt("page")
	q.PageSize = parseInt("limit")

	if len(fields) > 0 {
		return domain.ApplicationQuery{}, domain.NewValidationError(fields)
	}
	return q, nil
}
