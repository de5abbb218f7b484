package httpapi

import (
	"net/http"

	"heroesfund/internal/domain"
)

type profileRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

func (a *api) handleProfileUpsert(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	u, err := a.profileSvc.Upsert(r.Context(), actor, req.Username, req.DisplayName)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}
