package httpapi

import (
	"net/http"

	"heroesfund/internal/domain"
)

func (a *api) handleTrustTiers(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"tiers": a.trustSvc.Tiers()})
}

// handleUserTrust is visible to the user themself and to administrators.
func (a *api) handleUserTrust(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if id == "me" {
		id = actor.UserID
	}
	if id != actor.UserID && !actor.IsAdmin() {
		WriteDomainError(w, domain.ErrForbidden)
		return
	}

	out, err := a.trustSvc.UserTrust(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}
