package httpapi

import (
	"net/http"

	"heroesfund/internal/domain"
)

func (a *api) handleFriendsOverview(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	out, err := a.friendsSvc.ListOverview(r.Context(), actor.UserID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

type createFriendRequestRequest struct {
	ReceiverID string `json:"receiver_id"`
}

func (a *api) handleFriendsCreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req createFriendRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	// Requests that fail validation do not spend quota.
	if err := domain.CheckFriendRequest(actor.UserID, req.ReceiverID); err != nil {
		WriteDomainError(w, err)
		return
	}
	if !a.friendLimiter.Allow(actor.UserID, a.now()) {
		WriteDomainError(w, domain.ErrRateLimited)
		return
	}

	f, err := a.friendsSvc.SendRequest(r.Context(), actor.UserID, req.ReceiverID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, f)
}

type respondFriendRequestRequest struct {
	Status string `json:"status"`
}

func (a *api) handleFriendsRespond(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req respondFriendRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}
	action, err := domain.ParseFriendAction(req.Status)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	f, err := a.friendsSvc.Respond(r.Context(), actor.UserID, id, action)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, f)
}

func (a *api) handleFriendsBlock(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	f, err := a.friendsSvc.Block(r.Context(), actor.UserID, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, f)
}

func (a *api) handleFriendsRemove(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := a.friendsSvc.Remove(r.Context(), actor.UserID, id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
