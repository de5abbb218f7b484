// Package memory is a process-local store used for development and tests.
// It satisfies the same store interfaces as the postgres package.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"heroesfund/internal/domain"
)

type Store struct {
	mu sync.Mutex

	users        map[string]domain.User
	offsets      map[string]int
	applications map[string]domain.Application
	friendships  map[string]domain.Friendship
	intents      map[string]domain.TrustIntent
	intentOrder  []string
}

func New() *Store {
	return &Store{
		users:        map[string]domain.User{},
		offsets:      map[string]int{},
		applications: map[string]domain.Application{},
		friendships:  map[string]domain.Friendship{},
		intents:      map[string]domain.TrustIntent{},
	}
}

// PutUser inserts or replaces u. An empty ID gets a fresh one.
func (s *Store) PutUser(u domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
	return u
}

func (s *Store) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *Store) CreateUser(ctx context.Context, username, displayName string) (domain.User, error) {
	if _, err := s.GetUserByUsername(ctx, username); err == nil {
		return domain.User{}, domain.NewValidationError(map[string]string{"username": "already taken"})
	}
	return s.PutUser(domain.User{Username: username, DisplayName: displayName}), nil
}

func (s *Store) UpsertUser(ctx context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, other := range s.users {
		if id != u.ID && other.Username == u.Username {
			return domain.User{}, domain.NewValidationError(map[string]string{"username": "already taken"})
		}
	}
	if prev, ok := s.users[u.ID]; ok {
		u.CreatedAt = prev.CreatedAt
	} else {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) summary(id string) domain.UserSummary {
	u := s.users[id]
	return domain.UserSummary{ID: id, Username: u.Username, DisplayName: u.DisplayName}
}

// GetTrustBasis counts APPROVED applications that still count towards trust.
func (s *Store) GetTrustBasis(ctx context.Context, userID string) (domain.TrustBasis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return domain.TrustBasis{}, domain.ErrNotFound
	}
	return s.basisLocked(userID), nil
}

func (s *Store) basisLocked(userID string) domain.TrustBasis {
	n := 0
	for _, a := range s.applications {
		if a.OwnerID == userID && a.Status == domain.StatusApproved && a.CountTowardsTrust {
			n++
		}
	}
	return domain.TrustBasis{ApprovedCount: n, Offset: s.offsets[userID]}
}

func cloneApplication(a domain.Application) domain.Application {
	a.Images = append([]string{}, a.Images...)
	if a.AdminComment != nil {
		c := *a.AdminComment
		a.AdminComment = &c
	}
	if a.DecidedAt != nil {
		d := *a.DecidedAt
		a.DecidedAt = &d
	}
	return a
}

func (s *Store) CreateApplication(ctx context.Context, a domain.Application) (domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[a.OwnerID]; !ok {
		return domain.Application{}, domain.ErrNotFound
	}
	a.ID = uuid.NewString()
	if a.Version == 0 {
		a.Version = 1
	}
	a = cloneApplication(a)
	s.applications[a.ID] = a
	return cloneApplication(a), nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok {
		return domain.Application{}, domain.ErrNotFound
	}
	return cloneApplication(a), nil
}

func (s *Store) SaveApplication(ctx context.Context, a domain.Application, expectedVersion int) (domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.applications[a.ID]
	if !ok {
		return domain.Application{}, domain.ErrNotFound
	}
	if expectedVersion > 0 && current.Version != expectedVersion {
		return domain.Application{}, domain.ErrConflict
	}
	a.OwnerID = current.OwnerID
	a.CreatedAt = current.CreatedAt
	a.Version = current.Version + 1
	a = cloneApplication(a)
	s.applications[a.ID] = a
	return cloneApplication(a), nil
}

func (s *Store) DeleteApplication(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.applications[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.applications, id)
	return nil
}

func (s *Store) ListApplications(ctx context.Context, q domain.ApplicationQuery) (domain.ApplicationPage, error) {
	s.mu.Lock()
	items := make([]domain.Application, 0, len(s.applications))
	for _, a := range s.applications {
		items = append(items, cloneApplication(a))
	}
	s.mu.Unlock()
	return domain.ListApplications(items, q), nil
}

func (s *Store) CreateFriendship(ctx context.Context, f domain.Friendship) (domain.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.friendships {
		if existing.Involves(f.RequesterID) && existing.Involves(f.ReceiverID) && existing.Occupies() {
			return domain.Friendship{}, domain.ErrDuplicateEdge
		}
	}
	f.ID = uuid.NewString()
	s.friendships[f.ID] = f
	return f, nil
}

func (s *Store) GetFriendship(ctx context.Context, id string) (domain.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.friendships[id]
	if !ok {
		return domain.Friendship{}, domain.ErrNotFound
	}
	return f, nil
}

// FindFriendshipBetween prefers an occupying edge over declined history.
func (s *Store) FindFriendshipBetween(ctx context.Context, userA, userB string) (domain.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *domain.Friendship
	for _, f := range s.friendships {
		if !f.Involves(userA) || !f.Involves(userB) {
			continue
		}
		f := f
		if f.Occupies() {
			return f, nil
		}
		if found == nil || f.UpdatedAt.After(found.UpdatedAt) {
			found = &f
		}
	}
	if found == nil {
		return domain.Friendship{}, domain.ErrNotFound
	}
	return *found, nil
}

func (s *Store) UpdateFriendship(ctx context.Context, f domain.Friendship, from domain.FriendshipStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.friendships[f.ID]
	if !ok || current.Status != from {
		return domain.ErrNotAuthorized
	}
	s.friendships[f.ID] = f
	return nil
}

func (s *Store) DeleteFriendship(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.friendships[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.friendships, id)
	return nil
}

func (s *Store) ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edges := make([]domain.Friendship, 0)
	for _, f := range s.friendships {
		if f.Involves(userID) {
			edges = append(edges, f)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if !edges[i].CreatedAt.Equal(edges[j].CreatedAt) {
			return edges[i].CreatedAt.After(edges[j].CreatedAt)
		}
		return edges[i].ID < edges[j].ID
	})

	out := domain.FriendsOverview{
		Friends:  []domain.UserSummary{},
		Incoming: []domain.FriendRequest{},
		Outgoing: []domain.FriendRequest{},
	}
	for _, f := range edges {
		other := s.summary(f.Other(userID))
		switch {
		case f.Status == domain.FriendshipAccepted:
			out.Friends = append(out.Friends, other)
		case f.Status == domain.FriendshipPending && f.ReceiverID == userID:
			out.Incoming = append(out.Incoming, domain.FriendRequest{ID: f.ID, User: other, CreatedAt: f.CreatedAt})
		case f.Status == domain.FriendshipPending && f.RequesterID == userID:
			out.Outgoing = append(out.Outgoing, domain.FriendRequest{ID: f.ID, User: other, CreatedAt: f.CreatedAt})
		}
	}
	return out, nil
}

func (s *Store) EnqueueTrustIntent(ctx context.Context, userID, applicationID string, when time.Time) (domain.TrustIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := domain.TrustIntent{
		ID:            uuid.NewString(),
		UserID:        userID,
		ApplicationID: applicationID,
		Status:        domain.TrustIntentPending,
		CreatedAt:     when,
		UpdatedAt:     when,
	}
	s.intents[in.ID] = in
	s.intentOrder = append(s.intentOrder, in.ID)
	return in, nil
}

func (s *Store) GetTrustIntent(ctx context.Context, id string) (domain.TrustIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.intents[id]
	if !ok {
		return domain.TrustIntent{}, domain.ErrNotFound
	}
	return in, nil
}

// ListPendingTrustIntents returns pending intents oldest first.
func (s *Store) ListPendingTrustIntents(ctx context.Context, limit int) ([]domain.TrustIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TrustIntent, 0)
	for _, id := range s.intentOrder {
		in := s.intents[id]
		if in.Status != domain.TrustIntentPending {
			continue
		}
		out = append(out, in)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) ApplyTrustIntent(ctx context.Context, intentID, userID string, reduce func(domain.TrustBasis) int, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.intents[intentID]
	if !ok {
		return domain.ErrNotFound
	}
	if in.Status != domain.TrustIntentPending {
		return domain.ErrConflict
	}
	if _, ok := s.users[userID]; !ok {
		return domain.ErrNotFound
	}
	if delta := reduce(s.basisLocked(userID)); delta > 0 {
		s.offsets[userID] += delta
	}
	applied := when
	in.Status = domain.TrustIntentDone
	in.Attempts++
	in.LastError = ""
	in.UpdatedAt = when
	in.AppliedAt = &applied
	s.intents[intentID] = in
	return nil
}

func (s *Store) RecordTrustIntentFailure(ctx context.Context, intentID, message string, giveUp bool, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.intents[intentID]
	if !ok {
		return domain.ErrNotFound
	}
	in.Attempts++
	in.LastError = message
	in.UpdatedAt = when
	if giveUp {
		in.Status = domain.TrustIntentFailed
	}
	s.intents[intentID] = in
	return nil
}
