package ledger

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// CreateLeaseRequest records a tenant's offer against an available property.
// At most one pending request may exist per property and tenant.
func (s *Store) CreateLeaseRequest(ctx context.Context, propertyID, tenant string, offer decimal.Decimal) (LeaseRequest, error) {
	tenant = strings.TrimSpace(tenant)
	if tenant == "" {
		return LeaseRequest{}, ErrMissingIdentity
	}
	if !offer.IsPositive() {
		return LeaseRequest{}, invalid("offerAmount", "must be greater than zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.state.propertyIndex(propertyID)
	if i < 0 {
		return LeaseRequest{}, ErrPropertyNotFound
	}
	p := s.state.Properties[i]
	if p.Status != PropertyAvailable {
		return LeaseRequest{}, ErrPropertyLeased
	}
	if p.OwnedBy(tenant) {
		return LeaseRequest{}, invalid("tenant", "cannot request a lease on their own property")
	}
	for _, r := range s.state.Requests {
		if r.PropertyID == propertyID && r.Status == RequestPending && SameAddress(r.Tenant, tenant) {
			return LeaseRequest{}, ErrDuplicatePending
		}
	}

	r := LeaseRequest{
		ID:               s.newID("req"),
		PropertyID:       propertyID,
		Tenant:           tenant,
		Landlord:         p.Owner,
		PropertyLocation: p.Location,
		OfferAmount:      canonical(offer),
		Status:           RequestPending,
		CreatedAt:        s.now(),
	}

	next := s.state.clone()
	next.Requests = append(next.Requests, r)
	if err := s.commit(ctx, next, CollectionLeaseRequests); err != nil {
		return LeaseRequest{}, err
	}
	return r, nil
}

// Requests returns every lease request in insertion order
func (s *Store) Requests() []LeaseRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LeaseRequest(nil), s.state.Requests...)
}

// Request looks a lease request up by id
func (s *Store) Request(id string) (LeaseRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.state.requestIndex(id)
	if i < 0 {
		return LeaseRequest{}, ErrRequestNotFound
	}
	return s.state.Requests[i], nil
}

// RequestsForProperties returns the requests against any of the given properties
func (s *Store) RequestsForProperties(ids []string) []LeaseRequest {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LeaseRequest
	for _, r := range s.state.Requests {
		if set[r.PropertyID] {
			out = append(out, r)
		}
	}
	return out
}

// RequestsForTenant returns the requests a tenant has made
func (s *Store) RequestsForTenant(tenant string) []LeaseRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LeaseRequest
	for _, r := range s.state.Requests {
		if SameAddress(r.Tenant, tenant) {
			out = append(out, r)
		}
	}
	return out
}

// RequestsForLandlord returns the pending and accepted requests against the
// properties the landlord owns.
func (s *Store) RequestsForLandlord(landlord string) []LeaseRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	owned := make(map[string]bool)
	for _, p := range s.state.Properties {
		if p.OwnedBy(landlord) {
			owned[p.ID] = true
		}
	}
	var out []LeaseRequest
	for _, r := range s.state.Requests {
		if owned[r.PropertyID] && r.Status != RequestRejected {
			out = append(out, r)
		}
	}
	return out
}

// TransitionRequest moves a pending request to accepted or rejected.
func (s *Store) TransitionRequest(ctx context.Context, id string, to RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(ctx, id, to)
}

func (s *Store) transitionLocked(ctx context.Context, id string, to RequestStatus) error {
	i := s.state.requestIndex(id)
	if i < 0 {
		return ErrRequestNotFound
	}
	if to != RequestAccepted && to != RequestRejected {
		return ErrIllegalTransition
	}
	if s.state.Requests[i].Status != RequestPending {
		return ErrIllegalTransition
	}

	next := s.state.clone()
	next.Requests[i].Status = to
	return s.commit(ctx, next, CollectionLeaseRequests)
}

// AcceptRequest accepts a pending request on behalf of the property owner
func (s *Store) AcceptRequest(ctx context.Context, actor, id string) error {
	return s.decide(ctx, actor, id, RequestAccepted)
}

// RejectRequest rejects a pending request on behalf of the property owner
func (s *Store) RejectRequest(ctx context.Context, actor, id string) error {
	return s.decide(ctx, actor, id, RequestRejected)
}

func (s *Store) decide(ctx context.Context, actor, id string, to RequestStatus) error {
	if strings.TrimSpace(actor) == "" {
		return ErrMissingIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.state.requestIndex(id)
	if i < 0 {
		return ErrRequestNotFound
	}
	j := s.state.propertyIndex(s.state.Requests[i].PropertyID)
	if j < 0 {
		return ErrPropertyNotFound
	}
	p := s.state.Properties[j]
	if !p.OwnedBy(actor) {
		return ErrNotOwner
	}
	if to == RequestAccepted && p.Status != PropertyAvailable {
		return ErrPropertyLeased
	}
	return s.transitionLocked(ctx, id, to)
}

// RemoveRequest deletes a request by id
func (s *Store) RemoveRequest(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.state.requestIndex(id)
	if i < 0 {
		return ErrRequestNotFound
	}
	next := s.state.clone()
	next.Requests = append(next.Requests[:i], next.Requests[i+1:]...)
	return s.commit(ctx, next, CollectionLeaseRequests)
}
