package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LeaseState is where a lease draft stands in the signing workflow
type LeaseState string

const (
	StateNoLease              LeaseState = "no_lease"
	StateAwaitingLandlordSign LeaseState = "awaiting_landlord_signature"
	StateAwaitingTenantSign   LeaseState = "awaiting_tenant_signature"
	StateReady                LeaseState = "ready"
	StateActive               LeaseState = "active"
)

// LeaseTerms are the negotiable parts of a lease. Nil fields are unset.
type LeaseTerms struct {
	StartDate       *time.Time       `json:"startDate,omitempty"`
	EndDate         *time.Time       `json:"endDate,omitempty"`
	RentAmount      *decimal.Decimal `json:"rentAmount,omitempty"`
	SecurityDeposit *decimal.Decimal `json:"securityDeposit,omitempty"`
	PaymentCycle    PaymentCycle     `json:"paymentCycle,omitempty"`
	Terms           string           `json:"terms,omitempty"`
}

func (t LeaseTerms) clone() LeaseTerms {
	t.StartDate = clonePtr(t.StartDate)
	t.EndDate = clonePtr(t.EndDate)
	t.RentAmount = clonePtr(t.RentAmount)
	t.SecurityDeposit = clonePtr(t.SecurityDeposit)
	return t
}

// merge overlays the fields set in u
func (t LeaseTerms) merge(u LeaseTerms) LeaseTerms {
	if u.StartDate != nil {
		d := *u.StartDate
		t.StartDate = &d
	}
	if u.EndDate != nil {
		d := *u.EndDate
		t.EndDate = &d
	}
	if u.RentAmount != nil {
		a := canonical(*u.RentAmount)
		t.RentAmount = &a
	}
	if u.SecurityDeposit != nil {
		a := canonical(*u.SecurityDeposit)
		t.SecurityDeposit = &a
	}
	if u.PaymentCycle != "" {
		t.PaymentCycle = u.PaymentCycle
	}
	if strings.TrimSpace(u.Terms) != "" {
		t.Terms = u.Terms
	}
	return t
}

func (t LeaseTerms) validate() error {
	if t.PaymentCycle != "" && !t.PaymentCycle.Valid() {
		return invalid("paymentCycle", "must be monthly, quarterly or yearly")
	}
	if t.RentAmount != nil && !t.RentAmount.IsPositive() {
		return invalid("rentAmount", "must be greater than zero")
	}
	if t.SecurityDeposit != nil && t.SecurityDeposit.IsNegative() {
		return invalid("securityDeposit", "must not be negative")
	}
	if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate) {
		return invalid("endDate", "must not be before startDate")
	}
	return nil
}

// LeaseDraft is one run of the signing workflow, keyed by the lease request
// it was started from.
type LeaseDraft struct {
	RequestID         string     `json:"requestId"`
	PropertyID        string     `json:"propertyId"`
	PropertyLocation  string     `json:"propertyLocation,omitempty"`
	Landlord          string     `json:"landlord"`
	Tenant            string     `json:"tenant"`
	State             LeaseState `json:"state"`
	Terms             LeaseTerms `json:"terms"`
	LandlordSignature *Signature `json:"landlordSignature,omitempty"`
	TenantSignature   *Signature `json:"tenantSignature,omitempty"`
	LeaseID           string     `json:"leaseId,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (d LeaseDraft) clone() LeaseDraft {
	d.Terms = d.Terms.clone()
	d.LandlordSignature = clonePtr(d.LandlordSignature)
	d.TenantSignature = clonePtr(d.TenantSignature)
	return d
}

func normalizeDraft(d LeaseDraft) LeaseDraft {
	if d.State == "" {
		d.State = StateAwaitingLandlordSign
	}
	if d.Terms.PaymentCycle == "" {
		d.Terms.PaymentCycle = CycleMonthly
	}
	return d
}

// BeginLease opens the workflow for an accepted request. Unset terms default
// to the listing price as rent, twice the rent as deposit and a monthly cycle.
// Calling it again for a request with an open draft returns that draft.
func (s *Store) BeginLease(ctx context.Context, landlord, requestID string, terms LeaseTerms) (LeaseDraft, error) {
	if strings.TrimSpace(landlord) == "" {
		return LeaseDraft{}, ErrMissingIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.state.draftIndex(requestID); i >= 0 {
		d := s.state.Drafts[i].clone()
		if d.State == StateActive {
			return d, ErrAlreadyActive
		}
		return d, nil
	}

	ri := s.state.requestIndex(requestID)
	if ri < 0 {
		return LeaseDraft{}, ErrRequestNotFound
	}
	req := s.state.Requests[ri]
	if req.Status != RequestAccepted {
		return LeaseDraft{}, ErrNotAccepted
	}
	pi := s.state.propertyIndex(req.PropertyID)
	if pi < 0 {
		return LeaseDraft{}, ErrPropertyNotFound
	}
	p := s.state.Properties[pi]
	if !p.OwnedBy(landlord) {
		return LeaseDraft{}, ErrNotOwner
	}
	if p.Status == PropertyLeased {
		return LeaseDraft{}, ErrPropertyLeased
	}

	rent := canonical(p.Price)
	deposit := canonical(rent.Mul(decimal.NewFromInt(2)).Round(3))
	merged := LeaseTerms{
		RentAmount:      &rent,
		SecurityDeposit: &deposit,
		PaymentCycle:    CycleMonthly,
	}.merge(terms)
	if err := merged.validate(); err != nil {
		return LeaseDraft{}, err
	}

	d := LeaseDraft{
		RequestID:        req.ID,
		PropertyID:       p.ID,
		PropertyLocation: p.Location,
		Landlord:         p.Owner,
		Tenant:           req.Tenant,
		State:            StateAwaitingLandlordSign,
		Terms:            merged,
		UpdatedAt:        s.now(),
	}

	next := s.state.clone()
	next.Drafts = append(next.Drafts, d)
	if err := s.commit(ctx, next, CollectionDrafts); err != nil {
		return LeaseDraft{}, err
	}
	return d.clone(), nil
}

// UpdateLeaseTerms edits the terms of a draft nobody has signed yet
func (s *Store) UpdateLeaseTerms(ctx context.Context, requestID string, terms LeaseTerms) (LeaseDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.state.draftIndex(requestID)
	if i < 0 {
		return LeaseDraft{}, ErrDraftNotFound
	}
	d := s.state.Drafts[i].clone()
	if d.State == StateActive {
		return d, ErrAlreadyActive
	}
	if d.LandlordSignature != nil || d.TenantSignature != nil {
		return d, ErrTermsLocked
	}

	merged := d.Terms.merge(terms)
	if err := merged.validate(); err != nil {
		return d, err
	}
	d.Terms = merged
	d.UpdatedAt = s.now()

	next := s.state.clone()
	next.Drafts[i] = d
	if err := s.commit(ctx, next, CollectionDrafts); err != nil {
		return s.state.Drafts[i].clone(), err
	}
	return d.clone(), nil
}

// SignLease records one party's signature. The landlord signs first, then
// the tenant; the signer must be the party named on the draft.
func (s *Store) SignLease(ctx context.Context, requestID string, role Role, signer string) (LeaseDraft, error) {
	signer = strings.TrimSpace(signer)
	if signer == "" {
		return LeaseDraft{}, ErrMissingIdentity
	}
	if !role.Valid() {
		return LeaseDraft{}, invalid("role", "must be landlord or tenant")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.state.draftIndex(requestID)
	if i < 0 {
		return LeaseDraft{}, ErrDraftNotFound
	}
	d := s.state.Drafts[i].clone()
	if d.State == StateActive {
		return d, ErrAlreadyActive
	}

	var party string
	var want, after LeaseState
	if role == RoleLandlord {
		party, want, after = d.Landlord, StateAwaitingLandlordSign, StateAwaitingTenantSign
	} else {
		party, want, after = d.Tenant, StateAwaitingTenantSign, StateReady
	}
	if d.State != want {
		return d, ErrOutOfOrder
	}
	if !SameAddress(signer, party) {
		return d, ErrWrongSigner
	}

	now := s.now()
	msg := SignatureMessage(role, signer, d.PropertyLocation, now)
	token, err := s.signer.Sign(role, signer, msg)
	if err != nil {
		return d, err
	}
	sig := &Signature{Signer: signer, Role: role, Token: token, Message: msg, Timestamp: now}
	if role == RoleLandlord {
		d.LandlordSignature = sig
	} else {
		d.TenantSignature = sig
	}
	d.State = after
	d.UpdatedAt = now

	next := s.state.clone()
	next.Drafts[i] = d
	if err := s.commit(ctx, next, CollectionDrafts); err != nil {
		return s.state.Drafts[i].clone(), err
	}
	return d.clone(), nil
}

// ActivateLease turns a fully signed draft into a lease. The lease, the
// leased property, the removed request and the finished draft are persisted
// in a single write. Activating twice returns the existing lease and
// ErrAlreadyActive.
func (s *Store) ActivateLease(ctx context.Context, requestID string) (Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	di := s.state.draftIndex(requestID)
	if di < 0 {
		return Lease{}, ErrDraftNotFound
	}
	d := s.state.Drafts[di]
	if d.State == StateActive {
		if li := s.state.leaseIndex(d.LeaseID); li >= 0 {
			return s.state.Leases[li], ErrAlreadyActive
		}
		return Lease{}, ErrAlreadyActive
	}
	if d.State != StateReady || d.LandlordSignature == nil || d.TenantSignature == nil {
		return Lease{}, ErrNotReady
	}

	t := d.Terms
	switch {
	case t.StartDate == nil:
		return Lease{}, missing("startDate")
	case t.EndDate == nil:
		return Lease{}, missing("endDate")
	case t.RentAmount == nil:
		return Lease{}, missing("rentAmount")
	}
	if t.EndDate.Before(*t.StartDate) {
		return Lease{}, invalid("endDate", "must not be before startDate")
	}

	pi := s.state.propertyIndex(d.PropertyID)
	if pi < 0 {
		return Lease{}, ErrPropertyNotFound
	}
	if s.state.Properties[pi].Status == PropertyLeased {
		return Lease{}, ErrPropertyLeased
	}
	ri := s.state.requestIndex(d.RequestID)
	if ri < 0 {
		return Lease{}, ErrRequestNotFound
	}

	deposit := decimal.Zero
	if t.SecurityDeposit != nil {
		deposit = *t.SecurityDeposit
	}
	cycle := t.PaymentCycle
	if cycle == "" {
		cycle = CycleMonthly
	}

	now := s.now()
	lease := Lease{
		ID:                s.newID("lease"),
		PropertyID:        d.PropertyID,
		RequestID:         d.RequestID,
		Landlord:          d.Landlord,
		Tenant:            d.Tenant,
		PropertyLocation:  d.PropertyLocation,
		RentAmount:        *t.RentAmount,
		SecurityDeposit:   canonical(deposit),
		StartDate:         *t.StartDate,
		EndDate:           *t.EndDate,
		PaymentCycle:      cycle,
		Terms:             t.Terms,
		LandlordSignature: *d.LandlordSignature,
		TenantSignature:   *d.TenantSignature,
		Status:            LeaseActive,
		CreatedAt:         now,
	}
	lease.Document = RenderLeaseDocument(lease)

	next := s.state.clone()

	p := next.Properties[pi]
	leaseID, tenant, leasedAt := lease.ID, lease.Tenant, now
	p.Status = PropertyLeased
	p.CurrentLeaseID = &leaseID
	p.LeasedTo = &tenant
	p.LeasedAt = &leasedAt
	next.Properties[pi] = p

	next.Requests = append(next.Requests[:ri], next.Requests[ri+1:]...)
	next.Leases = append(next.Leases, lease)

	d.State = StateActive
	d.LeaseID = lease.ID
	d.UpdatedAt = now
	next.Drafts[di] = d

	dirty := CollectionProperties | CollectionLeaseRequests | CollectionLeases | CollectionDrafts
	if err := s.commit(ctx, next, dirty); err != nil {
		return Lease{}, err
	}
	return lease, nil
}

// LeaseDraft reports the workflow for a request. A request without a draft
// is in StateNoLease.
func (s *Store) LeaseDraft(requestID string) LeaseDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.state.draftIndex(requestID); i >= 0 {
		return s.state.Drafts[i].clone()
	}
	return LeaseDraft{RequestID: requestID, State: StateNoLease}
}

// LeaseDrafts returns every draft, finished ones included
func (s *Store) LeaseDrafts() []LeaseDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDrafts(s.state.Drafts)
}
