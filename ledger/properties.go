package ledger

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// PropertyInput is what a landlord supplies to list a property
type PropertyInput struct {
	Location     string
	Area         decimal.Decimal
	Price        decimal.Decimal
	ListingType  ListingType
	Owner        string
	ImagePreview string
}

func (in PropertyInput) validate() error {
	if strings.TrimSpace(in.Owner) == "" {
		return ErrMissingIdentity
	}
	if strings.TrimSpace(in.Location) == "" {
		return missing("location")
	}
	if !in.Area.IsPositive() {
		return invalid("area", "must be greater than zero")
	}
	if !in.Price.IsPositive() {
		return invalid("price", "must be greater than zero")
	}
	if !in.ListingType.Valid() {
		return invalid("listingType", "must be rent or sale")
	}
	return nil
}

// CreateProperty lists a new available property
func (s *Store) CreateProperty(ctx context.Context, in PropertyInput) (Property, error) {
	if in.ListingType == "" {
		in.ListingType = ListingRent
	}
	if err := in.validate(); err != nil {
		return Property{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := Property{
		ID:           s.newID("prop"),
		Location:     strings.TrimSpace(in.Location),
		Area:         canonical(in.Area),
		Price:        canonical(in.Price),
		ListingType:  in.ListingType,
		Owner:        strings.TrimSpace(in.Owner),
		Status:       PropertyAvailable,
		ImagePreview: SafeImageURL(in.ImagePreview),
		CreatedAt:    s.now(),
	}

	next := s.state.clone()
	next.Properties = append(next.Properties, p)
	if err := s.commit(ctx, next, CollectionProperties); err != nil {
		return Property{}, err
	}
	return p, nil
}

// Properties returns every property in insertion order
func (s *Store) Properties() []Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProperties(s.state.Properties)
}

// Property looks a property up by id
func (s *Store) Property(id string) (Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.state.propertyIndex(id)
	if i < 0 {
		return Property{}, ErrPropertyNotFound
	}
	return s.state.Properties[i].clone(), nil
}

// PropertiesOwnedBy returns the properties whose owner matches address
func (s *Store) PropertiesOwnedBy(address string) []Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Property
	for _, p := range s.state.Properties {
		if p.OwnedBy(address) {
			out = append(out, p.clone())
		}
	}
	return out
}

// PropertyFilter narrows a marketplace search. Zero values match everything.
type PropertyFilter struct {
	Term        string
	ListingType ListingType
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
}

func (f PropertyFilter) match(p Property) bool {
	if p.Status != PropertyAvailable {
		return false
	}
	if term := strings.TrimSpace(f.Term); term != "" &&
		!strings.Contains(strings.ToLower(p.Location), strings.ToLower(term)) {
		return false
	}
	if f.ListingType != "" && p.ListingType != f.ListingType {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

// SearchProperties returns the available properties matching f
func (s *Store) SearchProperties(f PropertyFilter) []Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Property
	for _, p := range s.state.Properties {
		if f.match(p) {
			out = append(out, p.clone())
		}
	}
	return out
}

// SetPropertyStatus changes availability. Marking a property leased requires
// leaseRef to name a lease on that property; marking it available is refused
// while a lease references it.
func (s *Store) SetPropertyStatus(ctx context.Context, id string, status PropertyStatus, leaseRef *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.state.propertyIndex(id)
	if i < 0 {
		return ErrPropertyNotFound
	}

	next := s.state.clone()
	p := next.Properties[i]
	switch status {
	case PropertyLeased:
		if leaseRef == nil {
			return missing("leaseRef")
		}
		j := next.leaseIndex(*leaseRef)
		if j < 0 || next.Leases[j].PropertyID != id {
			return ErrLeaseNotFound
		}
		ref := *leaseRef
		p.CurrentLeaseID = &ref
	case PropertyAvailable:
		if next.activeLeaseFor(id) >= 0 {
			return ErrPropertyLeased
		}
		p.CurrentLeaseID = nil
		p.LeasedTo = nil
		p.LeasedAt = nil
	default:
		return invalid("status", "must be available or leased")
	}
	p.Status = status
	next.Properties[i] = p
	return s.commit(ctx, next, CollectionProperties)
}

// DeleteProperty removes a property together with every lease request on it,
// whatever its status, and its unfinished drafts. Leased properties cannot be
// deleted.
func (s *Store) DeleteProperty(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.state.propertyIndex(id)
	if i < 0 {
		return ErrPropertyNotFound
	}
	if s.state.Properties[i].Status == PropertyLeased {
		return ErrPropertyLeased
	}

	next := s.state.clone()
	next.Properties = append(next.Properties[:i], next.Properties[i+1:]...)

	requests := next.Requests[:0]
	for _, r := range next.Requests {
		if r.PropertyID != id {
			requests = append(requests, r)
		}
	}
	next.Requests = requests

	drafts := next.Drafts[:0]
	for _, d := range next.Drafts {
		if d.PropertyID != id || d.State == StateActive {
			drafts = append(drafts, d)
		}
	}
	next.Drafts = drafts

	return s.commit(ctx, next, CollectionProperties|CollectionLeaseRequests|CollectionDrafts)
}

func (s State) activeLeaseFor(propertyID string) int {
	for i, l := range s.Leases {
		if l.PropertyID == propertyID && l.Status == LeaseActive {
			return i
		}
	}
	return -1
}

// canonical reparses d from its string form so that equal amounts share one
// internal representation regardless of how they were computed.
func canonical(d decimal.Decimal) decimal.Decimal {
	return decimal.RequireFromString(d.String())
}
