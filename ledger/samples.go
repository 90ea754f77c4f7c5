package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

func sampleProperties(now time.Time) []Property {
	sample := func(id, location, area, price, owner, image string) Property {
		return Property{
			ID:           id,
			Location:     location,
			Area:         decimal.RequireFromString(area),
			Price:        decimal.RequireFromString(price),
			ListingType:  ListingRent,
			Owner:        owner,
			Status:       PropertyAvailable,
			ImagePreview: image,
			CreatedAt:    now,
		}
	}
	return []Property{
		sample("1", "New York Downtown Apartment", "1.2", "2.5",
			"0x742d35Cc6634C0532925a3b8D12345678901234",
			"https://images.unsplash.com/photo-1545324418-cc1a3fa10c00?w=400"),
		sample("2", "London Luxury Villa", "3.5", "5.8",
			"0x842d35Cc6634C0532925a3b8E12345678901234",
			"https://images.unsplash.com/photo-1613490493576-7fde63acd811?w=400"),
		sample("3", "Tokyo Modern Studio", "0.8", "1.2",
			"0x942d35Cc6634C0532925a3b8F12345678901234",
			"https://images.unsplash.com/photo-1522708323590-d24dbb6b0267?w=400"),
	}
}

// SeedSamples replaces every property with the sample listings. Requests,
// drafts and leases are cleared with them since they would point at
// properties that no longer exist.
func (s *Store) SeedSamples(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	next.Properties = sampleProperties(s.now())
	next.Requests = nil
	next.Leases = nil
	next.Drafts = nil
	return s.commit(ctx, next, CollectionProperties|CollectionLeaseRequests|CollectionLeases|CollectionDrafts)
}

// RestoreSamples appends the sample listings whose ids are not present and
// reports how many were added.
func (s *Store) RestoreSamples(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	added := 0
	for _, p := range sampleProperties(s.now()) {
		if next.propertyIndex(p.ID) < 0 {
			next.Properties = append(next.Properties, p)
			added++
		}
	}
	if added == 0 {
		return 0, nil
	}
	if err := s.commit(ctx, next, CollectionProperties); err != nil {
		return 0, err
	}
	return added, nil
}

// Reset clears every collection and the session
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, State{}, CollectionAll)
}

// Stats counts the records in each collection
type Stats struct {
	Properties       int
	Available        int
	Leased           int
	PendingRequests  int
	AcceptedRequests int
	Leases           int
	OpenDrafts       int
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Properties: len(s.state.Properties), Leases: len(s.state.Leases)}
	for _, p := range s.state.Properties {
		if p.Status == PropertyLeased {
			st.Leased++
		} else {
			st.Available++
		}
	}
	for _, r := range s.state.Requests {
		switch r.Status {
		case RequestPending:
			st.PendingRequests++
		case RequestAccepted:
			st.AcceptedRequests++
		}
	}
	for _, d := range s.state.Drafts {
		if d.State != StateActive {
			st.OpenDrafts++
		}
	}
	return st
}
