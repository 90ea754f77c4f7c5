package ledger

import "strings"

// Leases returns every lease in activation order
func (s *Store) Leases() []Lease {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Lease(nil), s.state.Leases...)
}

// Lease looks a lease up by id
func (s *Store) Lease(id string) (Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.state.leaseIndex(id)
	if i < 0 {
		return Lease{}, ErrLeaseNotFound
	}
	return s.state.Leases[i], nil
}

func (s *Store) LeasesForTenant(tenant string) []Lease {
	return s.filterLeases(func(l Lease) bool { return SameAddress(l.Tenant, tenant) })
}

func (s *Store) LeasesForLandlord(landlord string) []Lease {
	return s.filterLeases(func(l Lease) bool { return SameAddress(l.Landlord, landlord) })
}

// SearchLeases matches term against the lease id, property location, tenant
// and landlord, ignoring case. A blank term matches every lease.
func (s *Store) SearchLeases(term string) []Lease {
	term = strings.ToLower(strings.TrimSpace(term))
	return s.filterLeases(func(l Lease) bool {
		if term == "" {
			return true
		}
		for _, field := range []string{l.ID, l.PropertyLocation, l.Tenant, l.Landlord} {
			if strings.Contains(strings.ToLower(field), term) {
				return true
			}
		}
		return false
	})
}

func (s *Store) filterLeases(keep func(Lease) bool) []Lease {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Lease
	for _, l := range s.state.Leases {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}
