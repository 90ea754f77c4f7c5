package ledger

import (
	"context"
	"strings"
)

// Connect makes address the current account. Reconnecting the current
// account keeps the role it already has; otherwise the role is inferred from
// the properties the address owns.
func (s *Store) Connect(ctx context.Context, address string) (Role, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", ErrMissingIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	if !SameAddress(next.Account, address) || !next.Role.Valid() {
		next.Role = next.inferRole(address)
	}
	next.Account = address
	if err := s.commit(ctx, next, CollectionSession); err != nil {
		return "", err
	}
	return next.Role, nil
}

// Disconnect clears the account and the role
func (s *Store) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	next.Account = ""
	next.Role = ""
	return s.commit(ctx, next, CollectionSession)
}

// SetRole overrides the role of the connected account
func (s *Store) SetRole(ctx context.Context, role Role) error {
	if !role.Valid() {
		return invalid("role", "must be landlord or tenant")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Account == "" {
		return ErrMissingIdentity
	}
	next := s.state.clone()
	next.Role = role
	return s.commit(ctx, next, CollectionSession)
}

func (s *Store) Account() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Account
}

func (s *Store) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Role
}

// InferRole reports landlord when address owns at least one property
func (s *Store) InferRole(address string) Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.inferRole(address)
}

func (s State) inferRole(address string) Role {
	for _, p := range s.Properties {
		if p.OwnedBy(address) {
			return RoleLandlord
		}
	}
	return RoleTenant
}
