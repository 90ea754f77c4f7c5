package ledger

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Collection is a bit set naming the persisted collections a change touches
type Collection uint8

const (
	CollectionSession Collection = 1 << iota
	CollectionProperties
	CollectionLeaseRequests
	CollectionLeases
	CollectionDrafts

	CollectionAll = CollectionSession | CollectionProperties | CollectionLeaseRequests | CollectionLeases | CollectionDrafts
)

// Has reports whether every bit of o is set in c
func (c Collection) Has(o Collection) bool {
	return c&o == o
}

// State is everything the store owns. Slices keep insertion order.
type State struct {
	Account    string
	Role       Role
	Properties []Property
	Requests   []LeaseRequest
	Leases     []Lease
	Drafts     []LeaseDraft
}

// clone copies s deeply enough that no pointer is shared with the result
func (s State) clone() State {
	return State{
		Account:    s.Account,
		Role:       s.Role,
		Properties: cloneProperties(s.Properties),
		Requests:   append([]LeaseRequest(nil), s.Requests...),
		Leases:     append([]Lease(nil), s.Leases...),
		Drafts:     cloneDrafts(s.Drafts),
	}
}

func cloneProperties(props []Property) []Property {
	if props == nil {
		return nil
	}
	out := make([]Property, len(props))
	for i, p := range props {
		out[i] = p.clone()
	}
	return out
}

func cloneDrafts(drafts []LeaseDraft) []LeaseDraft {
	if drafts == nil {
		return nil
	}
	out := make([]LeaseDraft, len(drafts))
	for i, d := range drafts {
		out[i] = d.clone()
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Persister is the durable side of the store. Save receives the complete next
// state and the collections that changed; it must write all of them or none.
type Persister interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State, dirty Collection) error
}

type nopPersister struct{}

func (nopPersister) Load(context.Context) (State, error) { return State{}, nil }

func (nopPersister) Save(context.Context, State, Collection) error { return nil }

// Option configures a Store
type Option func(*Store)

// WithClock replaces the wall clock, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the id source. The prefix is one of prop, req, lease.
func WithIDGenerator(gen func(prefix string) string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithSigner replaces the signature token strategy
func WithSigner(signer Signer) Option {
	return func(s *Store) { s.signer = signer }
}

// Store owns the properties, lease requests, leases, lease drafts and the
// session. Every mutation is computed on a copy, handed to the Persister, and
// only swapped in once the Persister accepted it.
type Store struct {
	mu        sync.Mutex
	persister Persister
	state     State
	now       func() time.Time
	newID     func(prefix string) string
	signer    Signer
}

// Open loads the persisted state. A nil persister keeps everything in memory.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	if p == nil {
		p = nopPersister{}
	}
	s := &Store{
		persister: p,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     defaultID,
		signer:    PlaceholderSigner{},
	}
	for _, opt := range opts {
		opt(s)
	}

	state, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger state: %w", err)
	}
	for i := range state.Properties {
		state.Properties[i] = normalizeProperty(state.Properties[i])
	}
	for i := range state.Requests {
		state.Requests[i] = normalizeRequest(state.Requests[i])
	}
	for i := range state.Leases {
		state.Leases[i] = normalizeLease(state.Leases[i])
	}
	for i := range state.Drafts {
		state.Drafts[i] = normalizeDraft(state.Drafts[i])
	}
	s.state = state
	return s, nil
}

func defaultID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// commit persists next and makes it current. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, next State, dirty Collection) error {
	if err := s.persister.Save(ctx, next, dirty); err != nil {
		log.Printf("Store: change rejected, keeping previous state: %v", err)
		return fmt.Errorf("failed to persist ledger change: %w", err)
	}
	s.state = next
	return nil
}

func (s State) propertyIndex(id string) int {
	for i, p := range s.Properties {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s State) requestIndex(id string) int {
	for i, r := range s.Requests {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s State) leaseIndex(id string) int {
	for i, l := range s.Leases {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (s State) draftIndex(requestID string) int {
	for i, d := range s.Drafts {
		if d.RequestID == requestID {
			return i
		}
	}
	return -1
}
