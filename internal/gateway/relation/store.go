// Package relation tracks the logical foreign key between addresses and
// their owning users. Neither atomic service knows about this relationship;
// the gateway is its only home.
package relation

import "sync"

// Store is an in-memory address-to-user mapping. It is safe for concurrent
// use and is not a source of truth: entries are best-effort links lost on
// restart, while the atomic services own the entities themselves.
type Store struct {
	mu    sync.RWMutex
	owner map[string]int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{owner: make(map[string]int64)}
}

// Link records userID as the owner of addressID, overwriting any previous
// owner. Last write wins.
func (s *Store) Link(addressID string, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner[addressID] = userID
}

// Unlink removes the entry for addressID. Unknown ids are a no-op.
func (s *Store) Unlink(addressID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.owner, addressID)
}

// Owner returns the user linked to addressID, if any.
func (s *Store) Owner(addressID string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.owner[addressID]
	return userID, ok
}

// AddressesForUser returns the ids of all addresses currently linked to
// userID, in unspecified order.
func (s *Store) AddressesForUser(userID int64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for addressID, owner := range s.owner {
		if owner == userID {
			ids = append(ids, addressID)
		}
	}
	return ids
}

// Len reports the number of linked addresses.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.owner)
}
