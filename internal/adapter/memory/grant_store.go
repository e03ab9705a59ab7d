package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
)

type grantKey struct {
	subject   model.SubjectID
	gateKey   string
	periodKey string
}

type grantEntry struct {
	grant model.AccessGrant
	// Insertion order, breaks ties between identical creation dates
	seq uint64
}

type GrantStore struct {
	grants map[grantKey]grantEntry
	seq    uint64
	mutex  sync.RWMutex
}

// GrantExists implements port.GrantStore.
func (s *GrantStore) GrantExists(ctx context.Context, subject model.SubjectID, gateKey string, periodKey string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	_, exists := s.grants[grantKey{subject, gateKey, periodKey}]

	return exists, nil
}

// SaveGrant implements port.GrantStore.
func (s *GrantStore) SaveGrant(ctx context.Context, grant model.AccessGrant) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := grantKey{grant.Subject(), grant.GateKey(), grant.PeriodKey()}

	if _, exists := s.grants[key]; exists {
		return nil
	}

	s.seq++
	s.grants[key] = grantEntry{grant: grant, seq: s.seq}

	return nil
}

// PruneGrants implements port.GrantStore.
func (s *GrantStore) PruneGrants(ctx context.Context, subject model.SubjectID, gateKey string, keep int, spared string) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	type ranked struct {
		key   grantKey
		entry grantEntry
	}

	candidates := make([]ranked, 0)
	for key, entry := range s.grants {
		if key.subject != subject || key.gateKey != gateKey {
			continue
		}

		candidates = append(candidates, ranked{key, entry})
	}

	if len(candidates) <= keep {
		return 0, nil
	}

	// Most recently created first
	slices.SortFunc(candidates, func(a, b ranked) int {
		if c := b.entry.grant.CreatedAt().Compare(a.entry.grant.CreatedAt()); c != 0 {
			return c
		}
		return cmp.Compare(b.entry.seq, a.entry.seq)
	})

	var pruned int64
	for _, c := range candidates[keep:] {
		if c.key.periodKey == spared {
			continue
		}

		delete(s.grants, c.key)
		pruned++
	}

	return pruned, nil
}

func NewGrantStore() *GrantStore {
	return &GrantStore{
		grants: make(map[grantKey]grantEntry),
	}
}

var _ port.GrantStore = &GrantStore{}
