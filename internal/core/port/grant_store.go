package port

import (
	"context"

	"github.com/bornholm/casecache/internal/core/model"
)

type GrantStore interface {
	GrantExists(ctx context.Context, subject model.SubjectID, gateKey, periodKey string) (bool, error)

	// SaveGrant records a grant. Saving an existing grant is a no-op.
	SaveGrant(ctx context.Context, grant model.AccessGrant) error

	// PruneGrants removes the grants of the given subject and gate which are
	// not part of the keep most recently created ones. The grant of the spared
	// period is never removed. It returns the number of removed grants.
	PruneGrants(ctx context.Context, subject model.SubjectID, gateKey string, keep int, spared string) (int64, error)
}
