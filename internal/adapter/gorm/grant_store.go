package gorm

import (
	"context"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/ncruces/go-sqlite3"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GrantExists implements port.GrantStore.
func (s *Store) GrantExists(ctx context.Context, subject model.SubjectID, gateKey string, periodKey string) (bool, error) {
	var exists bool

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		var count int64

		err := db.Model(&Grant{}).
			Where("subject = ? AND gate_key = ? AND period_key = ?", string(subject), gateKey, periodKey).
			Count(&count).Error
		if err != nil {
			return errors.WithStack(err)
		}

		exists = count > 0

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return false, errors.WithStack(err)
	}

	return exists, nil
}

// SaveGrant implements port.GrantStore.
func (s *Store) SaveGrant(ctx context.Context, grant model.AccessGrant) error {
	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		g := &Grant{
			CreatedAt: grant.CreatedAt().UnixNano(),
			Subject:   string(grant.Subject()),
			GateKey:   grant.GateKey(),
			PeriodKey: grant.PeriodKey(),
		}

		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject"}, {Name: "gate_key"}, {Name: "period_key"}},
			DoNothing: true,
		}).Create(g).Error
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// PruneGrants implements port.GrantStore.
func (s *Store) PruneGrants(ctx context.Context, subject model.SubjectID, gateKey string, keep int, spared string) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	var pruned int64

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		var ids []uint

		// Most recently created first
		err := db.Model(&Grant{}).
			Where("subject = ? AND gate_key = ?", string(subject), gateKey).
			Order("created_at DESC").
			Order("id DESC").
			Pluck("id", &ids).Error
		if err != nil {
			return errors.WithStack(err)
		}

		if len(ids) <= keep {
			return nil
		}

		res := db.Where("id IN ? AND period_key <> ?", ids[keep:], spared).Delete(&Grant{})
		if res.Error != nil {
			return errors.WithStack(res.Error)
		}

		pruned = res.RowsAffected

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return pruned, nil
}
