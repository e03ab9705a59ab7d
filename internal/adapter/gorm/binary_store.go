package gorm

import (
	"context"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/ncruces/go-sqlite3"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PutDocument implements port.BinaryStore.
func (s *Store) PutDocument(ctx context.Context, doc model.PayloadDocument) error {
	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if res := db.Delete(&CachedDocument{}, "id = ?", string(doc.ID())); res.Error != nil {
			return errors.WithStack(res.Error)
		}

		if res := db.Create(fromDocument(doc)); res.Error != nil {
			return errors.WithStack(res.Error)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// GetDocument implements port.BinaryStore.
func (s *Store) GetDocument(ctx context.Context, id model.DocumentID) (model.PersistedDocument, error) {
	var document CachedDocument

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.First(&document, "id = ?", string(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.WithStack(port.ErrNotFound)
			}

			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &wrappedDocument{&document}, nil
}

// DocumentExists implements port.BinaryStore.
func (s *Store) DocumentExists(ctx context.Context, id model.DocumentID) (bool, error) {
	var exists bool

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		var count int64
		if err := db.Model(&CachedDocument{}).Where("id = ?", string(id)).Count(&count).Error; err != nil {
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

// DeleteDocument implements port.BinaryStore.
func (s *Store) DeleteDocument(ctx context.Context, id model.DocumentID) error {
	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.Delete(&CachedDocument{}, "id = ?", string(id)).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// QueryDocuments implements port.BinaryStore.
func (s *Store) QueryDocuments(ctx context.Context) ([]model.CachedDocument, error) {
	var documents []*CachedDocument

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		err := db.Model(&CachedDocument{}).
			Omit("Payload").
			Order("created_at DESC, id ASC").
			Find(&documents).Error
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	wrapped := make([]model.CachedDocument, 0, len(documents))
	for _, d := range documents {
		wrapped = append(wrapped, &wrappedDocument{d})
	}

	return wrapped, nil
}

// CountDocuments implements port.BinaryStore.
func (s *Store) CountDocuments(ctx context.Context) (int64, error) {
	var total int64

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.Model(&CachedDocument{}).Count(&total).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return total, nil
}

// TotalSize implements port.BinaryStore.
func (s *Store) TotalSize(ctx context.Context) (int64, error) {
	var total int64

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.Model(&CachedDocument{}).Select("COALESCE(SUM(size), 0)").Scan(&total).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return total, nil
}

// Clear implements port.BinaryStore.
func (s *Store) Clear(ctx context.Context) error {
	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.Where("1 = 1").Delete(&CachedDocument{}).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.LOCKED, sqlite3.BUSY)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}
