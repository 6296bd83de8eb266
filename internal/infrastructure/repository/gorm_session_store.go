package repository

import (
	"context"
	"errors"

	"github.com/sangkips/billdesk/internal/domain/entity"
	domainRepo "github.com/sangkips/billdesk/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormSessionStore struct {
	db      *gorm.DB
	profile string
}

// NewGormSessionStore creates a store in the session_entries table. Several
// processes sharing a profile see the same session.
func NewGormSessionStore(db *gorm.DB, profile string) domainRepo.SessionStore {
	if profile == "" {
		profile = "default"
	}
	return &gormSessionStore{db: db, profile: profile}
}

func (r *gormSessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry entity.SessionEntry
	err := r.db.WithContext(ctx).
		Where("profile = ? AND key = ?", r.profile, key).
		First(&entry).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (r *gormSessionStore) Set(ctx context.Context, key, value string) error {
	return r.Update(ctx, map[string]string{key: value})
}

// Update applies the removals and upserts in one transaction
func (r *gormSessionStore) Update(ctx context.Context, values map[string]string, remove ...string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.remove(tx, remove); err != nil {
			return err
		}
		if len(values) == 0 {
			return nil
		}

		entries := make([]entity.SessionEntry, 0, len(values))
		for k, v := range values {
			entries = append(entries, entity.SessionEntry{Profile: r.profile, Key: k, Value: v})
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entries).Error
	})
}

func (r *gormSessionStore) Remove(ctx context.Context, keys ...string) error {
	return r.remove(r.db.WithContext(ctx), keys)
}

func (r *gormSessionStore) remove(db *gorm.DB, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return db.Where("profile = ? AND key IN ?", r.profile, keys).
		Delete(&entity.SessionEntry{}).Error
}

func (r *gormSessionStore) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
