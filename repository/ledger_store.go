package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/junwei-lin/smsflow/models"
)

// Well-known ledger keys. Every collection of the application state is a
// single JSON document stored under one of these.
const (
	KeyUserInfo        = "sms_user_info"
	KeyContacts        = "sms_contacts"
	KeyContactGroups   = "sms_contact_groups"
	KeyTemplates       = "sms_templates_data"
	KeySendRecords     = "sms_send_records"
	KeyRechargeHistory = "sms_recharge_history"
	KeyTasks           = "sms_tasks"
	KeyStats           = "sms_stats"
)

// LedgerStoreImpl implements LedgerStore on a gorm-managed ledger_entries table.
type LedgerStoreImpl struct {
	db *gorm.DB
}

// NewLedgerStore creates a new ledger store instance
func NewLedgerStore(db *gorm.DB) *LedgerStoreImpl {
	return &LedgerStoreImpl{db: db}
}

// Get returns the raw JSON document under key, or nil when the key is absent.
func (s *LedgerStoreImpl) Get(ctx context.Context, key string) (json.RawMessage, error) {
	db := getDB(ctx, s.db)

	var entry models.LedgerEntry
	err := db.First(&entry, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ledger key %s: %w", key, err)
	}

	return entry.Value, nil
}

// Put upserts the raw JSON document under key.
func (s *LedgerStoreImpl) Put(ctx context.Context, key string, value json.RawMessage) error {
	db, shouldCommit, err := getDBForWrite(ctx, s.db)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	entry := models.LedgerEntry{Key: key, Value: value}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write ledger key %s: %w", key, err)
	}

	return nil
}

// Transaction runs fn within one database transaction; Get/Put/Delete calls
// made with the context fn receives join it via TxContextKey.
func (s *LedgerStoreImpl) Transaction(ctx context.Context, fn func(context.Context) error) error {
	return WithTransaction(ctx, s.db, fn)
}

// Delete removes the document under key. Missing keys are not an error.
func (s *LedgerStoreImpl) Delete(ctx context.Context, key string) error {
	db := getDB(ctx, s.db)

	if err := db.Delete(&models.LedgerEntry{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete ledger key %s: %w", key, err)
	}

	return nil
}

// collection binds a ledger key to a typed JSON document with a fallback.
// A missing key or an undecodable document yields the fallback value; only
// storage I/O failures surface as errors.
type collection[T any] struct {
	store    LedgerStore
	key      string
	fallback func() T
}

func (c *collection[T]) load(ctx context.Context) (T, error) {
	raw, err := c.store.Get(ctx, c.key)
	if err != nil {
		return c.fallback(), err
	}
	if raw == nil {
		return c.fallback(), nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return c.fallback(), nil
	}

	return v, nil
}

func (c *collection[T]) save(ctx context.Context, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode ledger key %s: %w", c.key, err)
	}

	return c.store.Put(ctx, c.key, raw)
}
