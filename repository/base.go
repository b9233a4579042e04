// Package repository provides the persistent ledger store: a durable
// string-keyed JSON document store with typed accessors per well-known key.
package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// txKeyType is the context key type for database transactions
type txKeyType string

// TxContextKey is the context key under which an open transaction travels
const TxContextKey txKeyType = "db_tx"

// getDB returns the appropriate database connection (with or without transaction)
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return db
}

// getDBForWrite returns a database connection with a transaction for write
// operations; the bool reports whether the caller owns the commit.
func getDBForWrite(ctx context.Context, db *gorm.DB) (*gorm.DB, bool, error) {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx, false, nil
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	return tx, true, nil
}

// WithTransaction executes a function within a database transaction
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(context.Context) error) (err error) {
	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", r)
		}
	}()

	ctx = context.WithValue(ctx, TxContextKey, tx)

	if err := fn(ctx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
