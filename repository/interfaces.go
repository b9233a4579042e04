// Package repository provides data access layer implementations and interfaces for the ledger store
package repository

import (
	"context"
	"encoding/json"

	"github.com/junwei-lin/smsflow/models"
)

// LedgerStore is the durable string-keyed JSON document store. Transaction
// runs fn with every Get/Put/Delete inside it sharing one database
// transaction, rolled back when fn returns an error.
type LedgerStore interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Put(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
	Transaction(ctx context.Context, fn func(context.Context) error) error
}

// AccountRepository defines operations for the account document
type AccountRepository interface {
	Load(ctx context.Context) (*models.Account, error)
	Save(ctx context.Context, acc *models.Account) error
}

// ContactRepository defines operations for contacts and their groups.
// Transaction groups multiple saves into one atomic write.
type ContactRepository interface {
	LoadContacts(ctx context.Context, filter *models.ContactFilter) ([]models.Contact, error)
	SaveContacts(ctx context.Context, contacts []models.Contact) error
	LoadGroups(ctx context.Context) ([]models.ContactGroup, error)
	SaveGroups(ctx context.Context, groups []models.ContactGroup) error
	Transaction(ctx context.Context, fn func(context.Context) error) error
}

// TemplateRepository defines operations for message templates
type TemplateRepository interface {
	Load(ctx context.Context) ([]models.Template, error)
	Save(ctx context.Context, templates []models.Template) error
}

// SendRecordRepository defines operations for the send history
type SendRecordRepository interface {
	Load(ctx context.Context) ([]models.SendRecord, error)
	Save(ctx context.Context, records []models.SendRecord) error
}

// TaskRepository defines operations for send tasks
type TaskRepository interface {
	Load(ctx context.Context, filter *models.TaskFilter) ([]models.Task, error)
	Save(ctx context.Context, tasks []models.Task) error
}

// RechargeRepository defines operations for the recharge history
type RechargeRepository interface {
	Load(ctx context.Context) ([]models.RechargeRecord, error)
	Append(ctx context.Context, record models.RechargeRecord) error
}

// StatsRepository defines operations for the lifetime send counters
type StatsRepository interface {
	Load(ctx context.Context) (*models.StatsCounters, error)
	Save(ctx context.Context, counters *models.StatsCounters) error
}
