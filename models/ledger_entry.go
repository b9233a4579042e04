package models

import (
	"encoding/json"
	"time"
)

// LedgerEntry is one durable key/value slot of the persistent ledger store.
// Every application collection (account, contacts, records, tasks, ...) is
// serialized as a single JSON document under its well-known key.
type LedgerEntry struct {
	Key       string          `json:"key" gorm:"column:key;primaryKey;size:128"`
	Value     json.RawMessage `json:"value" gorm:"column:value;type:jsonb"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
