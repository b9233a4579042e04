package models

import (
	"time"
)

// Contact is a single addressable recipient.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Group     string    `json:"group"`
	Remark    string    `json:"remark,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContactGroup is a named bucket of contacts. Count is derived from the
// contact list on every read and never trusted from storage.
type ContactGroup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContactFilter narrows contact listings.
type ContactFilter struct {
	Group *string
	Phone *string
}
