package repository

import (
	"context"

	"github.com/junwei-lin/smsflow/models"
)

// ContactRepositoryImpl implements ContactRepository over the ledger store.
// Contacts and groups live under separate keys but are managed together
// because group counts are derived from the contact list.
type ContactRepositoryImpl struct {
	store    LedgerStore
	contacts collection[[]models.Contact]
	groups   collection[[]models.ContactGroup]
}

// NewContactRepository creates a new contact repository instance
func NewContactRepository(store LedgerStore) *ContactRepositoryImpl {
	empty := func() []models.Contact { return []models.Contact{} }
	emptyGroups := func() []models.ContactGroup { return []models.ContactGroup{} }
	return &ContactRepositoryImpl{
		store:    store,
		contacts: collection[[]models.Contact]{store: store, key: KeyContacts, fallback: empty},
		groups:   collection[[]models.ContactGroup]{store: store, key: KeyContactGroups, fallback: emptyGroups},
	}
}

// LoadContacts returns all contacts, optionally narrowed by filter.
func (r *ContactRepositoryImpl) LoadContacts(ctx context.Context, filter *models.ContactFilter) ([]models.Contact, error) {
	contacts, err := r.contacts.load(ctx)
	if err != nil {
		return contacts, err
	}
	if filter == nil {
		return contacts, nil
	}

	out := make([]models.Contact, 0, len(contacts))
	for _, c := range contacts {
		if filter.Group != nil && c.Group != *filter.Group {
			continue
		}
		if filter.Phone != nil && c.Phone != *filter.Phone {
			continue
		}
		out = append(out, c)
	}

	return out, nil
}

// SaveContacts persists the full contact list.
func (r *ContactRepositoryImpl) SaveContacts(ctx context.Context, contacts []models.Contact) error {
	return r.contacts.save(ctx, contacts)
}

// LoadGroups returns all contact groups.
func (r *ContactRepositoryImpl) LoadGroups(ctx context.Context) ([]models.ContactGroup, error) {
	return r.groups.load(ctx)
}

// SaveGroups persists the full group list.
func (r *ContactRepositoryImpl) SaveGroups(ctx context.Context, groups []models.ContactGroup) error {
	return r.groups.save(ctx, groups)
}

// Transaction runs fn with the contact and group documents written in one
// atomic transaction.
func (r *ContactRepositoryImpl) Transaction(ctx context.Context, fn func(context.Context) error) error {
	return r.store.Transaction(ctx, fn)
}
