package repository

import (
	"context"

	"github.com/junwei-lin/smsflow/models"
)

// TemplateRepositoryImpl implements TemplateRepository over the ledger store.
type TemplateRepositoryImpl struct {
	templates collection[[]models.Template]
}

// NewTemplateRepository creates a new template repository instance
func NewTemplateRepository(store LedgerStore) *TemplateRepositoryImpl {
	return &TemplateRepositoryImpl{
		templates: collection[[]models.Template]{
			store:    store,
			key:      KeyTemplates,
			fallback: models.SeedTemplates,
		},
	}
}

// Load returns the stored templates, or the seed set when the entry is
// missing or unreadable.
func (r *TemplateRepositoryImpl) Load(ctx context.Context) ([]models.Template, error) {
	return r.templates.load(ctx)
}

// Save persists the full template list.
func (r *TemplateRepositoryImpl) Save(ctx context.Context, templates []models.Template) error {
	return r.templates.save(ctx, templates)
}
