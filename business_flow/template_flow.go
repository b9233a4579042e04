package businessflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/repository"
)

// TemplateFlow manages reusable message templates. A fresh store starts with
// the seed set.
type TemplateFlow interface {
	List(ctx context.Context) ([]models.Template, error)
	Get(ctx context.Context, id int64) (*models.Template, error)
	Create(ctx context.Context, title, content, typ string, category models.TemplateCategory) (*models.Template, error)
	Update(ctx context.Context, id int64, title, content string) (*models.Template, error)
	Delete(ctx context.Context, id int64) error
}

// TemplateFlowImpl implements TemplateFlow.
type TemplateFlowImpl struct {
	templateRepo repository.TemplateRepository

	mu sync.Mutex
}

// NewTemplateFlow creates a new template management flow
func NewTemplateFlow(templateRepo repository.TemplateRepository) *TemplateFlowImpl {
	return &TemplateFlowImpl{templateRepo: templateRepo}
}

// List returns all templates.
func (f *TemplateFlowImpl) List(ctx context.Context) ([]models.Template, error) {
	return f.templateRepo.Load(ctx)
}

// Get returns one template by ID.
func (f *TemplateFlowImpl) Get(ctx context.Context, id int64) (*models.Template, error) {
	templates, err := f.templateRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	for _, t := range templates {
		if t.ID == id {
			return &t, nil
		}
	}

	return nil, NewBusinessError("TEMPLATE_NOT_FOUND", "模板不存在", ErrTemplateNotFound)
}

// Create validates and stores a new template with the next free ID.
func (f *TemplateFlowImpl) Create(ctx context.Context, title, content, typ string, category models.TemplateCategory) (*models.Template, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return nil, NewBusinessError("TEMPLATE_TITLE_REQUIRED", "请输入模板标题", ErrTemplateTitleRequired)
	}
	if content == "" {
		return nil, NewBusinessError("TEMPLATE_CONTENT_REQUIRED", "请输入模板内容", ErrTemplateContentRequired)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	templates, err := f.templateRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	var maxID int64
	for _, t := range templates {
		if t.ID > maxID {
			maxID = t.ID
		}
	}

	template := models.Template{
		ID:       maxID + 1,
		Title:    title,
		Content:  content,
		Type:     typ,
		Category: category,
	}

	templates = append(templates, template)
	if err := f.templateRepo.Save(ctx, templates); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageDegraded, err)
	}

	return &template, nil
}

// Update replaces the title and content of an existing template.
func (f *TemplateFlowImpl) Update(ctx context.Context, id int64, title, content string) (*models.Template, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return nil, NewBusinessError("TEMPLATE_TITLE_REQUIRED", "请输入模板标题", ErrTemplateTitleRequired)
	}
	if content == "" {
		return nil, NewBusinessError("TEMPLATE_CONTENT_REQUIRED", "请输入模板内容", ErrTemplateContentRequired)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	templates, err := f.templateRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	for i := range templates {
		if templates[i].ID != id {
			continue
		}
		templates[i].Title = title
		templates[i].Content = content

		if err := f.templateRepo.Save(ctx, templates); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageDegraded, err)
		}
		return &templates[i], nil
	}

	return nil, NewBusinessError("TEMPLATE_NOT_FOUND", "模板不存在", ErrTemplateNotFound)
}

// Delete removes a template by ID.
func (f *TemplateFlowImpl) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	templates, err := f.templateRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	kept := templates[:0]
	found := false
	for _, t := range templates {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return NewBusinessError("TEMPLATE_NOT_FOUND", "模板不存在", ErrTemplateNotFound)
	}

	if err := f.templateRepo.Save(ctx, kept); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageDegraded, err)
	}

	return nil
}
