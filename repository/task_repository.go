package repository

import (
	"context"

	"github.com/junwei-lin/smsflow/models"
)

// TaskRepositoryImpl implements TaskRepository over the ledger store.
type TaskRepositoryImpl struct {
	tasks collection[[]models.Task]
}

// NewTaskRepository creates a new task repository instance
func NewTaskRepository(store LedgerStore) *TaskRepositoryImpl {
	return &TaskRepositoryImpl{
		tasks: collection[[]models.Task]{
			store:    store,
			key:      KeyTasks,
			fallback: func() []models.Task { return []models.Task{} },
		},
	}
}

// Load returns all stored tasks, optionally narrowed by filter.
func (r *TaskRepositoryImpl) Load(ctx context.Context, filter *models.TaskFilter) ([]models.Task, error) {
	tasks, err := r.tasks.load(ctx)
	if err != nil || filter == nil || filter.Status == nil {
		return tasks, err
	}

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == *filter.Status {
			out = append(out, t)
		}
	}

	return out, nil
}

// Save persists the full task list.
func (r *TaskRepositoryImpl) Save(ctx context.Context, tasks []models.Task) error {
	return r.tasks.save(ctx, tasks)
}
