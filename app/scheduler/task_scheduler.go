package scheduler

import (
	"context"
	"log"
	"time"

	businessflow "github.com/junwei-lin/smsflow/business_flow"
	"github.com/junwei-lin/smsflow/config"
	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/utils"
)

// TaskScheduler polls for pending tasks whose send time has arrived and
// executes them. Execution is strictly sequential across tasks as well: one
// poll cycle runs due tasks one after another.
type TaskScheduler struct {
	tasks    businessflow.TaskFlow
	interval time.Duration
	logger   *log.Logger
}

// NewTaskScheduler creates a new scheduled-task dispatcher
func NewTaskScheduler(tasks businessflow.TaskFlow, interval time.Duration, logCfg *config.LoggingConfig) *TaskScheduler {
	return &TaskScheduler{
		tasks:    tasks,
		interval: interval,
		logger:   newJobLogger("[task-scheduler] ", logCfg),
	}
}

// Start launches the dispatch loop and returns a cancel function.
func (s *TaskScheduler) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		s.logger.Printf("starting, interval=%s", s.interval)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Printf("stopped")
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *TaskScheduler) runOnce(ctx context.Context) {
	pending := models.TaskStatusPending
	tasks, err := s.tasks.ListTasks(ctx, &models.TaskFilter{Status: &pending})
	if err != nil {
		s.logger.Printf("failed to list tasks: %v", err)
		return
	}

	now := utils.UTCNow()
	for _, t := range tasks {
		// Immediate tasks are executed by their request path; the
		// scheduler only picks up deferred ones.
		if t.SendAt == nil || !t.IsDue(now) {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		s.logger.Printf("executing task %s (%d recipients)", t.ID, t.ContactCount)
		done, err := s.tasks.Execute(ctx, t.ID, nil)
		if err != nil {
			s.logger.Printf("task %s failed: %v", t.ID, err)
			continue
		}
		s.logger.Printf("task %s %s: %d ok, %d failed",
			done.ID, done.Status, done.SuccessCount, done.FailedCount)
	}
}
