package businessflow

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/junwei-lin/smsflow/app/services"
	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/repository"
	"github.com/junwei-lin/smsflow/utils"
)

// TaskFlow is the task executor: validates bulk-send requests, creates tasks,
// and drives the strictly sequential send loop.
type TaskFlow interface {
	Validate(ctx context.Context, phones []string, message string) error
	CreateTask(ctx context.Context, input *CreateTaskInput) (*models.Task, error)
	ListTasks(ctx context.Context, filter *models.TaskFilter) ([]models.Task, error)
	Execute(ctx context.Context, taskID string, onProgress ProgressFunc) (*models.Task, error)
}

// CreateTaskInput carries everything needed to register a send task.
// A nil SendAt means the task is due immediately.
type CreateTaskInput struct {
	Title    string
	Template string
	Content  string
	Phones   []string
	SendAt   *time.Time
}

// OutcomeFunc observes each per-recipient outcome, for metrics wiring.
type OutcomeFunc func(status models.SendStatus)

// TaskFlowImpl implements TaskFlow.
type TaskFlowImpl struct {
	taskRepo  repository.TaskRepository
	statsRepo repository.StatsRepository
	balance   BalanceFlow
	retention RetentionFlow
	sender    services.SendCapability

	unitPrice   float64
	sendTimeout time.Duration
	onOutcome   OutcomeFunc
	logger      *log.Logger

	mu sync.Mutex
}

// NewTaskFlow creates a new task executor
func NewTaskFlow(
	taskRepo repository.TaskRepository,
	statsRepo repository.StatsRepository,
	balance BalanceFlow,
	retention RetentionFlow,
	sender services.SendCapability,
	unitPrice float64,
	sendTimeout time.Duration,
	onOutcome OutcomeFunc,
) *TaskFlowImpl {
	if unitPrice <= 0 {
		unitPrice = utils.UnitPrice
	}
	if sendTimeout <= 0 {
		sendTimeout = utils.DefaultSendTimeout
	}
	return &TaskFlowImpl{
		taskRepo:    taskRepo,
		statsRepo:   statsRepo,
		balance:     balance,
		retention:   retention,
		sender:      sender,
		unitPrice:   unitPrice,
		sendTimeout: sendTimeout,
		onOutcome:   onOutcome,
		logger:      log.New(os.Stdout, "[task-executor] ", log.LstdFlags),
	}
}

// Validate checks a send request without mutating anything. Recipients and
// content must be present and the combined balance must cover one message
// per recipient.
func (f *TaskFlowImpl) Validate(ctx context.Context, phones []string, message string) error {
	if len(phones) == 0 {
		return NewBusinessError("MISSING_CONTACTS", "请选择联系人", ErrMissingContacts)
	}
	if strings.TrimSpace(message) == "" {
		return NewBusinessError("MISSING_TEMPLATE", "请输入短信内容", ErrMissingTemplate)
	}

	ok, err := f.balance.CheckBalance(ctx, len(phones))
	if err != nil {
		return fmt.Errorf("failed to check balance: %w", err)
	}
	if !ok {
		summary, sErr := f.balance.Summary(ctx)
		if sErr != nil {
			return NewBusinessError("INSUFFICIENT_BALANCE", "余额不足", ErrInsufficientBalance)
		}
		return NewBusinessErrorf("INSUFFICIENT_BALANCE",
			"余额不足：当前可发送 %d 条，需要 %d 条", ErrInsufficientBalance, summary.Total, len(phones))
	}

	return nil
}

// CreateTask validates the input and registers a pending task. The quoted
// cost is fixed here, one unit price per recipient, and never changes with
// later per-recipient outcomes.
func (f *TaskFlowImpl) CreateTask(ctx context.Context, input *CreateTaskInput) (*models.Task, error) {
	if err := f.Validate(ctx, input.Phones, input.Content); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = fmt.Sprintf("群发任务 %s", utils.UTCNow().Format("01-02 15:04"))
	}

	task := models.Task{
		ID:           uuid.NewString(),
		Title:        title,
		ContactCount: len(input.Phones),
		Template:     input.Template,
		Content:      input.Content,
		Phones:       input.Phones,
		SendAt:       input.SendAt,
		Cost:         strconv.FormatFloat(float64(len(input.Phones))*f.unitPrice, 'f', 2, 64),
		Status:       models.TaskStatusPending,
		CreatedAt:    utils.UTCNow(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tasks, err := f.taskRepo.Load(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	tasks = append([]models.Task{task}, tasks...)
	if err := f.taskRepo.Save(ctx, tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageDegraded, err)
	}

	return &task, nil
}

// ListTasks returns tasks, newest first, optionally narrowed by filter.
func (f *TaskFlowImpl) ListTasks(ctx context.Context, filter *models.TaskFilter) ([]models.Task, error) {
	return f.taskRepo.Load(ctx, filter)
}

// Execute runs a pending task to completion, strictly one recipient at a
// time. Per-recipient failures are recorded and never abort the loop; only
// cancellation stops it early. onProgress fires synchronously after each
// recipient, in send order. May be nil.
func (f *TaskFlowImpl) Execute(ctx context.Context, taskID string, onProgress ProgressFunc) (*models.Task, error) {
	task, err := f.claim(ctx, taskID)
	if err != nil {
		return nil, err
	}

	total := len(task.Phones)
	for i, phone := range task.Phones {
		if err := ctx.Err(); err != nil {
			task.Status = models.TaskStatusFailed
			task.FinishedAt = utils.UTCNowPtr()
			f.saveTask(ctx, task)
			return task, NewBusinessError("SEND_CANCELED", "发送已取消", ErrSendCanceled)
		}

		status := f.sendOne(ctx, phone, task.Content)
		cost := 0.0
		if status == models.SendStatusSuccess {
			task.SuccessCount++
			cost = f.unitPrice
			if _, err := f.balance.Debit(ctx, 1); err != nil {
				f.logger.Printf("task %s: debit for %s failed: %v", task.ID, phone, err)
			}
		} else {
			task.FailedCount++
		}
		task.Results = append(task.Results, models.SendResult{Phone: phone, Status: status, Cost: cost})
		f.recordOutcome(ctx, task.ID, phone, task.Content, status)

		if onProgress != nil {
			onProgress(SendProgress{
				Current: i + 1,
				Total:   total,
				Phone:   phone,
				Status:  status,
				Percent: (i + 1) * 100 / total,
			})
		}

		if i < total-1 {
			if err := f.pause(ctx); err != nil {
				task.Status = models.TaskStatusFailed
				task.FinishedAt = utils.UTCNowPtr()
				f.saveTask(ctx, task)
				return task, NewBusinessError("SEND_CANCELED", "发送已取消", ErrSendCanceled)
			}
		}
	}

	if total > 0 && task.SuccessCount == 0 {
		task.Status = models.TaskStatusFailed
	} else {
		task.Status = models.TaskStatusCompleted
	}
	task.FinishedAt = utils.UTCNowPtr()
	if err := f.saveTask(ctx, task); err != nil {
		return task, err
	}

	return task, nil
}

// claim transitions the task from pending to running and persists the
// transition before any send happens.
func (f *TaskFlowImpl) claim(ctx context.Context, taskID string) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tasks, err := f.taskRepo.Load(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	for i := range tasks {
		if tasks[i].ID != taskID {
			continue
		}
		if tasks[i].Status != models.TaskStatusPending {
			return nil, NewBusinessError("TASK_NOT_PENDING", "任务不在待发送状态", ErrTaskNotPending)
		}

		tasks[i].Status = models.TaskStatusRunning
		tasks[i].StartedAt = utils.UTCNowPtr()
		if err := f.taskRepo.Save(ctx, tasks); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageDegraded, err)
		}

		claimed := tasks[i]
		return &claimed, nil
	}

	return nil, NewBusinessError("TASK_NOT_FOUND", "任务不存在", ErrTaskNotFound)
}

// sendOne attempts a single delivery under the per-message timeout and
// classifies the outcome.
func (f *TaskFlowImpl) sendOne(ctx context.Context, phone, content string) models.SendStatus {
	sendCtx, cancel := context.WithTimeout(ctx, f.sendTimeout)
	defer cancel()

	if err := f.sender.Send(sendCtx, phone, content); err != nil {
		return models.SendStatusFailed
	}
	return models.SendStatusSuccess
}

// recordOutcome appends the send record, bumps the lifetime counters, and
// notifies the outcome observer. Storage degradation is tolerated here: the
// send already happened and must not be retried because bookkeeping lagged.
// Every failed write is logged as a warning.
func (f *TaskFlowImpl) recordOutcome(ctx context.Context, taskID, phone, content string, status models.SendStatus) {
	now := utils.UTCNow()
	cost := 0.0
	if status == models.SendStatusSuccess {
		cost = f.unitPrice
	}

	err := f.retention.Append(ctx, models.SendRecord{
		ID:         uuid.NewString(),
		Phone:      phone,
		Message:    content,
		Status:     status,
		StatusText: status.StatusText(),
		Cost:       cost,
		Timestamp:  now.UnixMilli(),
		Time:       now.Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		f.logger.Printf("task %s: send record for %s not persisted: %v", taskID, phone, err)
	}

	counters, err := f.statsRepo.Load(ctx)
	if err != nil {
		f.logger.Printf("task %s: failed to load lifetime counters: %v", taskID, err)
	} else {
		if status == models.SendStatusSuccess {
			counters.TotalSent++
		} else {
			counters.TotalFailed++
		}
		counters.LastSent = &now
		if err := f.statsRepo.Save(ctx, counters); err != nil {
			f.logger.Printf("task %s: lifetime counters not persisted: %v", taskID, err)
		}
	}

	if f.onOutcome != nil {
		f.onOutcome(status)
	}
}

// pause waits the sender's inter-message delay, abandoning the wait on
// cancellation.
func (f *TaskFlowImpl) pause(ctx context.Context) error {
	delay := f.sender.InterMessageDelay()
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// saveTask writes the task back into the persisted list by ID.
func (f *TaskFlowImpl) saveTask(ctx context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tasks, err := f.taskRepo.Load(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	for i := range tasks {
		if tasks[i].ID == task.ID {
			tasks[i] = *task
			break
		}
	}

	if err := f.taskRepo.Save(ctx, tasks); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageDegraded, err)
	}

	return nil
}
