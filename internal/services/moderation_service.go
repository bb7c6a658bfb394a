package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/sixnames/next-marketplace-sub004/internal/domain"
	"github.com/sixnames/next-marketplace-sub004/internal/repositories"
)

var (
	// ErrModerationInvalidInput indicates the caller supplied invalid data to the workflow.
	ErrModerationInvalidInput = errors.New("moderation service: invalid input")
	// ErrModerationTaskNotFound indicates the referenced task does not exist.
	ErrModerationTaskNotFound = errors.New("moderation service: task not found")
	// ErrModerationProductNotFound indicates the task's product cannot be assembled.
	ErrModerationProductNotFound = errors.New("moderation service: product not found")
)

// ModerationServiceDeps bundles constructor inputs for the moderation service.
type ModerationServiceDeps struct {
	Catalog   repositories.CatalogRepository
	Tasks     repositories.TaskRepository
	Summary   SummaryService
	Publisher TaskEventPublisher
	Logger    *zap.Logger
	Clock     func() time.Time
}

type moderationService struct {
	catalog   repositories.CatalogRepository
	tasks     repositories.TaskRepository
	summary   SummaryService
	publisher TaskEventPublisher
	logger    *zap.Logger
	clock     func() time.Time
}

// NewModerationService constructs the moderation workflow service. The event
// publisher is optional; without one, task events are logged and dropped.
func NewModerationService(deps ModerationServiceDeps) (ModerationService, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("moderation service: catalog repository is required")
	}
	if deps.Tasks == nil {
		return nil, fmt.Errorf("moderation service: task repository is required")
	}
	if deps.Summary == nil {
		return nil, fmt.Errorf("moderation service: summary service is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &moderationService{
		catalog:   deps.Catalog,
		tasks:     deps.Tasks,
		summary:   deps.Summary,
		publisher: deps.Publisher,
		logger:    logger,
		clock:     func() time.Time { return clock().UTC() },
	}, nil
}

// CreateTask opens a moderation task for a product with an empty log.
func (s *moderationService) CreateTask(ctx context.Context, cmd CreateTaskCommand) (Task, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return Task{}, fmt.Errorf("%w: product id is required", ErrModerationInvalidInput)
	}

	if _, err := s.catalog.FindProductByID(ctx, productID); err != nil {
		if isRepoNotFound(err) {
			return Task{}, ErrModerationProductNotFound
		}
		return Task{}, err
	}

	now := s.clock()
	task := Task{
		ID:        newID(now),
		ProductID: productID,
		State:     domain.TaskStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return Task{}, err
	}

	s.publish(ctx, TaskEventMessage{
		TaskID:     task.ID,
		ProductID:  task.ProductID,
		Event:      "task.created",
		State:      string(task.State),
		OccurredAt: now,
	})
	return task, nil
}

// SaveDraft overlays the proposed edit on the task's product, assembles the
// result, and appends it to the task log as a complete draft snapshot. The
// live record is never written; earlier entries are never touched and the
// overlay reads only the newest one.
func (s *moderationService) SaveDraft(ctx context.Context, cmd SaveDraftCommand) (Task, error) {
	taskID := strings.TrimSpace(cmd.TaskID)
	if taskID == "" {
		return Task{}, fmt.Errorf("%w: task id is required", ErrModerationInvalidInput)
	}

	task, err := s.tasks.FindTaskByID(ctx, taskID)
	if err != nil {
		if isRepoNotFound(err) {
			return Task{}, ErrModerationTaskNotFound
		}
		return Task{}, err
	}

	product, err := s.catalog.FindProductByID(ctx, task.ProductID)
	if err != nil {
		if isRepoNotFound(err) {
			return Task{}, ErrModerationProductNotFound
		}
		return Task{}, err
	}
	applyDraftEdit(&product, cmd.Edit)

	draft, err := s.summary.AssemblePreview(ctx, product, cmd.Locale, "")
	if err != nil {
		if errors.Is(err, ErrSummaryNotFound) {
			return Task{}, ErrModerationProductNotFound
		}
		return Task{}, err
	}

	now := s.clock()
	entry := TaskLogEntry{
		ID:        newID(now),
		Draft:     &draft,
		CreatedBy: strings.TrimSpace(cmd.CreatedBy),
		CreatedAt: now,
	}

	updated, err := s.tasks.AppendLogEntry(ctx, taskID, entry, domain.TaskStateInProgress)
	if err != nil {
		if isRepoNotFound(err) {
			return Task{}, ErrModerationTaskNotFound
		}
		return Task{}, err
	}

	s.publish(ctx, TaskEventMessage{
		TaskID:     updated.ID,
		ProductID:  updated.ProductID,
		Event:      "draft.saved",
		State:      string(updated.State),
		CreatedBy:  entry.CreatedBy,
		OccurredAt: now,
	})
	return updated, nil
}

// applyDraftEdit replaces the edited fields on the record copy. Nil fields
// keep the live values.
func applyDraftEdit(product *domain.Product, edit DraftEdit) {
	if edit.CardTitleI18n != nil {
		product.CardTitleI18n = edit.CardTitleI18n
	}
	if edit.SnippetTitleI18n != nil {
		product.SnippetTitleI18n = edit.SnippetTitleI18n
	}
	if edit.Attributes != nil {
		product.Attributes = edit.Attributes
	}
}

func (s *moderationService) publish(ctx context.Context, message TaskEventMessage) {
	if s.publisher == nil {
		s.logger.Debug("task event publisher not configured, event dropped",
			zap.String("taskId", message.TaskID),
			zap.String("event", message.Event))
		return
	}
	if _, err := s.publisher.PublishTaskEvent(ctx, message); err != nil {
		// Event delivery is best-effort; the task write already committed.
		s.logger.Warn("task event publish failed",
			zap.String("taskId", message.TaskID),
			zap.String("event", message.Event),
			zap.Error(err))
	}
}
