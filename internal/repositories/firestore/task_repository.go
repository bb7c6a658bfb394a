package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/sixnames/next-marketplace-sub004/internal/domain"
	pfirestore "github.com/sixnames/next-marketplace-sub004/internal/platform/firestore"
)

const tasksCollection = "tasks"

// TaskRepository is the Firestore implementation of repositories.TaskRepository.
type TaskRepository struct {
	provider *pfirestore.Provider
	tasks    *pfirestore.Collection[taskDocument]
}

// NewTaskRepository binds the moderation task collection to the shared provider.
func NewTaskRepository(provider *pfirestore.Provider) (*TaskRepository, error) {
	if provider == nil {
		return nil, errors.New("task repository requires firestore provider")
	}
	return &TaskRepository{
		provider: provider,
		tasks:    pfirestore.NewCollection[taskDocument](provider, tasksCollection),
	}, nil
}

// FindTaskByID fetches the task with its complete log.
func (r *TaskRepository) FindTaskByID(ctx context.Context, taskID string) (domain.Task, error) {
	doc, err := r.tasks.Get(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	return doc.toDomain(taskID)
}

// CreateTask inserts a new moderation task, failing on an existing ID.
func (r *TaskRepository) CreateTask(ctx context.Context, task domain.Task) error {
	if strings.TrimSpace(task.ID) == "" {
		return errors.New("tasks: id is required")
	}
	doc, err := newTaskDocument(task)
	if err != nil {
		return err
	}
	return r.tasks.Create(ctx, task.ID, doc)
}

// AppendLogEntry appends one draft entry to the task log and moves the task
// to the given state, transactionally so concurrent saves never drop entries.
func (r *TaskRepository) AppendLogEntry(ctx context.Context, taskID string, entry domain.TaskLogEntry, state domain.TaskState) (domain.Task, error) {
	entryDoc, err := newTaskLogEntryDocument(entry)
	if err != nil {
		return domain.Task{}, err
	}

	var updated domain.Task
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.tasks.Doc(ctx, taskID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		doc, err := r.tasks.Decode(snap)
		if err != nil {
			return err
		}

		doc.Log = append(doc.Log, entryDoc)
		doc.State = string(state)
		doc.UpdatedAt = entry.CreatedAt.UTC()

		if err := tx.Set(ref, doc); err != nil {
			return err
		}
		updated, err = doc.toDomain(taskID)
		return err
	})
	if err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}
