package crm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"binna-crm/internal/domain"
)

// Tasks manages to-do items attached to establishments.
type Tasks struct {
	store  domain.TaskStore
	logger *slog.Logger
}

// NewTasks creates the task controller.
func NewTasks(store domain.TaskStore, logger *slog.Logger) *Tasks {
	return &Tasks{store: store, logger: logger}
}

// Create adds a task under an establishment. dueDate may be nil.
func (c *Tasks) Create(ctx context.Context, userID, establishmentID int64, name, description string, dueDate *time.Time, completed bool) (*domain.Task, error) {
	t := &domain.Task{
		UserID:          userID,
		EstablishmentID: establishmentID,
		Name:            name,
		Description:     description,
		DueDate:         dueDate,
		Completed:       completed,
	}
	if err := c.store.CreateTask(ctx, t); err != nil {
		return nil, domain.WrapOp("Tasks.Create", err)
	}
	c.logger.Debug("task created", "user_id", userID, "id", t.ID)
	return t, nil
}

// List returns the user's tasks; establishmentID zero means all
// establishments.
func (c *Tasks) List(ctx context.Context, userID, establishmentID int64) ([]domain.Task, error) {
	return c.store.ListTasks(ctx, userID, establishmentID)
}

// Get returns one task by id, or nil when it does not exist.
func (c *Tasks) Get(ctx context.Context, userID, id int64) (*domain.Task, error) {
	t, err := c.store.GetTask(ctx, userID, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return t, err
}

// TaskUpdate holds the optional fields of an update.
type TaskUpdate struct {
	Name        *string
	Description *string
	DueDate     *time.Time
	Completed   *bool
}

// Update applies a partial update, returning the updated task or nil when
// it does not exist.
func (c *Tasks) Update(ctx context.Context, userID, id int64, upd TaskUpdate) (*domain.Task, error) {
	t, err := c.Get(ctx, userID, id)
	if err != nil || t == nil {
		return nil, err
	}

	if upd.Name != nil {
		t.Name = *upd.Name
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.DueDate != nil {
		t.DueDate = upd.DueDate
	}
	if upd.Completed != nil {
		t.Completed = *upd.Completed
	}

	if err := c.store.UpdateTask(ctx, t); err != nil {
		return nil, domain.WrapOp("Tasks.Update", err)
	}
	return t, nil
}

// Delete soft-deletes a task, returning the deleted record or nil when it
// does not exist.
func (c *Tasks) Delete(ctx context.Context, userID, id int64) (*domain.Task, error) {
	t, err := c.Get(ctx, userID, id)
	if err != nil || t == nil {
		return nil, err
	}

	t.Deleted = true
	if err := c.store.UpdateTask(ctx, t); err != nil {
		return nil, domain.WrapOp("Tasks.Delete", err)
	}
	return t, nil
}
