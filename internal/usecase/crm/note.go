package crm

import (
	"context"
	"errors"
	"log/slog"

	"binna-crm/internal/domain"
)

// Notes manages free-form notes attached to establishments.
type Notes struct {
	store          domain.NoteStore
	establishments domain.EstablishmentStore
	logger         *slog.Logger
}

// NewNotes creates the note controller.
func NewNotes(store domain.NoteStore, establishments domain.EstablishmentStore, logger *slog.Logger) *Notes {
	return &Notes{store: store, establishments: establishments, logger: logger}
}

// Create adds a note under an establishment. The establishment must belong
// to the user; notes carry no owner column of their own, so an unchecked
// insert would land in another tenant's data.
func (c *Notes) Create(ctx context.Context, userID, establishmentID int64, title, content string) (*domain.Note, error) {
	if _, err := c.establishments.GetEstablishment(ctx, userID, establishmentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, domain.WrapOp("Notes.Create", err)
	}

	n := &domain.Note{
		EstablishmentID: establishmentID,
		Title:           title,
		Content:         content,
	}
	if err := c.store.CreateNote(ctx, n); err != nil {
		return nil, domain.WrapOp("Notes.Create", err)
	}
	c.logger.Debug("note created", "user_id", userID, "id", n.ID)
	return n, nil
}

// List returns the notes of an establishment; establishmentID zero means
// all of the user's establishments.
func (c *Notes) List(ctx context.Context, userID, establishmentID int64) ([]domain.Note, error) {
	return c.store.ListNotes(ctx, userID, establishmentID)
}

// ListSummaries returns trimmed note projections, keeping bulk listings
// cheap for the model to read.
func (c *Notes) ListSummaries(ctx context.Context, userID, establishmentID int64) ([]domain.NoteSummary, error) {
	notes, err := c.store.ListNotes(ctx, userID, establishmentID)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.NoteSummary, len(notes))
	for i, n := range notes {
		summaries[i] = domain.NoteSummary{
			ID:              n.ID,
			EstablishmentID: n.EstablishmentID,
			Title:           n.Title,
		}
	}
	return summaries, nil
}

// Get returns one note by id, or nil when it does not exist.
func (c *Notes) Get(ctx context.Context, userID, id int64) (*domain.Note, error) {
	n, err := c.store.GetNote(ctx, userID, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return n, err
}

// NoteUpdate holds the optional fields of an update.
type NoteUpdate struct {
	Title   *string
	Content *string
}

// Update applies a partial update, returning the updated note or nil when
// it does not exist.
func (c *Notes) Update(ctx context.Context, userID, id int64, upd NoteUpdate) (*domain.Note, error) {
	n, err := c.Get(ctx, userID, id)
	if err != nil || n == nil {
		return nil, err
	}

	if upd.Title != nil {
		n.Title = *upd.Title
	}
	if upd.Content != nil {
		n.Content = *upd.Content
	}

	if err := c.store.UpdateNote(ctx, n); err != nil {
		return nil, domain.WrapOp("Notes.Update", err)
	}
	return n, nil
}

// Delete soft-deletes a note, returning the deleted record or nil when it
// does not exist.
func (c *Notes) Delete(ctx context.Context, userID, id int64) (*domain.Note, error) {
	n, err := c.Get(ctx, userID, id)
	if err != nil || n == nil {
		return nil, err
	}

	n.Deleted = true
	if err := c.store.UpdateNote(ctx, n); err != nil {
		return nil, domain.WrapOp("Notes.Delete", err)
	}
	return n, nil
}
