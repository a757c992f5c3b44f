// Package crm implements the data-access operations exposed to the
// assistant as tools and to the HTTP layer. Every mutation commits its own
// unit of work through the store; lookups that find nothing return a nil
// entity with a nil error, which the tool invoker reports as an
// unsuccessful call.
package crm

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"binna-crm/internal/domain"
)

// Establishments manages customer establishment records.
type Establishments struct {
	store  domain.EstablishmentStore
	logger *slog.Logger
}

// NewEstablishments creates the establishment controller.
func NewEstablishments(store domain.EstablishmentStore, logger *slog.Logger) *Establishments {
	return &Establishments{store: store, logger: logger}
}

// Create registers a new establishment for the user. Creation is idempotent
// by name: when a fuzzy match already exists it is returned unchanged.
func (c *Establishments) Create(ctx context.Context, userID int64, name, description, industry string) (*domain.Establishment, error) {
	existing, err := c.GetByName(ctx, userID, name, true)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	e := &domain.Establishment{
		UserID:      userID,
		Name:        name,
		Description: description,
		Industry:    industry,
	}
	if err := c.store.CreateEstablishment(ctx, e); err != nil {
		return nil, domain.WrapOp("Establishments.Create", err)
	}
	c.logger.Debug("establishment created", "user_id", userID, "id", e.ID)
	return e, nil
}

// List returns the user's establishments, excluding deleted ones.
func (c *Establishments) List(ctx context.Context, userID int64) ([]domain.Establishment, error) {
	return c.store.ListEstablishments(ctx, userID)
}

// Get returns one establishment by id, or nil when it does not exist.
func (c *Establishments) Get(ctx context.Context, userID, id int64) (*domain.Establishment, error) {
	e, err := c.store.GetEstablishment(ctx, userID, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return e, err
}

// GetByName returns the establishment with the exact name. With fuzzy
// enabled, a case-insensitive substring match over the user's
// establishments is tried when the exact lookup finds nothing.
func (c *Establishments) GetByName(ctx context.Context, userID int64, name string, fuzzy bool) (*domain.Establishment, error) {
	e, err := c.store.GetEstablishmentByName(ctx, userID, name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if e != nil || !fuzzy {
		return e, nil
	}

	all, err := c.store.ListEstablishments(ctx, userID)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(name)
	for i := range all {
		if strings.Contains(strings.ToLower(all[i].Name), needle) {
			return &all[i], nil
		}
	}
	return nil, nil
}

// EstablishmentUpdate holds the optional fields of an update; nil fields
// are left unchanged.
type EstablishmentUpdate struct {
	Name        *string
	Description *string
	Industry    *string
}

// Update applies a partial update, returning the updated establishment or
// nil when it does not exist.
func (c *Establishments) Update(ctx context.Context, userID, id int64, upd EstablishmentUpdate) (*domain.Establishment, error) {
	e, err := c.Get(ctx, userID, id)
	if err != nil || e == nil {
		return nil, err
	}

	if upd.Name != nil {
		e.Name = *upd.Name
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.Industry != nil {
		e.Industry = *upd.Industry
	}

	if err := c.store.UpdateEstablishment(ctx, e); err != nil {
		return nil, domain.WrapOp("Establishments.Update", err)
	}
	return e, nil
}

// Delete soft-deletes an establishment, returning the deleted record or
// nil when it does not exist.
func (c *Establishments) Delete(ctx context.Context, userID, id int64) (*domain.Establishment, error) {
	e, err := c.Get(ctx, userID, id)
	if err != nil || e == nil {
		return nil, err
	}

	e.Deleted = true
	if err := c.store.UpdateEstablishment(ctx, e); err != nil {
		return nil, domain.WrapOp("Establishments.Delete", err)
	}
	c.logger.Debug("establishment deleted", "user_id", userID, "id", id)
	return e, nil
}
