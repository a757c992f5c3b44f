package crm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"binna-crm/internal/domain"
)

// Opportunities manages potential sales attached to establishments.
type Opportunities struct {
	store  domain.OpportunityStore
	logger *slog.Logger
}

// NewOpportunities creates the opportunity controller.
func NewOpportunities(store domain.OpportunityStore, logger *slog.Logger) *Opportunities {
	return &Opportunities{store: store, logger: logger}
}

// OpportunityInput carries the optional attributes of a new opportunity.
type OpportunityInput struct {
	Product   string
	CloseDate *time.Time
	Price     float64
	Stage     string
	Notes     string
}

// Create adds an opportunity under an establishment.
func (c *Opportunities) Create(ctx context.Context, userID, establishmentID int64, in OpportunityInput) (*domain.Opportunity, error) {
	o := &domain.Opportunity{
		UserID:          userID,
		EstablishmentID: establishmentID,
		Product:         in.Product,
		CloseDate:       in.CloseDate,
		Price:           in.Price,
		Stage:           in.Stage,
		Notes:           in.Notes,
	}
	if err := c.store.CreateOpportunity(ctx, o); err != nil {
		return nil, domain.WrapOp("Opportunities.Create", err)
	}
	c.logger.Debug("opportunity created", "user_id", userID, "id", o.ID)
	return o, nil
}

// List returns the user's opportunities; establishmentID zero means all
// establishments.
func (c *Opportunities) List(ctx context.Context, userID, establishmentID int64) ([]domain.Opportunity, error) {
	return c.store.ListOpportunities(ctx, userID, establishmentID)
}

// Get returns one opportunity by id, or nil when it does not exist.
func (c *Opportunities) Get(ctx context.Context, userID, id int64) (*domain.Opportunity, error) {
	o, err := c.store.GetOpportunity(ctx, userID, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return o, err
}

// OpportunityUpdate holds the optional fields of an update.
type OpportunityUpdate struct {
	Product   *string
	CloseDate *time.Time
	Price     *float64
	Stage     *string
	Notes     *string
}

// Update applies a partial update, returning the updated opportunity or
// nil when it does not exist.
func (c *Opportunities) Update(ctx context.Context, userID, id int64, upd OpportunityUpdate) (*domain.Opportunity, error) {
	o, err := c.Get(ctx, userID, id)
	if err != nil || o == nil {
		return nil, err
	}

	if upd.Product != nil {
		o.Product = *upd.Product
	}
	if upd.CloseDate != nil {
		o.CloseDate = upd.CloseDate
	}
	if upd.Price != nil {
		o.Price = *upd.Price
	}
	if upd.Stage != nil {
		o.Stage = *upd.Stage
	}
	if upd.Notes != nil {
		o.Notes = *upd.Notes
	}

	if err := c.store.UpdateOpportunity(ctx, o); err != nil {
		return nil, domain.WrapOp("Opportunities.Update", err)
	}
	return o, nil
}

// Delete soft-deletes an opportunity, returning the deleted record or nil
// when it does not exist.
func (c *Opportunities) Delete(ctx context.Context, userID, id int64) (*domain.Opportunity, error) {
	o, err := c.Get(ctx, userID, id)
	if err != nil || o == nil {
		return nil, err
	}

	o.Deleted = true
	if err := c.store.UpdateOpportunity(ctx, o); err != nil {
		return nil, domain.WrapOp("Opportunities.Delete", err)
	}
	return o, nil
}
