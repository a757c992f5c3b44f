package crm

import (
	"context"
	"errors"
	"log/slog"

	"binna-crm/internal/domain"
)

// Contacts manages the people attached to establishments.
type Contacts struct {
	store  domain.ContactStore
	logger *slog.Logger
}

// NewContacts creates the contact controller.
func NewContacts(store domain.ContactStore, logger *slog.Logger) *Contacts {
	return &Contacts{store: store, logger: logger}
}

// Create adds a contact under an establishment.
func (c *Contacts) Create(ctx context.Context, userID, establishmentID int64, name, role, email, phone string) (*domain.Contact, error) {
	ct := &domain.Contact{
		UserID:          userID,
		EstablishmentID: establishmentID,
		Name:            name,
		Role:            role,
		Email:           email,
		Phone:           phone,
	}
	if err := c.store.CreateContact(ctx, ct); err != nil {
		return nil, domain.WrapOp("Contacts.Create", err)
	}
	c.logger.Debug("contact created", "user_id", userID, "id", ct.ID)
	return ct, nil
}

// List returns the user's contacts; establishmentID zero means all
// establishments.
func (c *Contacts) List(ctx context.Context, userID, establishmentID int64) ([]domain.Contact, error) {
	return c.store.ListContacts(ctx, userID, establishmentID)
}

// Get returns one contact by id, or nil when it does not exist.
func (c *Contacts) Get(ctx context.Context, userID, id int64) (*domain.Contact, error) {
	ct, err := c.store.GetContact(ctx, userID, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return ct, err
}

// ContactUpdate holds the optional fields of an update.
type ContactUpdate struct {
	Name  *string
	Role  *string
	Email *string
	Phone *string
}

// Update applies a partial update, returning the updated contact or nil
// when it does not exist.
func (c *Contacts) Update(ctx context.Context, userID, id int64, upd ContactUpdate) (*domain.Contact, error) {
	ct, err := c.Get(ctx, userID, id)
	if err != nil || ct == nil {
		return nil, err
	}

	if upd.Name != nil {
		ct.Name = *upd.Name
	}
	if upd.Role != nil {
		ct.Role = *upd.Role
	}
	if upd.Email != nil {
		ct.Email = *upd.Email
	}
	if upd.Phone != nil {
		ct.Phone = *upd.Phone
	}

	if err := c.store.UpdateContact(ctx, ct); err != nil {
		return nil, domain.WrapOp("Contacts.Update", err)
	}
	return ct, nil
}

// Delete soft-deletes a contact, returning the deleted record or nil when
// it does not exist.
func (c *Contacts) Delete(ctx context.Context, userID, id int64) (*domain.Contact, error) {
	ct, err := c.Get(ctx, userID, id)
	if err != nil || ct == nil {
		return nil, err
	}

	ct.Deleted = true
	if err := c.store.UpdateContact(ctx, ct); err != nil {
		return nil, domain.WrapOp("Contacts.Delete", err)
	}
	return ct, nil
}
