package crm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"binna-crm/internal/domain"
)

// Meetings manages scheduled appointments and their contact links.
type Meetings struct {
	store  domain.MeetingStore
	logger *slog.Logger
}

// NewMeetings creates the meeting controller.
func NewMeetings(store domain.MeetingStore, logger *slog.Logger) *Meetings {
	return &Meetings{store: store, logger: logger}
}

// MeetingInput carries the attributes of a new meeting. ContactIDs are
// linked after the meeting row is created.
type MeetingInput struct {
	Name            string
	Description     string
	Date            time.Time
	DurationMinutes int
	Status          string
	Address         string
	OpportunityID   int64
	ContactIDs      []int64
}

// Create schedules a meeting under an establishment and links the given
// contacts to it.
func (c *Meetings) Create(ctx context.Context, userID, establishmentID int64, in MeetingInput) (*domain.Meeting, error) {
	status := in.Status
	if status == "" {
		status = domain.MeetingPending
	}

	m := &domain.Meeting{
		UserID:          userID,
		EstablishmentID: establishmentID,
		OpportunityID:   in.OpportunityID,
		Name:            in.Name,
		Description:     in.Description,
		Date:            in.Date,
		DurationMinutes: in.DurationMinutes,
		Status:          status,
		Address:         in.Address,
	}
	if err := c.store.CreateMeeting(ctx, m); err != nil {
		return nil, domain.WrapOp("Meetings.Create", err)
	}

	for _, contactID := range in.ContactIDs {
		if err := c.store.LinkMeetingContact(ctx, m.ID, contactID); err != nil {
			return nil, domain.WrapOp("Meetings.Create", err)
		}
		m.ContactIDs = append(m.ContactIDs, contactID)
	}

	c.logger.Debug("meeting created", "user_id", userID, "id", m.ID)
	return m, nil
}

// List returns the user's meetings; establishmentID zero means all
// establishments, and from/to bound the meeting date when non-nil.
func (c *Meetings) List(ctx context.Context, userID, establishmentID int64, from, to *time.Time) ([]domain.Meeting, error) {
	return c.store.ListMeetings(ctx, userID, establishmentID, from, to)
}

// Get returns one meeting by id, or nil when it does not exist.
func (c *Meetings) Get(ctx context.Context, userID, id int64) (*domain.Meeting, error) {
	m, err := c.store.GetMeeting(ctx, userID, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return m, err
}

// MeetingUpdate holds the optional fields of an update. ContactsToAdd and
// ContactsToRemove adjust the meeting's contact links.
type MeetingUpdate struct {
	Name             *string
	Description      *string
	Date             *time.Time
	DurationMinutes  *int64
	Status           *string
	Address          *string
	OpportunityID    *int64
	ContactsToAdd    []int64
	ContactsToRemove []int64
}

// Update applies a partial update, returning the updated meeting or nil
// when it does not exist.
func (c *Meetings) Update(ctx context.Context, userID, id int64, upd MeetingUpdate) (*domain.Meeting, error) {
	m, err := c.Get(ctx, userID, id)
	if err != nil || m == nil {
		return nil, err
	}

	if upd.Name != nil {
		m.Name = *upd.Name
	}
	if upd.Description != nil {
		m.Description = *upd.Description
	}
	if upd.Date != nil {
		m.Date = *upd.Date
	}
	if upd.DurationMinutes != nil {
		m.DurationMinutes = int(*upd.DurationMinutes)
	}
	if upd.Status != nil {
		m.Status = *upd.Status
	}
	if upd.Address != nil {
		m.Address = *upd.Address
	}
	if upd.OpportunityID != nil {
		m.OpportunityID = *upd.OpportunityID
	}

	if err := c.store.UpdateMeeting(ctx, m); err != nil {
		return nil, domain.WrapOp("Meetings.Update", err)
	}

	for _, contactID := range upd.ContactsToAdd {
		if err := c.store.LinkMeetingContact(ctx, id, contactID); err != nil {
			return nil, domain.WrapOp("Meetings.Update", err)
		}
	}
	for _, contactID := range upd.ContactsToRemove {
		if err := c.store.UnlinkMeetingContact(ctx, id, contactID); err != nil {
			return nil, domain.WrapOp("Meetings.Update", err)
		}
	}

	// Re-read so the contact list reflects link changes.
	if len(upd.ContactsToAdd) > 0 || len(upd.ContactsToRemove) > 0 {
		return c.Get(ctx, userID, id)
	}
	return m, nil
}

// Delete soft-deletes a meeting, returning the deleted record or nil when
// it does not exist.
func (c *Meetings) Delete(ctx context.Context, userID, id int64) (*domain.Meeting, error) {
	m, err := c.Get(ctx, userID, id)
	if err != nil || m == nil {
		return nil, err
	}

	m.Deleted = true
	if err := c.store.UpdateMeeting(ctx, m); err != nil {
		return nil, domain.WrapOp("Meetings.Delete", err)
	}
	return m, nil
}
