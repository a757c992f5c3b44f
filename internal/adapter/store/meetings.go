package store

import (
	"context"
	"time"

	"binna-crm/internal/domain"
)

const meetingColumns = "id, user_id, establishment_id, opportunity_id, name, description, date, duration_minutes, status, address"

func (s *Store) CreateMeeting(ctx context.Context, m *domain.Meeting) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings
			(user_id, establishment_id, opportunity_id, name, description, date, duration_minutes, status, address)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.UserID, m.EstablishmentID, m.OpportunityID, m.Name, m.Description,
		formatTime(m.Date), m.DurationMinutes, m.Status, m.Address,
	)
	if err != nil {
		return err
	}
	m.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ListMeetings(ctx context.Context, userID, establishmentID int64, from, to *time.Time) ([]domain.Meeting, error) {
	query := "SELECT " + meetingColumns + " FROM meetings WHERE user_id = ? AND deleted = 0"
	args := []any{userID}
	if establishmentID != 0 {
		query += " AND establishment_id = ?"
		args = append(args, establishmentID)
	}
	if from != nil {
		query += " AND date >= ?"
		args = append(args, formatTime(*from))
	}
	if to != nil {
		query += " AND date < ?"
		args = append(args, formatTime(*to))
	}

	rows, err := s.db.QueryContext(ctx, query+" ORDER BY date", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Meeting
	for rows.Next() {
		var m domain.Meeting
		var date string
		if err := rows.Scan(&m.ID, &m.UserID, &m.EstablishmentID, &m.OpportunityID,
			&m.Name, &m.Description, &date, &m.DurationMinutes, &m.Status, &m.Address); err != nil {
			return nil, err
		}
		m.Date = parseTime(date)
		contacts, err := s.meetingContacts(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		m.ContactIDs = contacts
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetMeeting(ctx context.Context, userID, id int64) (*domain.Meeting, error) {
	var m domain.Meeting
	var date string
	err := s.db.QueryRowContext(ctx,
		"SELECT "+meetingColumns+" FROM meetings WHERE id = ? AND user_id = ? AND deleted = 0",
		id, userID,
	).Scan(&m.ID, &m.UserID, &m.EstablishmentID, &m.OpportunityID,
		&m.Name, &m.Description, &date, &m.DurationMinutes, &m.Status, &m.Address)
	if err != nil {
		return nil, notFoundOn(err)
	}
	m.Date = parseTime(date)

	contacts, err := s.meetingContacts(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	m.ContactIDs = contacts
	return &m, nil
}

func (s *Store) UpdateMeeting(ctx context.Context, m *domain.Meeting) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE meetings SET
			opportunity_id = ?, name = ?, description = ?, date = ?,
			duration_minutes = ?, status = ?, address = ?, deleted = ?
			WHERE id = ? AND user_id = ?`,
		m.OpportunityID, m.Name, m.Description, formatTime(m.Date),
		m.DurationMinutes, m.Status, m.Address, m.Deleted, m.ID, m.UserID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) LinkMeetingContact(ctx context.Context, meetingID, contactID int64) error {
	// Idempotent: re-linking an already linked contact is a no-op.
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO meeting_contacts (meeting_id, contact_id) VALUES (?, ?)",
		meetingID, contactID,
	)
	return err
}

func (s *Store) UnlinkMeetingContact(ctx context.Context, meetingID, contactID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM meeting_contacts WHERE meeting_id = ? AND contact_id = ?",
		meetingID, contactID,
	)
	return err
}

func (s *Store) meetingContacts(ctx context.Context, meetingID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT contact_id FROM meeting_contacts WHERE meeting_id = ? ORDER BY contact_id",
		meetingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
