package store

import (
	"context"
	"database/sql"

	"binna-crm/internal/domain"
)

func (s *Store) CreateEstablishment(ctx context.Context, e *domain.Establishment) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO establishments (user_id, name, description, industry) VALUES (?, ?, ?, ?)",
		e.UserID, e.Name, e.Description, e.Industry,
	)
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ListEstablishments(ctx context.Context, userID int64) ([]domain.Establishment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, name, description, industry FROM establishments WHERE user_id = ? AND deleted = 0 ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Establishment
	for rows.Next() {
		var e domain.Establishment
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.Description, &e.Industry); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetEstablishment(ctx context.Context, userID, id int64) (*domain.Establishment, error) {
	return scanEstablishment(s.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, description, industry FROM establishments WHERE id = ? AND user_id = ? AND deleted = 0",
		id, userID,
	))
}

func (s *Store) GetEstablishmentByName(ctx context.Context, userID int64, name string) (*domain.Establishment, error) {
	return scanEstablishment(s.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, description, industry FROM establishments WHERE user_id = ? AND deleted = 0 AND name = ? COLLATE NOCASE",
		userID, name,
	))
}

func scanEstablishment(row *sql.Row) (*domain.Establishment, error) {
	var e domain.Establishment
	if err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.Description, &e.Industry); err != nil {
		return nil, notFoundOn(err)
	}
	return &e, nil
}

func (s *Store) UpdateEstablishment(ctx context.Context, e *domain.Establishment) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE establishments SET name = ?, description = ?, industry = ?, deleted = ? WHERE id = ? AND user_id = ?",
		e.Name, e.Description, e.Industry, e.Deleted, e.ID, e.UserID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) CreateContact(ctx context.Context, c *domain.Contact) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO contacts (user_id, establishment_id, name, role, email, phone) VALUES (?, ?, ?, ?, ?, ?)",
		c.UserID, c.EstablishmentID, c.Name, c.Role, c.Email, c.Phone,
	)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ListContacts(ctx context.Context, userID, establishmentID int64) ([]domain.Contact, error) {
	query := "SELECT id, user_id, establishment_id, name, role, email, phone FROM contacts WHERE user_id = ? AND deleted = 0"
	args := []any{userID}
	if establishmentID != 0 {
		query += " AND establishment_id = ?"
		args = append(args, establishmentID)
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.EstablishmentID, &c.Name, &c.Role, &c.Email, &c.Phone); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetContact(ctx context.Context, userID, id int64) (*domain.Contact, error) {
	var c domain.Contact
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, establishment_id, name, role, email, phone FROM contacts WHERE id = ? AND user_id = ? AND deleted = 0",
		id, userID,
	).Scan(&c.ID, &c.UserID, &c.EstablishmentID, &c.Name, &c.Role, &c.Email, &c.Phone)
	if err != nil {
		return nil, notFoundOn(err)
	}
	return &c, nil
}

func (s *Store) UpdateContact(ctx context.Context, c *domain.Contact) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE contacts SET name = ?, role = ?, email = ?, phone = ?, deleted = ? WHERE id = ? AND user_id = ?",
		c.Name, c.Role, c.Email, c.Phone, c.Deleted, c.ID, c.UserID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) CreateTask(ctx context.Context, t *domain.Task) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (user_id, establishment_id, name, description, due_date, completed) VALUES (?, ?, ?, ?, ?, ?)",
		t.UserID, t.EstablishmentID, t.Name, t.Description, nullTime(t.DueDate), t.Completed,
	)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ListTasks(ctx context.Context, userID, establishmentID int64) ([]domain.Task, error) {
	query := "SELECT id, user_id, establishment_id, name, description, due_date, completed FROM tasks WHERE user_id = ? AND deleted = 0"
	args := []any{userID}
	if establishmentID != 0 {
		query += " AND establishment_id = ?"
		args = append(args, establishmentID)
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		var t domain.Task
		var due sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.EstablishmentID, &t.Name, &t.Description, &due, &t.Completed); err != nil {
			return nil, err
		}
		t.DueDate = parseNullTime(due)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTask(ctx context.Context, userID, id int64) (*domain.Task, error) {
	var t domain.Task
	var due sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, establishment_id, name, description, due_date, completed FROM tasks WHERE id = ? AND user_id = ? AND deleted = 0",
		id, userID,
	).Scan(&t.ID, &t.UserID, &t.EstablishmentID, &t.Name, &t.Description, &due, &t.Completed)
	if err != nil {
		return nil, notFoundOn(err)
	}
	t.DueDate = parseNullTime(due)
	return &t, nil
}

func (s *Store) UpdateTask(ctx context.Context, t *domain.Task) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET name = ?, description = ?, due_date = ?, completed = ?, deleted = ? WHERE id = ? AND user_id = ?",
		t.Name, t.Description, nullTime(t.DueDate), t.Completed, t.Deleted, t.ID, t.UserID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) CreateOpportunity(ctx context.Context, o *domain.Opportunity) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO opportunities (user_id, establishment_id, product, close_date, price, stage, notes) VALUES (?, ?, ?, ?, ?, ?, ?)",
		o.UserID, o.EstablishmentID, o.Product, nullTime(o.CloseDate), o.Price, o.Stage, o.Notes,
	)
	if err != nil {
		return err
	}
	o.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ListOpportunities(ctx context.Context, userID, establishmentID int64) ([]domain.Opportunity, error) {
	query := "SELECT id, user_id, establishment_id, product, close_date, price, stage, notes FROM opportunities WHERE user_id = ? AND deleted = 0"
	args := []any{userID}
	if establishmentID != 0 {
		query += " AND establishment_id = ?"
		args = append(args, establishmentID)
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Opportunity
	for rows.Next() {
		var o domain.Opportunity
		var closeDate sql.NullString
		if err := rows.Scan(&o.ID, &o.UserID, &o.EstablishmentID, &o.Product, &closeDate, &o.Price, &o.Stage, &o.Notes); err != nil {
			return nil, err
		}
		o.CloseDate = parseNullTime(closeDate)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) GetOpportunity(ctx context.Context, userID, id int64) (*domain.Opportunity, error) {
	var o domain.Opportunity
	var closeDate sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, establishment_id, product, close_date, price, stage, notes FROM opportunities WHERE id = ? AND user_id = ? AND deleted = 0",
		id, userID,
	).Scan(&o.ID, &o.UserID, &o.EstablishmentID, &o.Product, &closeDate, &o.Price, &o.Stage, &o.Notes)
	if err != nil {
		return nil, notFoundOn(err)
	}
	o.CloseDate = parseNullTime(closeDate)
	return &o, nil
}

func (s *Store) UpdateOpportunity(ctx context.Context, o *domain.Opportunity) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE opportunities SET product = ?, close_date = ?, price = ?, stage = ?, notes = ?, deleted = ? WHERE id = ? AND user_id = ?",
		o.Product, nullTime(o.CloseDate), o.Price, o.Stage, o.Notes, o.Deleted, o.ID, o.UserID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) CreateNote(ctx context.Context, n *domain.Note) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO notes (establishment_id, title, content) VALUES (?, ?, ?)",
		n.EstablishmentID, n.Title, n.Content,
	)
	if err != nil {
		return err
	}
	n.ID, err = res.LastInsertId()
	return err
}

// ListNotes scopes notes through their establishment's owner.
func (s *Store) ListNotes(ctx context.Context, userID, establishmentID int64) ([]domain.Note, error) {
	query := `SELECT n.id, n.establishment_id, n.title, n.content
		FROM notes n JOIN establishments e ON e.id = n.establishment_id
		WHERE e.user_id = ? AND n.deleted = 0`
	args := []any{userID}
	if establishmentID != 0 {
		query += " AND n.establishment_id = ?"
		args = append(args, establishmentID)
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY n.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.EstablishmentID, &n.Title, &n.Content); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) GetNote(ctx context.Context, userID, id int64) (*domain.Note, error) {
	var n domain.Note
	err := s.db.QueryRowContext(ctx,
		`SELECT n.id, n.establishment_id, n.title, n.content
			FROM notes n JOIN establishments e ON e.id = n.establishment_id
			WHERE n.id = ? AND e.user_id = ? AND n.deleted = 0`,
		id, userID,
	).Scan(&n.ID, &n.EstablishmentID, &n.Title, &n.Content)
	if err != nil {
		return nil, notFoundOn(err)
	}
	return &n, nil
}

func (s *Store) UpdateNote(ctx context.Context, n *domain.Note) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notes SET title = ?, content = ?, deleted = ? WHERE id = ?",
		n.Title, n.Content, n.Deleted, n.ID,
	)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
