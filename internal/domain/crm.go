package domain

import (
	"context"
	"time"
)

// Establishment is a customer company registered by a user.
type Establishment struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Industry    string `json:"industry"`
	Deleted     bool   `json:"-"`
}

// Contact is a person belonging to an establishment.
type Contact struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"user_id"`
	EstablishmentID int64  `json:"establishment_id"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Deleted         bool   `json:"-"`
}

// Task is a to-do item attached to an establishment.
type Task struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	EstablishmentID int64      `json:"establishment_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	Completed       bool       `json:"completed"`
	Deleted         bool       `json:"-"`
}

// Opportunity is a potential sale attached to an establishment.
type Opportunity struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	EstablishmentID int64      `json:"establishment_id"`
	Product         string     `json:"product,omitempty"`
	CloseDate       *time.Time `json:"close_date,omitempty"`
	Price           float64    `json:"price,omitempty"`
	Stage           string     `json:"stage,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	Deleted         bool       `json:"-"`
}

// Meeting statuses.
const (
	MeetingPending   = "pending"
	MeetingCompleted = "completed"
	MeetingCancelled = "cancelled"
)

// Meeting is a scheduled appointment with one or more contacts.
type Meeting struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	EstablishmentID int64     `json:"establishment_id"`
	OpportunityID   int64     `json:"opportunity_id,omitempty"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Address         string    `json:"address,omitempty"`
	ContactIDs      []int64   `json:"contact_ids,omitempty"`
	Deleted         bool      `json:"-"`
}

// Note is free-form text attached to an establishment.
type Note struct {
	ID              int64  `json:"id"`
	EstablishmentID int64  `json:"establishment_id"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	Deleted         bool   `json:"-"`
}

// NoteSummary is the trimmed projection returned by list-summarized.
type NoteSummary struct {
	ID              int64  `json:"id"`
	EstablishmentID int64  `json:"establishment_id"`
	Title           string `json:"title"`
}

// EstablishmentStore persists establishments. List excludes soft-deleted rows.
type EstablishmentStore interface {
	CreateEstablishment(ctx context.Context, e *Establishment) error
	ListEstablishments(ctx context.Context, userID int64) ([]Establishment, error)
	GetEstablishment(ctx context.Context, userID, id int64) (*Establishment, error)
	GetEstablishmentByName(ctx context.Context, userID int64, name string) (*Establishment, error)
	UpdateEstablishment(ctx context.Context, e *Establishment) error
}

// ContactStore persists contacts.
type ContactStore interface {
	CreateContact(ctx context.Context, c *Contact) error
	ListContacts(ctx context.Context, userID int64, establishmentID int64) ([]Contact, error)
	GetContact(ctx context.Context, userID, id int64) (*Contact, error)
	UpdateContact(ctx context.Context, c *Contact) error
}

// TaskStore persists tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, t *Task) error
	ListTasks(ctx context.Context, userID int64, establishmentID int64) ([]Task, error)
	GetTask(ctx context.Context, userID, id int64) (*Task, error)
	UpdateTask(ctx context.Context, t *Task) error
}

// OpportunityStore persists opportunities.
type OpportunityStore interface {
	CreateOpportunity(ctx context.Context, o *Opportunity) error
	ListOpportunities(ctx context.Context, userID int64, establishmentID int64) ([]Opportunity, error)
	GetOpportunity(ctx context.Context, userID, id int64) (*Opportunity, error)
	UpdateOpportunity(ctx context.Context, o *Opportunity) error
}

// MeetingStore persists meetings and their contact links.
type MeetingStore interface {
	CreateMeeting(ctx context.Context, m *Meeting) error
	ListMeetings(ctx context.Context, userID int64, establishmentID int64, from, to *time.Time) ([]Meeting, error)
	GetMeeting(ctx context.Context, userID, id int64) (*Meeting, error)
	UpdateMeeting(ctx context.Context, m *Meeting) error
	LinkMeetingContact(ctx context.Context, meetingID, contactID int64) error
	UnlinkMeetingContact(ctx context.Context, meetingID, contactID int64) error
}

// NoteStore persists notes. Notes are scoped through their establishment,
// which is what carries the owning user.
type NoteStore interface {
	CreateNote(ctx context.Context, n *Note) error
	ListNotes(ctx context.Context, userID int64, establishmentID int64) ([]Note, error)
	GetNote(ctx context.Context, userID, id int64) (*Note, error)
	UpdateNote(ctx context.Context, n *Note) error
}

// CRMStore is the full persistence surface for CRM entities.
type CRMStore interface {
	EstablishmentStore
	ContactStore
	TaskStore
	OpportunityStore
	MeetingStore
	NoteStore
}
