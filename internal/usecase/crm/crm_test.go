package crm

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binna-crm/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory CRMStore for controller tests.
type fakeStore struct {
	nextID         int64
	establishments map[int64]*domain.Establishment
	contacts       map[int64]*domain.Contact
	tasks          map[int64]*domain.Task
	opportunities  map[int64]*domain.Opportunity
	meetings       map[int64]*domain.Meeting
	meetingLinks   map[int64][]int64
	notes          map[int64]*domain.Note
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		establishments: make(map[int64]*domain.Establishment),
		contacts:       make(map[int64]*domain.Contact),
		tasks:          make(map[int64]*domain.Task),
		opportunities:  make(map[int64]*domain.Opportunity),
		meetings:       make(map[int64]*domain.Meeting),
		meetingLinks:   make(map[int64][]int64),
		notes:          make(map[int64]*domain.Note),
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) CreateEstablishment(_ context.Context, e *domain.Establishment) error {
	e.ID = s.id()
	cp := *e
	s.establishments[e.ID] = &cp
	return nil
}

func (s *fakeStore) ListEstablishments(_ context.Context, userID int64) ([]domain.Establishment, error) {
	var out []domain.Establishment
	for _, e := range s.establishments {
		if e.UserID == userID && !e.Deleted {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeStore) GetEstablishment(_ context.Context, userID, id int64) (*domain.Establishment, error) {
	e, ok := s.establishments[id]
	if !ok || e.UserID != userID || e.Deleted {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *fakeStore) GetEstablishmentByName(_ context.Context, userID int64, name string) (*domain.Establishment, error) {
	for _, e := range s.establishments {
		if e.UserID == userID && !e.Deleted && strings.EqualFold(e.Name, name) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) UpdateEstablishment(_ context.Context, e *domain.Establishment) error {
	cp := *e
	s.establishments[e.ID] = &cp
	return nil
}

func (s *fakeStore) CreateContact(_ context.Context, c *domain.Contact) error {
	c.ID = s.id()
	cp := *c
	s.contacts[c.ID] = &cp
	return nil
}

func (s *fakeStore) ListContacts(_ context.Context, userID, establishmentID int64) ([]domain.Contact, error) {
	var out []domain.Contact
	for _, c := range s.contacts {
		if c.UserID != userID || c.Deleted {
			continue
		}
		if establishmentID != 0 && c.EstablishmentID != establishmentID {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeStore) GetContact(_ context.Context, userID, id int64) (*domain.Contact, error) {
	c, ok := s.contacts[id]
	if !ok || c.UserID != userID || c.Deleted {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeStore) UpdateContact(_ context.Context, c *domain.Contact) error {
	cp := *c
	s.contacts[c.ID] = &cp
	return nil
}

func (s *fakeStore) CreateTask(_ context.Context, t *domain.Task) error {
	t.ID = s.id()
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *fakeStore) ListTasks(_ context.Context, userID, establishmentID int64) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range s.tasks {
		if t.UserID != userID || t.Deleted {
			continue
		}
		if establishmentID != 0 && t.EstablishmentID != establishmentID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *fakeStore) GetTask(_ context.Context, userID, id int64) (*domain.Task, error) {
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID || t.Deleted {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) UpdateTask(_ context.Context, t *domain.Task) error {
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *fakeStore) CreateOpportunity(_ context.Context, o *domain.Opportunity) error {
	o.ID = s.id()
	cp := *o
	s.opportunities[o.ID] = &cp
	return nil
}

func (s *fakeStore) ListOpportunities(_ context.Context, userID, establishmentID int64) ([]domain.Opportunity, error) {
	var out []domain.Opportunity
	for _, o := range s.opportunities {
		if o.UserID != userID || o.Deleted {
			continue
		}
		if establishmentID != 0 && o.EstablishmentID != establishmentID {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (s *fakeStore) GetOpportunity(_ context.Context, userID, id int64) (*domain.Opportunity, error) {
	o, ok := s.opportunities[id]
	if !ok || o.UserID != userID || o.Deleted {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeStore) UpdateOpportunity(_ context.Context, o *domain.Opportunity) error {
	cp := *o
	s.opportunities[o.ID] = &cp
	return nil
}

func (s *fakeStore) CreateMeeting(_ context.Context, m *domain.Meeting) error {
	m.ID = s.id()
	cp := *m
	s.meetings[m.ID] = &cp
	return nil
}

func (s *fakeStore) ListMeetings(_ context.Context, userID, establishmentID int64, from, to *time.Time) ([]domain.Meeting, error) {
	var out []domain.Meeting
	for _, m := range s.meetings {
		if m.UserID != userID || m.Deleted {
			continue
		}
		if establishmentID != 0 && m.EstablishmentID != establishmentID {
			continue
		}
		if from != nil && m.Date.Before(*from) {
			continue
		}
		if to != nil && !m.Date.Before(*to) {
			continue
		}
		cp := *m
		cp.ContactIDs = append([]int64(nil), s.meetingLinks[m.ID]...)
		out = append(out, cp)
	}
	return out, nil
}

func (s *fakeStore) GetMeeting(_ context.Context, userID, id int64) (*domain.Meeting, error) {
	m, ok := s.meetings[id]
	if !ok || m.UserID != userID || m.Deleted {
		return nil, domain.ErrNotFound
	}
	cp := *m
	cp.ContactIDs = append([]int64(nil), s.meetingLinks[id]...)
	return &cp, nil
}

func (s *fakeStore) UpdateMeeting(_ context.Context, m *domain.Meeting) error {
	cp := *m
	s.meetings[m.ID] = &cp
	return nil
}

func (s *fakeStore) LinkMeetingContact(_ context.Context, meetingID, contactID int64) error {
	s.meetingLinks[meetingID] = append(s.meetingLinks[meetingID], contactID)
	return nil
}

func (s *fakeStore) UnlinkMeetingContact(_ context.Context, meetingID, contactID int64) error {
	links := s.meetingLinks[meetingID]
	out := links[:0]
	for _, id := range links {
		if id != contactID {
			out = append(out, id)
		}
	}
	s.meetingLinks[meetingID] = out
	return nil
}

func (s *fakeStore) CreateNote(_ context.Context, n *domain.Note) error {
	n.ID = s.id()
	cp := *n
	s.notes[n.ID] = &cp
	return nil
}

func (s *fakeStore) ListNotes(_ context.Context, _ int64, establishmentID int64) ([]domain.Note, error) {
	var out []domain.Note
	for _, n := range s.notes {
		if n.Deleted {
			continue
		}
		if establishmentID != 0 && n.EstablishmentID != establishmentID {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (s *fakeStore) GetNote(_ context.Context, _ int64, id int64) (*domain.Note, error) {
	n, ok := s.notes[id]
	if !ok || n.Deleted {
		return nil, domain.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *fakeStore) UpdateNote(_ context.Context, n *domain.Note) error {
	cp := *n
	s.notes[n.ID] = &cp
	return nil
}

func TestEstablishmentCreateDeduplicatesByFuzzyName(t *testing.T) {
	ctx := context.Background()
	c := NewEstablishments(newFakeStore(), testLogger())

	first, err := c.Create(ctx, 1, "Acme Corporation", "widgets", "manufacturing")
	require.NoError(t, err)

	// A fuzzy match on the existing name must return it instead of
	// creating a second record.
	again, err := c.Create(ctx, 1, "acme", "other", "other")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Acme Corporation", again.Name)

	all, err := c.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEstablishmentGetByName(t *testing.T) {
	ctx := context.Background()
	c := NewEstablishments(newFakeStore(), testLogger())

	_, err := c.Create(ctx, 1, "Globex", "", "")
	require.NoError(t, err)

	exact, err := c.GetByName(ctx, 1, "Globex", false)
	require.NoError(t, err)
	require.NotNil(t, exact)

	// Substring only matches with fuzzy enabled.
	miss, err := c.GetByName(ctx, 1, "glob", false)
	require.NoError(t, err)
	assert.Nil(t, miss)

	fuzzy, err := c.GetByName(ctx, 1, "glob", true)
	require.NoError(t, err)
	require.NotNil(t, fuzzy)
	assert.Equal(t, exact.ID, fuzzy.ID)
}

func TestEstablishmentSoftDelete(t *testing.T) {
	ctx := context.Background()
	c := NewEstablishments(newFakeStore(), testLogger())

	e, err := c.Create(ctx, 1, "Initech", "", "")
	require.NoError(t, err)

	deleted, err := c.Delete(ctx, 1, e.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.True(t, deleted.Deleted)

	// Gone from reads, and deleting again finds nothing.
	got, err := c.Get(ctx, 1, e.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	again, err := c.Delete(ctx, 1, e.ID)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestEstablishmentPartialUpdate(t *testing.T) {
	ctx := context.Background()
	c := NewEstablishments(newFakeStore(), testLogger())

	e, err := c.Create(ctx, 1, "Initech", "software", "tech")
	require.NoError(t, err)

	industry := "fintech"
	updated, err := c.Update(ctx, 1, e.ID, EstablishmentUpdate{Industry: &industry})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Initech", updated.Name)
	assert.Equal(t, "software", updated.Description)
	assert.Equal(t, "fintech", updated.Industry)

	missing, err := c.Update(ctx, 1, 9999, EstablishmentUpdate{Industry: &industry})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEstablishmentScopedByUser(t *testing.T) {
	ctx := context.Background()
	c := NewEstablishments(newFakeStore(), testLogger())

	e, err := c.Create(ctx, 1, "Acme", "", "")
	require.NoError(t, err)

	other, err := c.Get(ctx, 2, e.ID)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestContactListFilter(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	c := NewContacts(store, testLogger())

	_, err := c.Create(ctx, 1, 10, "Alice", "CTO", "alice@acme.test", "111")
	require.NoError(t, err)
	_, err = c.Create(ctx, 1, 20, "Bob", "CEO", "bob@globex.test", "222")
	require.NoError(t, err)

	all, err := c.List(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := c.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "Alice", scoped[0].Name)
}

func TestTaskCreateWithDueDate(t *testing.T) {
	ctx := context.Background()
	c := NewTasks(newFakeStore(), testLogger())

	due := time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)
	task, err := c.Create(ctx, 1, 10, "follow up", "call Alice", &due, false)
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(due))
	assert.False(t, task.Completed)

	done := true
	updated, err := c.Update(ctx, 1, task.ID, TaskUpdate{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "follow up", updated.Name)
}

func TestOpportunityUpdateStageAndPrice(t *testing.T) {
	ctx := context.Background()
	c := NewOpportunities(newFakeStore(), testLogger())

	o, err := c.Create(ctx, 1, 10, OpportunityInput{Product: "licenses", Price: 1000})
	require.NoError(t, err)

	stage, price := "negotiation", 1500.0
	updated, err := c.Update(ctx, 1, o.ID, OpportunityUpdate{Stage: &stage, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "negotiation", updated.Stage)
	assert.Equal(t, 1500.0, updated.Price)
	assert.Equal(t, "licenses", updated.Product)
}

func TestMeetingCreateLinksContacts(t *testing.T) {
	ctx := context.Background()
	c := NewMeetings(newFakeStore(), testLogger())

	m, err := c.Create(ctx, 1, 10, MeetingInput{
		Name:            "kickoff",
		Date:            time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		ContactIDs:      []int64{3, 4},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MeetingPending, m.Status)
	assert.Equal(t, []int64{3, 4}, m.ContactIDs)
}

func TestMeetingUpdateContactLinks(t *testing.T) {
	ctx := context.Background()
	c := NewMeetings(newFakeStore(), testLogger())

	m, err := c.Create(ctx, 1, 10, MeetingInput{
		Name:            "kickoff",
		Date:            time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		ContactIDs:      []int64{3},
	})
	require.NoError(t, err)

	status := domain.MeetingCompleted
	updated, err := c.Update(ctx, 1, m.ID, MeetingUpdate{
		Status:           &status,
		ContactsToAdd:    []int64{4, 5},
		ContactsToRemove: []int64{3},
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, domain.MeetingCompleted, updated.Status)
	assert.ElementsMatch(t, []int64{4, 5}, updated.ContactIDs)
}

func TestMeetingListDateRange(t *testing.T) {
	ctx := context.Background()
	c := NewMeetings(newFakeStore(), testLogger())

	for day := 1; day <= 3; day++ {
		_, err := c.Create(ctx, 1, 10, MeetingInput{
			Name:            "standup",
			Date:            time.Date(2026, 9, day, 9, 0, 0, 0, time.UTC),
			DurationMinutes: 15,
		})
		require.NoError(t, err)
	}

	from := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	got, err := c.List(ctx, 1, 0, &from, &to)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Date.Day())
}

func TestNoteSummariesOmitContent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.establishments[10] = &domain.Establishment{ID: 10, UserID: 1, Name: "acme"}
	c := NewNotes(store, store, testLogger())

	n, err := c.Create(ctx, 1, 10, "pricing", "long discussion about pricing tiers")
	require.NoError(t, err)
	require.NotNil(t, n)

	summaries, err := c.ListSummaries(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, n.ID, summaries[0].ID)
	assert.Equal(t, "pricing", summaries[0].Title)

	full, err := c.Get(ctx, 1, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "long discussion about pricing tiers", full.Content)
}

func TestNoteCreateRejectsForeignEstablishment(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.establishments[10] = &domain.Establishment{ID: 10, UserID: 1, Name: "acme"}
	c := NewNotes(store, store, testLogger())

	// User 2 names user 1's establishment: no note, no error, like any
	// other lookup miss.
	n, err := c.Create(ctx, 2, 10, "intrusion", "should never be stored")
	require.NoError(t, err)
	assert.Nil(t, n)

	ownerNotes, err := c.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, ownerNotes)

	// The owner can still create under the same establishment.
	n, err = c.Create(ctx, 1, 10, "pricing", "tier discussion")
	require.NoError(t, err)
	require.NotNil(t, n)
}
