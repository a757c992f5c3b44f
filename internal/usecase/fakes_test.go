package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"binna-crm/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider plays back scripted event streams: the first stream comes
// from StreamRun, each following one from StreamToolOutputs.
type fakeProvider struct {
	streams   [][]domain.RunEvent
	streamIdx int

	appended     []string
	instructions string
	submitted    [][]domain.ToolOutput
	usage        domain.RunUsage
	usageCalls   int
	usageErr     error
}

func (p *fakeProvider) CreateThread(context.Context) (string, error) {
	return "thread_1", nil
}

func (p *fakeProvider) RetrieveThread(_ context.Context, threadID string) (string, error) {
	if threadID != "thread_1" {
		return "", domain.ErrThreadNotFound
	}
	return threadID, nil
}

func (p *fakeProvider) AppendMessage(_ context.Context, _, _, content string) error {
	p.appended = append(p.appended, content)
	return nil
}

func (p *fakeProvider) ListMessages(context.Context, string) ([]domain.ThreadMessage, error) {
	return nil, nil
}

func (p *fakeProvider) nextStream() (<-chan domain.RunEvent, error) {
	if p.streamIdx >= len(p.streams) {
		return nil, errors.New("no more scripted streams")
	}
	events := p.streams[p.streamIdx]
	p.streamIdx++

	ch := make(chan domain.RunEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (p *fakeProvider) StreamRun(_ context.Context, _, _, instructions string) (<-chan domain.RunEvent, error) {
	p.instructions = instructions
	return p.nextStream()
}

func (p *fakeProvider) StreamToolOutputs(_ context.Context, _, _ string, outputs []domain.ToolOutput) (<-chan domain.RunEvent, error) {
	p.submitted = append(p.submitted, outputs)
	return p.nextStream()
}

func (p *fakeProvider) RetrieveRunUsage(context.Context, string, string) (domain.RunUsage, error) {
	p.usageCalls++
	return p.usage, p.usageErr
}

// fakeInvoker records the calls it receives and answers with canned
// successful records.
type fakeInvoker struct {
	calls []domain.ToolCall
}

func (i *fakeInvoker) Invoke(_ context.Context, _ int64, call domain.ToolCall) domain.InvocationRecord {
	i.calls = append(i.calls, call)
	return domain.InvocationRecord{
		ToolCallID:   call.ID,
		FunctionName: call.Name,
		Success:      true,
		Message:      "Successfully executed tool",
	}
}

// fakeUsageStore is an in-memory UsageStore.
type fakeUsageStore struct {
	windows []domain.UsageWindow
	added   []domain.RunUsage
	addedTo []int64
}

func (s *fakeUsageStore) CreateWindow(_ context.Context, w *domain.UsageWindow) error {
	w.ID = int64(len(s.windows) + 1)
	s.windows = append(s.windows, *w)
	return nil
}

func (s *fakeUsageStore) WindowsContaining(_ context.Context, userID int64, t time.Time) ([]domain.UsageWindow, error) {
	var out []domain.UsageWindow
	for _, w := range s.windows {
		if w.UserID == userID && w.Contains(t) {
			out = append(out, w)
		}
	}
	// Latest start period first, as the real store orders them.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].StartPeriod.After(out[i].StartPeriod) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (s *fakeUsageStore) AddUsage(_ context.Context, windowID, _ int64, usage domain.RunUsage) error {
	s.added = append(s.added, usage)
	s.addedTo = append(s.addedTo, windowID)
	for i := range s.windows {
		if s.windows[i].ID == windowID {
			s.windows[i].CurrentTotalTokens += usage.TotalTokens
			s.windows[i].CurrentPromptTokens += usage.PromptTokens
			s.windows[i].CurrentCompletionTokens += usage.CompletionTokens
			s.windows[i].CurrentCachedTokens += usage.CachedTokens
		}
	}
	return nil
}

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	nextID int64
	users  map[int64]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*domain.User)}
}

func (s *fakeUserStore) CreateUser(_ context.Context, u *domain.User) error {
	s.nextID++
	u.ID = s.nextID
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *fakeUserStore) GetUser(_ context.Context, id int64) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeUserStore) ListUsers(context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

// fakeSessionStore is an in-memory SessionStore.
type fakeSessionStore struct {
	sessions map[string]*domain.UserSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*domain.UserSession)}
}

func (s *fakeSessionStore) CreateSession(_ context.Context, sess *domain.UserSession) error {
	cp := *sess
	s.sessions[sess.Token] = &cp
	return nil
}

func (s *fakeSessionStore) GetSession(_ context.Context, token string) (*domain.UserSession, error) {
	sess, ok := s.sessions[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeSessionStore) DeleteSession(_ context.Context, token string) error {
	delete(s.sessions, token)
	return nil
}
