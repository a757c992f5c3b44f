package gateway

import (
	"net/http"

	"binna-crm/internal/domain"
)

type registerRequest struct {
	Username            string `json:"username"`
	Email               string `json:"email"`
	Password            string `json:"password"`
	FirstName           string `json:"first_name"`
	BusinessDescription string `json:"business_description"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	u, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password, req.FirstName, req.BusinessDescription)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	sess, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChatCreate(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())

	threadID, err := s.conversations.Open(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"thread_id": threadID})
}

type sendRequest struct {
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
}

// handleChatSend streams the assistant's reply as plain text chunks,
// flushed as they arrive. After the visible text, a single trailer chunk
// carries the turn's tool-invocation records when tools ran.
func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())

	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.ThreadID == "" || req.Message == "" {
		writeDomainError(w, domain.NewDomainError("gateway.send", domain.ErrInvalidInput, "thread_id and message are required"))
		return
	}

	chunks, err := s.turns.Stream(r.Context(), user, req.ThreadID, req.Message)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	for chunk := range chunks {
		if chunk.Err != nil {
			// Headers are sent; the best left is to log and end the stream.
			s.logger.Error("turn failed mid-stream",
				"user_id", user.ID, "thread_id", req.ThreadID, "error", chunk.Err)
			return
		}
		if _, err := w.Write([]byte(chunk.Text)); err != nil {
			s.logger.Debug("client went away", "thread_id", req.ThreadID)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) handleChatRetrieve(w http.ResponseWriter, r *http.Request) {
	threadID := r.URL.Query().Get("thread_id")
	if threadID == "" {
		writeDomainError(w, domain.NewDomainError("gateway.retrieve", domain.ErrInvalidInput, "thread_id is required"))
		return
	}

	if _, err := s.conversations.Resolve(r.Context(), threadID); err != nil {
		writeDomainError(w, err)
		return
	}
	msgs, err := s.conversations.History(r.Context(), threadID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"thread_id": threadID, "messages": msgs})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())

	window, err := s.guard.ActiveWindow(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, window)
}
