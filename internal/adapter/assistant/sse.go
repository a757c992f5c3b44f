package assistant

import (
	"bufio"
	"io"
	"strings"
)

// sseEvent is one server-sent event: the event name and its data payload.
// Multi-line data fields are joined with newlines per the SSE format.
type sseEvent struct {
	Event string
	Data  string
}

// sseScanner reads server-sent events from a response body.
type sseScanner struct {
	scanner *bufio.Scanner
}

func newSSEScanner(r io.Reader) *sseScanner {
	sc := bufio.NewScanner(r)
	// Run payloads with large tool schemas can exceed the default buffer.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseScanner{scanner: sc}
}

// Next returns the next event, or io.EOF when the stream ends. The
// terminal "[DONE]" marker is reported as a normal event; callers decide
// when to stop.
func (s *sseScanner) Next() (sseEvent, error) {
	var ev sseEvent
	var data []string

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if len(data) > 0 || ev.Event != "" {
				ev.Data = strings.Join(data, "\n")
				return ev, nil
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "event:"):
			ev.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
		// Comment lines and unknown fields are ignored.
	}

	if err := s.scanner.Err(); err != nil {
		return sseEvent{}, err
	}
	if len(data) > 0 || ev.Event != "" {
		ev.Data = strings.Join(data, "\n")
		return ev, nil
	}
	return sseEvent{}, io.EOF
}
