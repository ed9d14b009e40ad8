package scanner

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"

	"EMAScan/internal/domain/models"
	"EMAScan/pkg/logger"
)

// eventStream decodes a text/event-stream body into StreamEvents.
type eventStream struct {
	body io.ReadCloser
	r    *bufio.Reader
	log  *logger.Logger
	once sync.Once
}

func newEventStream(body io.ReadCloser, log *logger.Logger) *eventStream {
	return &eventStream{body: body, r: bufio.NewReader(body), log: log}
}

// Next blocks until the next complete event. It returns io.EOF when the server ends the stream.
// Frames that are not valid JSON are logged and skipped.
func (s *eventStream) Next() (models.StreamEvent, error) {
	var (
		data  []string
		event string
	)
	for {
		line, err := s.r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) && len(data) > 0 {
				if ev, ok := s.decode(event, data); ok {
					return ev, nil
				}
			}
			return models.StreamEvent{}, err
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if len(data) == 0 {
				event = ""
				continue
			}
			if ev, ok := s.decode(event, data); ok {
				return ev, nil
			}
			data, event = data[:0], ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "data":
			data = append(data, value)
		case "event":
			event = value
		}
	}
}

func (s *eventStream) decode(event string, data []string) (models.StreamEvent, bool) {
	var ev models.StreamEvent
	raw := strings.Join(data, "\n")
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		s.log.Warn("malformed stream frame", logger.Error(err), logger.Int("bytes", len(raw)))
		return ev, false
	}
	if ev.Type == "" && event != "" {
		ev.Type = models.StreamEventType(event)
	}
	return ev, true
}

// Close releases the underlying connection. It is safe to call more than once.
func (s *eventStream) Close() error {
	var err error
	s.once.Do(func() { err = s.body.Close() })
	return err
}
