// Package wire holds the HTTP plumbing shared by the LLM adapters:
// server-sent event parsing, newline-delimited JSON parsing and mapping
// provider error responses to domain.ModelError.
package wire

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// maxLine bounds a single SSE or NDJSON line.
const maxLine = 1 << 20

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Event is one server-sent event.
type Event struct {
	// Name is the "event:" field, empty for unnamed events.
	Name string

	// Data is the "data:" fields joined by newlines.
	Data string
}

// ReadSSE parses server-sent events from r and calls fn for each one.
// Parsing stops when fn returns false or an error, or at end of input.
func ReadSSE(r io.Reader, fn func(Event) (bool, error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLine)

	var ev Event
	var data []string
	dispatch := func() (bool, error) {
		if len(data) == 0 {
			ev = Event{}
			return true, nil
		}
		ev.Data = strings.Join(data, "\n")
		cont, err := fn(ev)
		ev, data = Event{}, data[:0]
		return cont, err
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			cont, err := dispatch()
			if err != nil || !cont {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.Name = value
		case "data":
			data = append(data, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	_, err := dispatch()
	return err
}

// ReadNDJSON calls fn with each non-blank line of r.
func ReadNDJSON(r io.Reader, fn func([]byte) (bool, error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLine)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		cont, err := fn(line)
		if err != nil || !cont {
			return err
		}
	}
	return scanner.Err()
}

// StatusError reads a non-2xx response into a ModelError.
// The body is not closed.
func StatusError(provider string, resp *http.Response) *domain.ModelError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return domain.NewModelError(provider, resp.StatusCode, ErrorMessage(body))
}

// ErrorMessage extracts the human-readable message from a provider error
// body. Known shapes are {"error":{"message":...}}, {"error":"..."} and
// {"message":...}; anything else is returned trimmed.
func ErrorMessage(body []byte) string {
	var probe struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &probe); err == nil {
		if len(probe.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(probe.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			var flat string
			if json.Unmarshal(probe.Error, &flat) == nil && flat != "" {
				return flat
			}
		}
		if probe.Message != "" {
			return probe.Message
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return "empty response body"
}
