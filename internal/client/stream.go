package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"

	"github.com/hashicorp/go-multierror"

	"gymmate-backend/internal/models"
)

// Outcome tells how ChatStream produced its text.
type Outcome int

const (
	// Streamed: text arrived as stream chunks.
	Streamed Outcome = iota
	// Fallback: the stream failed before any chunk and the whole reply was fetched instead.
	Fallback
	// Failed: both attempts failed and the apology was delivered.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Streamed:
		return "streamed"
	case Fallback:
		return "fallback"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// StreamResult reports a ChatStream call. Err is set for Failed, and for Streamed
// when the stream broke after some text was already delivered.
type StreamResult struct {
	Outcome Outcome
	Chunks  int
	Err     error
}

var (
	errStreamIncomplete = errors.New("stream ended without done marker")
	errNotEventStream   = errors.New("response is not an event stream")
	errEmptyStream      = errors.New("stream finished without any text")
)

// RemoteError is an error event sent inside the stream.
type RemoteError struct{ Message string }

func (e *RemoteError) Error() string { return "stream error: " + e.Message }

// ChatStream asks Pulse for a reply and hands text to onChunk as it arrives. If the
// stream cannot start, the whole reply is fetched and passed to onChunk once. If
// that fails too, onChunk receives ApologyMessage. Text already delivered is never
// repeated: once a chunk went out, a broken stream is not retried.
func (c *Client) ChatStream(ctx context.Context, messages []models.ChatMessage, onChunk func(string)) StreamResult {
	chunks, err := c.stream(ctx, messages, onChunk)
	if err == nil {
		return StreamResult{Outcome: Streamed, Chunks: chunks}
	}
	if chunks > 0 {
		c.logger.WarnContext(ctx, "pulse stream interrupted", "chunks", chunks, "error", err)
		return StreamResult{Outcome: Streamed, Chunks: chunks, Err: err}
	}

	c.logger.WarnContext(ctx, "pulse stream unavailable, falling back", "error", err)

	text, fbErr := c.chat(ctx, messages)
	if fbErr == nil {
		onChunk(text)
		return StreamResult{Outcome: Fallback, Chunks: 1}
	}

	c.logger.ErrorContext(ctx, "pulse fallback failed", "error", fbErr)
	onChunk(ApologyMessage)
	return StreamResult{Outcome: Failed, Chunks: 1, Err: multierror.Append(err, fbErr)}
}

// chat fetches a whole reply without streaming.
func (c *Client) chat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	var out models.ChatResponse
	if err := c.postJSON(ctx, pulseChatPath, models.ChatRequest{Messages: messages}, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

func (c *Client) stream(ctx context.Context, messages []models.ChatMessage, onChunk func(string)) (int, error) {
	req, err := c.newRequest(ctx, pulseChatPath, models.ChatRequest{Messages: messages, Stream: true})
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, readStatusError(resp)
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != "text/event-stream" {
		return 0, errNotEventStream
	}

	chunks := 0
	events := newEventReader(resp.Body)
	for {
		data, err := events.Next()
		if errors.Is(err, io.EOF) {
			return chunks, errStreamIncomplete
		}
		if err != nil {
			return chunks, err
		}

		var ev models.StreamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.WarnContext(ctx, "skipping malformed stream event", "data", string(data), "error", err)
			continue
		}

		switch {
		case ev.Error != "":
			return chunks, &RemoteError{Message: ev.Error}
		case ev.Done && chunks == 0:
			return 0, errEmptyStream
		case ev.Done:
			return chunks, nil
		case ev.Text != "":
			onChunk(ev.Text)
			chunks++
		}
	}
}

// eventReader splits a text/event-stream body into event payloads. Only data
// fields are kept; several data lines of one event are joined with "\n".
type eventReader struct {
	sc *bufio.Scanner
}

func newEventReader(r io.Reader) *eventReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &eventReader{sc: sc}
}

// Next returns the data of the next event, or io.EOF.
func (er *eventReader) Next() ([]byte, error) {
	var data [][]byte
	for er.sc.Scan() {
		line := bytes.TrimSuffix(er.sc.Bytes(), []byte("\r"))
		if len(line) == 0 {
			if len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
			continue
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		if string(field) != "data" {
			continue
		}
		value = bytes.TrimPrefix(value, []byte(" "))
		data = append(data, append([]byte(nil), value...))
	}
	if err := er.sc.Err(); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		return bytes.Join(data, []byte("\n")), nil
	}
	return nil, io.EOF
}
