package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymmate-backend/internal/models"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithLogger(quietLogger), WithTimeout(5*time.Second))
}

func decodeChatRequest(t *testing.T, r *http.Request) models.ChatRequest {
	t.Helper()
	var req models.ChatRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func writeEvents(w http.ResponseWriter, events ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, ev := range events {
		fmt.Fprintf(w, "data: %s\n\n", ev)
	}
}

var conversation = []models.ChatMessage{{Role: models.RoleUser, Content: "How much protein?"}}

func TestChatStream_Streamed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeChatRequest(t, r)
		assert.True(t, req.Stream)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		writeEvents(w, `{"text":"Aim for "}`, `{"text":"1.6 g/kg."}`, `{"done":true}`)
	})

	var got []string
	res := c.ChatStream(t.Context(), conversation, func(s string) { got = append(got, s) })

	assert.Equal(t, Streamed, res.Outcome)
	assert.NoError(t, res.Err)
	assert.Equal(t, 2, res.Chunks)
	assert.Equal(t, []string{"Aim for ", "1.6 g/kg."}, got)
}

func TestChatStream_SkipsMalformedEvents(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, ": keepalive\n\ndata: {not json}\n\ndata: {\"text\":\"ok\"}\r\n\r\ndata: {\"done\":true}\n\n")
	})

	var got []string
	res := c.ChatStream(t.Context(), conversation, func(s string) { got = append(got, s) })

	assert.Equal(t, Streamed, res.Outcome)
	assert.Equal(t, []string{"ok"}, got)
}

func TestChatStream_FallbackOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		req := decodeChatRequest(t, r)
		if req.Stream {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(models.ChatResponse{Text: "Eat more eggs."})
	})

	var got []string
	res := c.ChatStream(t.Context(), conversation, func(s string) { got = append(got, s) })

	assert.Equal(t, Fallback, res.Outcome)
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{"Eat more eggs."}, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestChatStream_FallbackWhenNotEventStream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.ChatResponse{Text: "whole reply"})
	})

	var got []string
	res := c.ChatStream(t.Context(), conversation, func(s string) { got = append(got, s) })

	assert.Equal(t, Fallback, res.Outcome)
	assert.Equal(t, []string{"whole reply"}, got)
}

func TestChatStream_BothFail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"code":"AI_ERROR","message":"Pulse is temporarily unavailable."}}`)
	})

	var got []string
	res := c.ChatStream(t.Context(), conversation, func(s string) { got = append(got, s) })

	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, []string{ApologyMessage}, got)

	var se *StatusError
	require.True(t, errors.As(res.Err, &se))
	assert.Equal(t, "AI_ERROR", se.Code)
}

func TestChatStream_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, WithLogger(quietLogger), WithTimeout(time.Second))

	var got []string
	res := c.ChatStream(t.Context(), conversation, func(s string) { got = append(got, s) })

	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, []string{ApologyMessage}, got)
}

func TestChatStream_NoFallbackAfterChunks(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEvents(w, `{"text":"partial"}`, `{"error":"Pulse is temporarily unavailable."}`)
	})

	var got []string
	res := c.ChatStream(t.Context(), conversation, func(s string) { got = append(got, s) })

	assert.Equal(t, Streamed, res.Outcome)
	assert.Equal(t, []string{"partial"}, got)
	var remote *RemoteError
	assert.True(t, errors.As(res.Err, &remote))
	assert.Equal(t, int32(1), calls.Load())
}

func TestChatStream_EOFWithoutDone(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEvents(w, `{"text":"cut"}`)
	})

	res := c.ChatStream(t.Context(), conversation, func(string) {})

	assert.Equal(t, Streamed, res.Outcome)
	assert.ErrorIs(t, res.Err, errStreamIncomplete)
}

func TestChatStream_DoneWithoutTextFallsBack(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if decodeChatRequest(t, r).Stream {
			writeEvents(w, `{"done":true}`)
			return
		}
		json.NewEncoder(w).Encode(models.ChatResponse{Text: "Drink water."})
	})

	var got []string
	res := c.ChatStream(t.Context(), conversation, func(s string) { got = append(got, s) })

	assert.Equal(t, Fallback, res.Outcome)
	assert.Equal(t, []string{"Drink water."}, got)
}

func TestAnalyzeImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, analyzeImagePath, r.URL.Path)
		var req models.AnalyzeImageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "data:image/png;base64,aGVsbG8=", req.Base64Image)
		assert.Equal(t, "Rate my form", req.Prompt)
		json.NewEncoder(w).Encode(models.AnalyzeImageResponse{Text: "Knees track well."})
	})

	assert.Equal(t, "Knees track well.", c.AnalyzeImage(t.Context(), "data:image/png;base64,aGVsbG8=", "Rate my form"))
}

func TestAnalyzeImage_Failure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.Equal(t, ImageAnalysisFailedMessage, c.AnalyzeImage(t.Context(), "aGVsbG8=", ""))
}

func TestScanFood(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"food_name":"Salad","calories":250,"protein":10,"carbs":20,"fats":8}}`)
	})

	rec, err := c.ScanFood(t.Context(), "aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, &models.NutritionRecord{FoodName: "Salad", Calories: 250, Protein: 10, Carbs: 20, Fats: 8}, rec)
}

func TestScanFood_ParseErrorBecomesUserError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"code":"PARSE_ERROR","message":"Could not parse nutrition data","raw":"a salad"}}`)
	})

	rec, err := c.ScanFood(t.Context(), "aGVsbG8=")
	assert.Nil(t, rec)

	var ue *UserError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, FoodScanFailedMessage, ue.Error())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "a salad", se.Raw)
}

func TestScanFood_MissingData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})

	_, err := c.ScanFood(t.Context(), "aGVsbG8=")
	var ue *UserError
	assert.True(t, errors.As(err, &ue))
}

func TestWithToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(models.AnalyzeImageResponse{Text: "ok"})
	})
	WithToken("abc")(c)

	assert.Equal(t, "ok", c.AnalyzeImage(t.Context(), "aGVsbG8=", ""))
}
