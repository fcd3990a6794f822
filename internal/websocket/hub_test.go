package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymmate-backend/internal/models"
	"gymmate-backend/internal/repository"
)

type stubAuth struct{ userID uuid.UUID }

func (a stubAuth) ParseToken(token string) (uuid.UUID, error) {
	if token != "good" {
		return uuid.Nil, errors.New("bad token")
	}
	return a.userID, nil
}

type stubMatches struct {
	match *models.Match
	err   error
}

func (m stubMatches) GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.match == nil || m.match.ID != matchID {
		return nil, repository.ErrMatchNotFound
	}
	return m.match, nil
}

func TestMatchChannel(t *testing.T) {
	id := uuid.MustParse("7b0b7a1e-4a8f-4c43-9a51-3f1e2b8d9c10")
	assert.Equal(t, "messages:7b0b7a1e-4a8f-4c43-9a51-3f1e2b8d9c10", MatchChannel(id))
}

func TestHandleWebSocket_Rejections(t *testing.T) {
	member, outsider := uuid.New(), uuid.New()
	match := &models.Match{ID: uuid.New(), User1ID: member, User2ID: uuid.New()}

	tests := []struct {
		name   string
		user   uuid.UUID
		query  string
		status int
	}{
		{"missing token", member, "match_id=" + match.ID.String(), http.StatusUnauthorized},
		{"bad match id", member, "token=good&match_id=nope", http.StatusBadRequest},
		{"unknown match", member, "token=good&match_id=" + uuid.NewString(), http.StatusNotFound},
		{"not a participant", outsider, "token=good&match_id=" + match.ID.String(), http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hub := NewHub(nil, stubAuth{userID: tc.user}, stubMatches{match: match}, "*")
			rr := httptest.NewRecorder()
			hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/api/v1/ws?"+tc.query, nil))

			assert.Equal(t, tc.status, rr.Code)
		})
	}
}

func TestHandleWebSocket_LookupFailureIsServerError(t *testing.T) {
	hub := NewHub(nil, stubAuth{userID: uuid.New()}, stubMatches{err: errors.New("connection refused")}, "*")
	rr := httptest.NewRecorder()
	hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/api/v1/ws?token=good&match_id="+uuid.NewString(), nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHub_BroadcastReachesMatchConnections(t *testing.T) {
	member := uuid.New()
	match := &models.Match{ID: uuid.New(), User1ID: member, User2ID: uuid.New()}
	hub := NewHub(nil, stubAuth{userID: member}, stubMatches{match: match}, "*")
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=good&match_id=" + match.ID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.connections[match.ID]) == 1
	}, time.Second, 10*time.Millisecond)

	hub.broadcast(match.ID, []byte(`{"type":"new_message"}`))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"new_message"}`, string(data))
}

func TestPublisher_RejectsMessageWithoutMatch(t *testing.T) {
	p := NewPublisher(nil)
	assert.Error(t, p.PublishMessage(context.Background(), &models.Message{}))
}
