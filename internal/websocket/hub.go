package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"gymmate-backend/internal/logger"
	"gymmate-backend/internal/models"
	"gymmate-backend/internal/repository"
)

const writeWait = 10 * time.Second

// MatchChannel is the Redis channel new messages of a match are published on.
func MatchChannel(matchID uuid.UUID) string {
	return "messages:" + matchID.String()
}

// Authenticator resolves a bearer token to a user id.
type Authenticator interface {
	ParseToken(token string) (uuid.UUID, error)
}

// MatchLookup loads a match so the hub can check the caller takes part in it.
type MatchLookup interface {
	GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error)
}

type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
	cancelFuncs map[uuid.UUID]context.CancelFunc
	redisClient *redis.Client
	auth        Authenticator
	matches     MatchLookup
	upgrader    websocket.Upgrader
}

func NewHub(redisClient *redis.Client, auth Authenticator, matches MatchLookup, allowedOrigin string) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*websocket.Conn),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		redisClient: redisClient,
		auth:        auth,
		matches:     matches,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
		},
	}
}

// HandleWebSocket upgrades GET /api/v1/ws?token=...&match_id=... and relays new
// messages of that match until the client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.ParseToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	matchID, err := uuid.Parse(r.URL.Query().Get("match_id"))
	if err != nil {
		http.Error(w, "Invalid match_id", http.StatusBadRequest)
		return
	}

	match, err := h.matches.GetMatch(r.Context(), matchID)
	if errors.Is(err, repository.ErrMatchNotFound) {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "websocket match lookup failed", "match_id", matchID, logger.Err(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !match.HasParticipant(userID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", logger.Err(err))
		return
	}

	h.registerConnection(matchID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(matchID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) registerConnection(matchID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[matchID] = append(h.connections[matchID], conn)

	// First connection for this match starts the subscription.
	if len(h.connections[matchID]) == 1 && h.redisClient != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[matchID] = cancel
		go h.subscribe(ctx, matchID)
	}

	slog.Debug("websocket connected", "match_id", matchID, "connections", len(h.connections[matchID]))
}

func (h *Hub) unregisterConnection(matchID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[matchID]
	for i, c := range conns {
		if c == conn {
			h.connections[matchID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[matchID]) == 0 {
		delete(h.connections, matchID)
		if cancel, ok := h.cancelFuncs[matchID]; ok {
			cancel()
			delete(h.cancelFuncs, matchID)
		}
	}

	slog.Debug("websocket disconnected", "match_id", matchID)
}

func (h *Hub) subscribe(ctx context.Context, matchID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, MatchChannel(matchID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(matchID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(matchID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[matchID] {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Debug("websocket write failed", "match_id", matchID, logger.Err(err))
		}
	}
}

// Close drops every connection and subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for matchID, conns := range h.connections {
		for _, c := range conns {
			c.Close()
		}
		if cancel, ok := h.cancelFuncs[matchID]; ok {
			cancel()
		}
	}
	h.connections = make(map[uuid.UUID][]*websocket.Conn)
	h.cancelFuncs = make(map[uuid.UUID]context.CancelFunc)
}

// Publisher fans stored messages out to every hub subscribed to the match.
type Publisher struct {
	redisClient *redis.Client
}

func NewPublisher(redisClient *redis.Client) *Publisher {
	return &Publisher{redisClient: redisClient}
}

func (p *Publisher) PublishMessage(ctx context.Context, msg *models.Message) error {
	if msg == nil || msg.MatchID == uuid.Nil {
		return errors.New("message has no match")
	}
	data, err := json.Marshal(models.WSMessage{Type: "new_message", Payload: msg})
	if err != nil {
		return err
	}
	return p.redisClient.Publish(ctx, MatchChannel(msg.MatchID), data).Err()
}
