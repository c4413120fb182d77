package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/auth"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/dm"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/observability"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/presence"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/repositories"
)

// DMSocketHandler owns one websocket per signed-in user on the messaging
// page. The socket multiplexes the active conversation view (history plus
// live appends), typing indicators, seen receipts, presence changes and
// the conversation list.
type DMSocketHandler struct {
	hub          *Hub
	messageRepo  repositories.MessageRepository
	profileRepo  repositories.ProfileRepository
	tokens       *auth.TokenService
	tracker      *presence.Tracker
	pollInterval time.Duration
}

// NewDMSocketHandler constructs a DMSocketHandler.
func NewDMSocketHandler(hub *Hub, messageRepo repositories.MessageRepository, profileRepo repositories.ProfileRepository, tokens *auth.TokenService, tracker *presence.Tracker, pollInterval time.Duration) *DMSocketHandler {
	return &DMSocketHandler{
		hub:          hub,
		messageRepo:  messageRepo,
		profileRepo:  profileRepo,
		tokens:       tokens,
		tracker:      tracker,
		pollInterval: pollInterval,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientFrame is what the browser sends over the socket.
type clientFrame struct {
	Type   string `json:"type"`
	PeerID int    `json:"peer_id"`
}

// Handle upgrades the connection and runs the session until the client
// goes away.
func (h *DMSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("safevoice/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		if q := c.Query("token"); q != "" {
			token = "Bearer " + q
		}
	}
	userID, err := h.validateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	observability.IncWSActive("dm")
	observability.IncWSEvent("dm", "ws_connect")
	publishWSEvent(ctx, "ws_connect", info, "")

	// going online is part of session establishment, not a user action
	h.tracker.Connect(ctx, userID)

	session := &dmSession{
		handler: h,
		me:      userID,
		conn:    conn,
		info:    info,
		out:     make(chan models.DMEvent, 256),
	}
	session.run(ctx)
}

func (h *DMSocketHandler) validateToken(header string) (int, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return 0, errors.New("invalid token")
	}
	return h.tokens.Validate(parts[1])
}

// dmSession is the per-connection state. The read loop is the only
// goroutine that touches the active-conversation fields; writes are
// serialized through the out channel.
type dmSession struct {
	handler *DMSocketHandler
	me      int
	conn    *websocket.Conn
	info    ConnInfo
	out     chan models.DMEvent

	activePeer int
	pairCancel func()

	typingMu sync.Mutex
	typing   *dm.TypingMonitor
}

func (s *dmSession) typingMonitor() *dm.TypingMonitor {
	s.typingMu.Lock()
	defer s.typingMu.Unlock()
	return s.typing
}

func (s *dmSession) setTypingMonitor(m *dm.TypingMonitor) {
	s.typingMu.Lock()
	defer s.typingMu.Unlock()
	s.typing = m
}

func (s *dmSession) run(ctx context.Context) {
	sessionCtx, cancel := context.WithCancel(ctx)

	reconciler := dm.NewReconciler(s.me, s.handler.messageRepo, s.handler.hub, s.handler.hub)

	var closeReason string
	defer func() {
		cancel()
		s.teardownConversation()
		reconciler.Close()
		// best-effort: the process may die before this write lands
		s.handler.tracker.Disconnect(context.WithoutCancel(ctx), s.me)
		observability.DecWSActive("dm")
		observability.IncWSEvent("dm", "ws_disconnect")
		publishWSEvent(ctx, "ws_disconnect", s.info, closeReason)
		s.conn.Close()
	}()

	go s.writeLoop(sessionCtx)
	go s.forwardReconciler(sessionCtx, reconciler)
	go s.forwardPresence(sessionCtx)

	aggregator := dm.NewAggregator(s.me, s.handler.messageRepo, s.handler.profileRepo, s.handler.tracker)
	go aggregator.Run(sessionCtx, s.handler.pollInterval, s.handler.hub, func(items []models.ConversationItem) {
		s.send(models.DMEvent{Type: "conversations", Conversations: items})
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("dm", "ws_error")
				publishWSEvent(ctx, "ws_error", s.info, closeReason)
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			s.send(models.DMEvent{Type: "error", Error: "malformed frame"})
			continue
		}

		switch frame.Type {
		case "open":
			if frame.PeerID == 0 || frame.PeerID == s.me {
				s.send(models.DMEvent{Type: "error", Error: "invalid peer"})
				continue
			}
			s.openConversation(sessionCtx, reconciler, frame.PeerID)
		case "typing":
			if frame.PeerID == 0 || frame.PeerID != s.activePeer {
				continue
			}
			s.handler.hub.PublishTyping(models.TypingSignal{
				UserID:     s.me,
				ReceiverID: frame.PeerID,
				IsTyping:   true,
				Timestamp:  time.Now(),
			})
		default:
			s.send(models.DMEvent{Type: "error", Error: "unknown frame type"})
		}
	}
}

// openConversation switches the active pair: prior pair channel and
// typing timers are torn down before the new reconciler generation
// starts, so nothing from the old pair leaks into the new view.
func (s *dmSession) openConversation(ctx context.Context, reconciler *dm.Reconciler, peerID int) {
	s.teardownConversation()
	s.activePeer = peerID

	monitor := dm.NewTypingMonitor(dm.TypingExpiry, func(peer int, typing bool) {
		s.send(models.DMEvent{Type: "typing", Typing: &models.TypingSignal{UserID: peer, IsTyping: typing}})
	})
	s.setTypingMonitor(monitor)

	pairCh, cancelPair := s.handler.hub.SubscribePair(PairKey(s.me, peerID))
	s.pairCancel = cancelPair
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-pairCh:
				if !ok {
					return
				}
				switch ev.Type {
				case "typing":
					// the channel echoes our own signals back
					if ev.Typing != nil && ev.Typing.UserID != s.me {
						monitor.Observe(ev.Typing.UserID)
					}
				case "seen":
					if ev.Seen != nil && ev.Seen.By != s.me {
						s.send(ev)
					}
				}
			}
		}
	}()

	reconciler.Open(ctx, peerID)
}

func (s *dmSession) teardownConversation() {
	if s.pairCancel != nil {
		s.pairCancel()
		s.pairCancel = nil
	}
	if monitor := s.typingMonitor(); monitor != nil {
		monitor.Close()
		s.setTypingMonitor(nil)
	}
	s.activePeer = 0
}

func (s *dmSession) forwardReconciler(ctx context.Context, reconciler *dm.Reconciler) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-reconciler.Events():
			switch ev.Type {
			case "history":
				s.send(models.DMEvent{Type: "history", PeerID: ev.PeerID, History: ev.History})
			case "message":
				msg := ev.Message
				if monitor := s.typingMonitor(); monitor != nil && msg.SenderID == ev.PeerID {
					// a delivered message ends the typing burst
					monitor.Stop(ev.PeerID)
				}
				s.send(models.DMEvent{Type: "message", PeerID: ev.PeerID, Message: &msg})
			case "error":
				s.send(models.DMEvent{Type: "error", PeerID: ev.PeerID, Error: "failed to load conversation"})
			}
		}
	}
}

func (s *dmSession) forwardPresence(ctx context.Context) {
	feed, cancel := s.handler.tracker.Watch(ctx, s.me)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-feed:
			if !ok {
				return
			}
			presenceCopy := rec
			s.send(models.DMEvent{Type: "presence", Presence: &presenceCopy})
		}
	}
}

// send queues an event for the writer; a backed-up client loses events
// rather than wedging the session.
func (s *dmSession) send(ev models.DMEvent) {
	select {
	case s.out <- ev:
	default:
	}
}

func (s *dmSession) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.out:
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("websocket write error: %v", err)
				s.conn.Close()
				return
			}
		}
	}
}

// publishWSEvent mirrors connection lifecycle onto the event exchange.
func publishWSEvent(ctx context.Context, event string, info ConnInfo, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "dm",
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events.dm", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, headers)
}
