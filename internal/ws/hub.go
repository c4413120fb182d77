package ws

import (
	"fmt"
	"sync"
	"time"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
)

// PairKey returns the canonical channel key for an unordered user pair,
// so both participants land on the same broadcast channel.
func PairKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// Hub is the in-process realtime fan-out. It exposes three surfaces:
//
//   - message feeds keyed by receiver id: subscribing to receiver R
//     observes every message row inserted with receiver_id = R. A
//     conversation view holds two of these, one per direction.
//   - pair channels: ephemeral broadcast (typing signals, seen receipts)
//     keyed by the canonical unordered pair. Nothing here is persisted.
//   - presence watchers: every presence upsert, fanned out to all.
//
// Deliveries never block a publisher: a subscriber that cannot keep up
// has events dropped, which is acceptable for typing/presence and is
// bounded for messages by the reconciler's history seed and dedupe.
type Hub struct {
	mu               sync.RWMutex
	messageFeeds     map[int]map[chan models.Message]struct{}
	pairChannels     map[string]map[chan models.DMEvent]struct{}
	presenceWatchers map[chan models.PresenceRecord]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		messageFeeds:     make(map[int]map[chan models.Message]struct{}),
		pairChannels:     make(map[string]map[chan models.DMEvent]struct{}),
		presenceWatchers: make(map[chan models.PresenceRecord]struct{}),
	}
}

// SubscribeMessages registers a feed over message inserts with the given
// receiver id. The returned cancel func must be called on teardown.
func (h *Hub) SubscribeMessages(receiverID int) (<-chan models.Message, func()) {
	ch := make(chan models.Message, 64)
	h.mu.Lock()
	if _, ok := h.messageFeeds[receiverID]; !ok {
		h.messageFeeds[receiverID] = make(map[chan models.Message]struct{})
	}
	h.messageFeeds[receiverID][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if subs, ok := h.messageFeeds[receiverID]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(h.messageFeeds, receiverID)
			}
		}
	}
}

// PublishMessage delivers a freshly inserted message row to every feed
// subscribed to its receiver.
func (h *Hub) PublishMessage(msg models.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.messageFeeds[msg.ReceiverID] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// SubscribePair registers on the ephemeral broadcast channel for a pair.
func (h *Hub) SubscribePair(pairKey string) (<-chan models.DMEvent, func()) {
	ch := make(chan models.DMEvent, 16)
	h.mu.Lock()
	if _, ok := h.pairChannels[pairKey]; !ok {
		h.pairChannels[pairKey] = make(map[chan models.DMEvent]struct{})
	}
	h.pairChannels[pairKey][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if subs, ok := h.pairChannels[pairKey]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(h.pairChannels, pairKey)
			}
		}
	}
}

// PublishTyping broadcasts a typing signal on the pair channel. Both
// participants receive it, including the sender; consumers filter self.
func (h *Hub) PublishTyping(sig models.TypingSignal) {
	if sig.Timestamp.IsZero() {
		sig.Timestamp = time.Now()
	}
	h.broadcastPair(PairKey(sig.UserID, sig.ReceiverID), models.DMEvent{Type: "typing", Typing: &sig})
}

// PublishSeen broadcasts a seen receipt on the pair channel.
func (h *Hub) PublishSeen(receipt models.SeenReceipt) {
	h.broadcastPair(PairKey(receipt.By, receipt.Peer), models.DMEvent{Type: "seen", Seen: &receipt})
}

func (h *Hub) broadcastPair(pairKey string, event models.DMEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.pairChannels[pairKey] {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscribePresence registers a watcher over all presence changes.
func (h *Hub) SubscribePresence() (<-chan models.PresenceRecord, func()) {
	ch := make(chan models.PresenceRecord, 16)
	h.mu.Lock()
	h.presenceWatchers[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.presenceWatchers, ch)
	}
}

// PublishPresence fans a presence upsert out to every watcher.
func (h *Hub) PublishPresence(rec models.PresenceRecord) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.presenceWatchers {
		select {
		case ch <- rec:
		default:
		}
	}
}
