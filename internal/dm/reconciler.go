package dm

import (
	"context"
	"log"
	"sync"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/repositories"
)

// Feeds is the slice of the hub the reconciler consumes.
type Feeds interface {
	SubscribeMessages(receiverID int) (<-chan models.Message, func())
}

// SeenNotifier receives the receipt after a bulk mark-seen lands, so the
// peer's view can flip its ticks.
type SeenNotifier interface {
	PublishSeen(receipt models.SeenReceipt)
}

// Event is what the reconciler hands to its consumer: one history
// snapshot per opened conversation, then live appends. Generation lets a
// consumer discard anything from a conversation it already left.
type Event struct {
	Generation int
	Type       string // "history", "message" or "error"
	PeerID     int
	History    []models.Message
	Message    models.Message
	Err        error
}

// Reconciler presents a single time-ordered, duplicate-free message list
// for the active conversation of one user. Three concurrent sources feed
// it: a bounded history fetch, the inbound live feed (receiver = me,
// filtered to the peer) and the outbound live feed (receiver = peer,
// filtered to me, the echo of the user's own sends). The two feeds have
// no ordering guarantee relative to each other, so dedupe by message id
// is mandatory, not optional. The list is append-only after the snapshot.
type Reconciler struct {
	me     int
	repo   repositories.MessageRepository
	feeds  Feeds
	seen   SeenNotifier
	events chan Event

	mu         sync.Mutex
	generation int
	cancel     context.CancelFunc
}

// NewReconciler constructs a Reconciler for one user.
func NewReconciler(me int, repo repositories.MessageRepository, feeds Feeds, seen SeenNotifier) *Reconciler {
	return &Reconciler{
		me:     me,
		repo:   repo,
		feeds:  feeds,
		seen:   seen,
		events: make(chan Event, 256),
	}
}

// Events is the single consumer-facing stream.
func (r *Reconciler) Events() <-chan Event {
	return r.events
}

// Open switches the active conversation to otherID. The previous
// conversation's fetch and subscriptions are torn down first; a late
// result from an abandoned pair can never populate the new view because
// every emit is gated on the generation taken here.
func (r *Reconciler) Open(ctx context.Context, otherID int) int {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.generation++
	gen := r.generation
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	inbound, cancelIn := r.feeds.SubscribeMessages(r.me)
	outbound, cancelOut := r.feeds.SubscribeMessages(otherID)

	go func() {
		defer cancelIn()
		defer cancelOut()
		r.run(runCtx, gen, otherID, inbound, outbound)
	}()
	return gen
}

// Close tears down the active conversation, if any.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

type historyResult struct {
	msgs []models.Message
	err  error
}

func (r *Reconciler) run(ctx context.Context, gen, otherID int, inbound, outbound <-chan models.Message) {
	known := make(map[int]struct{})
	var pending []models.Message
	historyDone := false

	// The history fetch is the only operation allowed to block the
	// initial snapshot; live events racing it are buffered and applied
	// right after, deduped against the snapshot.
	historyCh := make(chan historyResult, 1)
	go func() {
		msgs, err := r.repo.GetConversation(ctx, r.me, otherID)
		historyCh <- historyResult{msgs: msgs, err: err}
	}()

	appendLive := func(m models.Message) {
		if _, dup := known[m.ID]; dup {
			return
		}
		if !historyDone {
			pending = append(pending, m)
			return
		}
		known[m.ID] = struct{}{}
		r.emit(ctx, gen, Event{Generation: gen, Type: "message", PeerID: otherID, Message: m})
	}

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-historyCh:
			if res.err != nil {
				r.emit(ctx, gen, Event{Generation: gen, Type: "error", PeerID: otherID, Err: res.err})
				return
			}
			for _, m := range res.msgs {
				known[m.ID] = struct{}{}
			}
			if !r.emit(ctx, gen, Event{Generation: gen, Type: "history", PeerID: otherID, History: res.msgs}) {
				return
			}
			historyDone = true
			for _, m := range pending {
				if _, dup := known[m.ID]; dup {
					continue
				}
				known[m.ID] = struct{}{}
				r.emit(ctx, gen, Event{Generation: gen, Type: "message", PeerID: otherID, Message: m})
			}
			pending = nil
			go r.markSeen(ctx, otherID)

		case m, ok := <-inbound:
			if !ok {
				return
			}
			// events for other senders belong to a different
			// conversation's concern
			if m.SenderID != otherID || m.ReceiverID != r.me {
				continue
			}
			appendLive(m)

		case m, ok := <-outbound:
			if !ok {
				return
			}
			if m.SenderID != r.me || m.ReceiverID != otherID {
				continue
			}
			appendLive(m)
		}
	}
}

// markSeen is fire-and-forget: failure is logged, never retried, and does
// not block rendering. It deliberately survives a conversation switch so
// an already-viewed history still gets its receipts.
func (r *Reconciler) markSeen(ctx context.Context, otherID int) {
	updated, err := r.repo.MarkConversationSeen(context.WithoutCancel(ctx), r.me, otherID)
	if err != nil {
		log.Printf("mark seen failed for user %d peer %d: %v", r.me, otherID, err)
		return
	}
	if updated > 0 && r.seen != nil {
		r.seen.PublishSeen(models.SeenReceipt{By: r.me, Peer: otherID})
	}
}

// emit delivers an event unless the conversation has been switched since
// gen was taken. Delivery blocks rather than drops: the message list must
// stay a complete union of its sources.
func (r *Reconciler) emit(ctx context.Context, gen int, ev Event) bool {
	r.mu.Lock()
	current := r.generation
	r.mu.Unlock()
	if current != gen {
		return false
	}
	select {
	case r.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
