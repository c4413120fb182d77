package dm

import (
	"context"
	"log"
	"time"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/repositories"
)

// ConversationWindow bounds how many raw messages a snapshot scans. A
// peer whose most recent message falls outside this window is invisible
// in the list even if older history exists; that is a documented
// bounded-recency approximation, not a bug.
const ConversationWindow = 80

// PresenceResolver fills advisory online flags on peer profiles.
type PresenceResolver interface {
	Resolve(ctx context.Context, profiles []models.Profile) []models.Profile
}

// Aggregator derives the conversation list for one user from the raw
// message log. There is no conversations table: the list is a fold over
// the most recent window, keeping the first (newest) message per peer.
type Aggregator struct {
	me       int
	window   int
	messages repositories.MessageRepository
	profiles repositories.ProfileRepository
	presence PresenceResolver
}

// NewAggregator constructs an Aggregator.
func NewAggregator(me int, messages repositories.MessageRepository, profiles repositories.ProfileRepository, presence PresenceResolver) *Aggregator {
	return &Aggregator{
		me:       me,
		window:   ConversationWindow,
		messages: messages,
		profiles: profiles,
		presence: presence,
	}
}

// Snapshot computes the current conversation list: most recent message
// per peer, peers resolved in one batch, sorted newest first.
func (a *Aggregator) Snapshot(ctx context.Context) ([]models.ConversationItem, error) {
	msgs, err := a.messages.RecentWindow(ctx, a.me, a.window)
	if err != nil {
		return nil, err
	}

	type last struct {
		body string
		at   time.Time
	}
	// input is newest-first, so the first occurrence per peer wins and
	// encounter order is already the final sort order
	order := make([]int, 0, len(msgs))
	byPeer := make(map[int]last, len(msgs))
	for _, m := range msgs {
		peerID := m.SenderID
		if peerID == a.me {
			peerID = m.ReceiverID
		}
		if _, ok := byPeer[peerID]; ok {
			continue
		}
		body := ""
		if m.Body != nil {
			body = *m.Body
		}
		byPeer[peerID] = last{body: body, at: m.CreatedAt}
		order = append(order, peerID)
	}
	if len(order) == 0 {
		return []models.ConversationItem{}, nil
	}

	peers, err := a.profiles.BulkProfiles(ctx, order)
	if err != nil {
		return nil, err
	}
	if a.presence != nil {
		peers = a.presence.Resolve(ctx, peers)
	}
	profileByID := make(map[int]models.Profile, len(peers))
	for _, p := range peers {
		profileByID[p.ID] = p
	}

	items := make([]models.ConversationItem, 0, len(order))
	for _, peerID := range order {
		peer, ok := profileByID[peerID]
		if !ok {
			continue
		}
		items = append(items, models.ConversationItem{
			Peer:          peer,
			LastMessage:   byPeer[peerID].body,
			LastMessageAt: byPeer[peerID].at,
		})
	}
	return items, nil
}

// Run recomputes the list on a fixed interval and eagerly on any realtime
// message addressed to the user, pushing each snapshot to push. It owns
// its own lifetime: cancelling ctx stops the loop and the feed.
func (a *Aggregator) Run(ctx context.Context, interval time.Duration, feeds Feeds, push func([]models.ConversationItem)) {
	feed, cancel := feeds.SubscribeMessages(a.me)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refresh := func() {
		items, err := a.Snapshot(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("conversation snapshot failed for user %d: %v", a.me, err)
			}
			return
		}
		push(items)
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		case _, ok := <-feed:
			if !ok {
				return
			}
			// a new message surfaces its conversation immediately,
			// even when the peer was outside the current window
			refresh()
		}
	}
}
