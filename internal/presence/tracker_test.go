package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
)

// storeMock lives here rather than internal/mocks to avoid an import
// cycle between presence and the shared mocks package.
type storeMock struct {
	mock.Mock
}

func (m *storeMock) Upsert(ctx context.Context, rec models.PresenceRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *storeMock) Get(ctx context.Context, userID int) (models.PresenceRecord, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.PresenceRecord), args.Error(1)
}

func (m *storeMock) Bulk(ctx context.Context, userIDs []int) (map[int]models.PresenceRecord, error) {
	args := m.Called(ctx, userIDs)
	var recs map[int]models.PresenceRecord
	if val := args.Get(0); val != nil {
		recs = val.(map[int]models.PresenceRecord)
	}
	return recs, args.Error(1)
}

func (m *storeMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// broadcastStub fans records to a single channel.
type broadcastStub struct {
	out chan models.PresenceRecord
}

func newBroadcastStub() *broadcastStub {
	return &broadcastStub{out: make(chan models.PresenceRecord, 16)}
}

func (b *broadcastStub) PublishPresence(rec models.PresenceRecord) {
	select {
	case b.out <- rec:
	default:
	}
}

func (b *broadcastStub) SubscribePresence() (<-chan models.PresenceRecord, func()) {
	return b.out, func() {}
}

func TestConnectUpsertsOnlineAndBroadcasts(t *testing.T) {
	store := new(storeMock)
	hub := newBroadcastStub()
	tracker := NewTracker(store, hub)

	store.On("Upsert", mock.Anything, mock.MatchedBy(func(rec models.PresenceRecord) bool {
		return rec.UserID == 7 && rec.IsOnline && !rec.LastSeen.IsZero()
	})).Return(nil).Once()

	tracker.Connect(context.Background(), 7)

	select {
	case rec := <-hub.out:
		require.Equal(t, 7, rec.UserID)
		require.True(t, rec.IsOnline)
	case <-time.After(time.Second):
		t.Fatal("no broadcast after connect")
	}
	store.AssertExpectations(t)
}

func TestDisconnectUpsertsOffline(t *testing.T) {
	store := new(storeMock)
	tracker := NewTracker(store, newBroadcastStub())

	store.On("Upsert", mock.Anything, mock.MatchedBy(func(rec models.PresenceRecord) bool {
		return rec.UserID == 7 && !rec.IsOnline
	})).Return(nil).Once()

	tracker.Disconnect(context.Background(), 7)
	store.AssertExpectations(t)
}

func TestStoreFailureSuppressesBroadcast(t *testing.T) {
	store := new(storeMock)
	hub := newBroadcastStub()
	tracker := NewTracker(store, hub)

	store.On("Upsert", mock.Anything, mock.Anything).Return(context.DeadlineExceeded).Once()

	tracker.Connect(context.Background(), 7)

	select {
	case rec := <-hub.out:
		t.Fatalf("broadcast despite failed write: %+v", rec)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatchFiltersSelf(t *testing.T) {
	store := new(storeMock)
	hub := newBroadcastStub()
	tracker := NewTracker(store, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed, stop := tracker.Watch(ctx, 1)
	defer stop()

	hub.PublishPresence(models.PresenceRecord{UserID: 1, IsOnline: true})
	hub.PublishPresence(models.PresenceRecord{UserID: 2, IsOnline: true})

	select {
	case rec := <-feed:
		require.Equal(t, 2, rec.UserID)
	case <-time.After(time.Second):
		t.Fatal("no presence event")
	}
	select {
	case rec := <-feed:
		t.Fatalf("self event leaked: %+v", rec)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestResolveFillsOnlineStatus(t *testing.T) {
	store := new(storeMock)
	tracker := NewTracker(store, newBroadcastStub())

	store.On("Bulk", mock.Anything, []int{2, 3}).Return(map[int]models.PresenceRecord{
		2: {UserID: 2, IsOnline: true},
	}, nil).Once()

	profiles := tracker.Resolve(context.Background(), []models.Profile{{ID: 2}, {ID: 3}})
	require.True(t, profiles[0].OnlineStatus)
	require.False(t, profiles[1].OnlineStatus)
}

func TestResolveFailureLeavesEveryoneOffline(t *testing.T) {
	store := new(storeMock)
	tracker := NewTracker(store, newBroadcastStub())

	store.On("Bulk", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded).Once()

	profiles := tracker.Resolve(context.Background(), []models.Profile{{ID: 2, OnlineStatus: false}})
	require.False(t, profiles[0].OnlineStatus)
}
