package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/presence"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/repositories"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/storage"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/tasks"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, senderID, receiverID int, body, attachmentURL *string) (models.Message, error) {
	args := m.Called(ctx, senderID, receiverID, body, attachmentURL)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetConversation(ctx context.Context, userID, peerID int) ([]models.Message, error) {
	args := m.Called(ctx, userID, peerID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) RecentWindow(ctx context.Context, userID, limit int) ([]models.Message, error) {
	args := m.Called(ctx, userID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkConversationSeen(ctx context.Context, receiverID, senderID int) (int64, error) {
	args := m.Called(ctx, receiverID, senderID)
	return args.Get(0).(int64), args.Error(1)
}

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) CreateProfile(ctx context.Context, email, username, phone, passwordHash string) (models.Profile, error) {
	args := m.Called(ctx, email, username, phone, passwordHash)
	var p models.Profile
	if val := args.Get(0); val != nil {
		p = val.(models.Profile)
	}
	return p, args.Error(1)
}

func (m *ProfileRepositoryMock) GetProfile(ctx context.Context, id int) (models.Profile, error) {
	args := m.Called(ctx, id)
	var p models.Profile
	if val := args.Get(0); val != nil {
		p = val.(models.Profile)
	}
	return p, args.Error(1)
}

func (m *ProfileRepositoryMock) GetByEmail(ctx context.Context, email string) (models.Profile, string, error) {
	args := m.Called(ctx, email)
	var p models.Profile
	if val := args.Get(0); val != nil {
		p = val.(models.Profile)
	}
	return p, args.String(1), args.Error(2)
}

func (m *ProfileRepositoryMock) BulkProfiles(ctx context.Context, ids []int) ([]models.Profile, error) {
	args := m.Called(ctx, ids)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

func (m *ProfileRepositoryMock) SearchProfiles(ctx context.Context, query string, limit int) ([]models.Profile, error) {
	args := m.Called(ctx, query, limit)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

func (m *ProfileRepositoryMock) PhoneExists(ctx context.Context, phone string) (bool, error) {
	args := m.Called(ctx, phone)
	return args.Bool(0), args.Error(1)
}

type BlockRepositoryMock struct {
	mock.Mock
}

func (m *BlockRepositoryMock) Block(ctx context.Context, blockerID, blockedID int) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *BlockRepositoryMock) Unblock(ctx context.Context, blockerID, blockedID int) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *BlockRepositoryMock) IsBlocked(ctx context.Context, blockerID, blockedID int) (bool, error) {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Bool(0), args.Error(1)
}

func (m *BlockRepositoryMock) IsBlockedEither(ctx context.Context, a, b int) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

type ForumRepositoryMock struct {
	mock.Mock
}

func (m *ForumRepositoryMock) CreatePost(ctx context.Context, authorID int, title, body, category string) (models.Post, error) {
	args := m.Called(ctx, authorID, title, body, category)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *ForumRepositoryMock) GetPost(ctx context.Context, postID int) (models.Post, error) {
	args := m.Called(ctx, postID)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *ForumRepositoryMock) ListPosts(ctx context.Context, category string, limit int) ([]models.Post, error) {
	args := m.Called(ctx, category, limit)
	var posts []models.Post
	if val := args.Get(0); val != nil {
		posts = val.([]models.Post)
	}
	return posts, args.Error(1)
}

func (m *ForumRepositoryMock) SearchPosts(ctx context.Context, query string, limit int) ([]models.Post, error) {
	args := m.Called(ctx, query, limit)
	var posts []models.Post
	if val := args.Get(0); val != nil {
		posts = val.([]models.Post)
	}
	return posts, args.Error(1)
}

func (m *ForumRepositoryMock) UpvotePost(ctx context.Context, postID int) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *ForumRepositoryMock) DownvotePost(ctx context.Context, postID int) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *ForumRepositoryMock) ResharePost(ctx context.Context, postID int) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *ForumRepositoryMock) CreateComment(ctx context.Context, postID, authorID int, body string) (models.Comment, error) {
	args := m.Called(ctx, postID, authorID, body)
	var comment models.Comment
	if val := args.Get(0); val != nil {
		comment = val.(models.Comment)
	}
	return comment, args.Error(1)
}

func (m *ForumRepositoryMock) ListComments(ctx context.Context, postID int) ([]models.Comment, error) {
	args := m.Called(ctx, postID)
	var comments []models.Comment
	if val := args.Get(0); val != nil {
		comments = val.([]models.Comment)
	}
	return comments, args.Error(1)
}

func (m *ForumRepositoryMock) UpvoteComment(ctx context.Context, commentID int) error {
	args := m.Called(ctx, commentID)
	return args.Error(0)
}

type SOSRepositoryMock struct {
	mock.Mock
}

func (m *SOSRepositoryMock) CreateSOS(ctx context.Context, userID *int, lat, lng, accuracyM *float64) (models.SOSEvent, error) {
	args := m.Called(ctx, userID, lat, lng, accuracyM)
	var event models.SOSEvent
	if val := args.Get(0); val != nil {
		event = val.(models.SOSEvent)
	}
	return event, args.Error(1)
}

func (m *SOSRepositoryMock) GetSOS(ctx context.Context, id int) (models.SOSEvent, error) {
	args := m.Called(ctx, id)
	var event models.SOSEvent
	if val := args.Get(0); val != nil {
		event = val.(models.SOSEvent)
	}
	return event, args.Error(1)
}

type ObjectStoreMock struct {
	mock.Mock
}

func (m *ObjectStoreMock) Upload(ctx context.Context, path string, r io.Reader) (string, error) {
	args := m.Called(ctx, path, r)
	return args.String(0), args.Error(1)
}

type PresenceStoreMock struct {
	mock.Mock
}

func (m *PresenceStoreMock) Upsert(ctx context.Context, rec models.PresenceRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *PresenceStoreMock) Get(ctx context.Context, userID int) (models.PresenceRecord, error) {
	args := m.Called(ctx, userID)
	var rec models.PresenceRecord
	if val := args.Get(0); val != nil {
		rec = val.(models.PresenceRecord)
	}
	return rec, args.Error(1)
}

func (m *PresenceStoreMock) Bulk(ctx context.Context, userIDs []int) (map[int]models.PresenceRecord, error) {
	args := m.Called(ctx, userIDs)
	var recs map[int]models.PresenceRecord
	if val := args.Get(0); val != nil {
		recs = val.(map[int]models.PresenceRecord)
	}
	return recs, args.Error(1)
}

func (m *PresenceStoreMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type DispatcherMock struct {
	mock.Mock
}

func (m *DispatcherMock) DispatchSOS(ctx context.Context, eventID int) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

var (
	_ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
	_ repositories.ProfileRepository = (*ProfileRepositoryMock)(nil)
	_ repositories.BlockRepository   = (*BlockRepositoryMock)(nil)
	_ repositories.ForumRepository   = (*ForumRepositoryMock)(nil)
	_ repositories.SOSRepository     = (*SOSRepositoryMock)(nil)
	_ storage.ObjectStore            = (*ObjectStoreMock)(nil)
	_ presence.Store                 = (*PresenceStoreMock)(nil)
	_ tasks.Dispatcher               = (*DispatcherMock)(nil)
)
