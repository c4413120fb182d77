package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/mocks"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/presence"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/ws"
)

func strPtr(s string) *string { return &s }

func setupDMRouter(handler *DMHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/dm/conversations", handler.ListConversations)
	r.GET("/dm/:peer_id/messages", handler.GetHistory)
	r.POST("/dm/:peer_id/messages", handler.SendMessage)
	r.POST("/dm/:peer_id/seen", handler.MarkSeen)
	r.POST("/dm/:peer_id/block", handler.Block)
	r.DELETE("/dm/:peer_id/block", handler.Unblock)
	return r
}

func multipartForm(t *testing.T, body string, fileName string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if body != "" {
		require.NoError(t, w.WriteField("body", body))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("attachment", fileName)
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestSendMessageEmptyRejectedBeforeAnyCall(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	blocks := new(mocks.BlockRepositoryMock)
	store := new(mocks.ObjectStoreMock)
	handler := NewDMHandler(messages, new(mocks.ProfileRepositoryMock), blocks, store, ws.NewHub(), nil)
	router := setupDMRouter(handler)

	buf, contentType := multipartForm(t, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/dm/2/messages", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	blocks.AssertNotCalled(t, "IsBlockedEither", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageBlockedPairForbidden(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	blocks := new(mocks.BlockRepositoryMock)
	handler := NewDMHandler(messages, new(mocks.ProfileRepositoryMock), blocks, new(mocks.ObjectStoreMock), ws.NewHub(), nil)
	router := setupDMRouter(handler)

	blocks.On("IsBlockedEither", mock.Anything, 1, 2).Return(true, nil).Once()

	buf, contentType := multipartForm(t, "hello", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/dm/2/messages", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	blocks.AssertExpectations(t)
}

func TestSendMessageUploadFailureAbortsSend(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	blocks := new(mocks.BlockRepositoryMock)
	store := new(mocks.ObjectStoreMock)
	handler := NewDMHandler(messages, new(mocks.ProfileRepositoryMock), blocks, store, ws.NewHub(), nil)
	router := setupDMRouter(handler)

	blocks.On("IsBlockedEither", mock.Anything, 1, 2).Return(false, nil).Once()
	store.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return("", assert.AnError).Once()

	buf, contentType := multipartForm(t, "with attachment", "pic.png", []byte{1, 2, 3})
	req := httptest.NewRequest(http.MethodPost, "/dm/2/messages", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	// no message row may ever reference a failed upload
	messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestSendMessageSuccessPublishesToFeed(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	blocks := new(mocks.BlockRepositoryMock)
	hub := ws.NewHub()
	handler := NewDMHandler(messages, new(mocks.ProfileRepositoryMock), blocks, new(mocks.ObjectStoreMock), hub, nil)
	router := setupDMRouter(handler)

	stored := models.Message{ID: 10, SenderID: 1, ReceiverID: 2, Body: strPtr("hello")}
	blocks.On("IsBlockedEither", mock.Anything, 1, 2).Return(false, nil).Once()
	messages.On("CreateMessage", mock.Anything, 1, 2, strPtr("hello"), (*string)(nil)).Return(stored, nil).Once()

	feed, cancel := hub.SubscribeMessages(2)
	defer cancel()

	buf, contentType := multipartForm(t, "hello", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/dm/2/messages", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	select {
	case m := <-feed:
		require.Equal(t, 10, m.ID)
	case <-time.After(time.Second):
		t.Fatal("message never reached the receiver feed")
	}
	messages.AssertExpectations(t)
}

func TestSendMessageToSelfRejected(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewDMHandler(messages, new(mocks.ProfileRepositoryMock), new(mocks.BlockRepositoryMock), new(mocks.ObjectStoreMock), ws.NewHub(), nil)
	router := setupDMRouter(handler)

	buf, contentType := multipartForm(t, "hi me", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/dm/1/messages", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetHistorySuccess(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewDMHandler(messages, new(mocks.ProfileRepositoryMock), new(mocks.BlockRepositoryMock), new(mocks.ObjectStoreMock), ws.NewHub(), nil)
	router := setupDMRouter(handler)

	messages.On("GetConversation", mock.Anything, 1, 2).Return([]models.Message{
		{ID: 1, SenderID: 2, ReceiverID: 1, Body: strPtr("hi")},
		{ID: 2, SenderID: 1, ReceiverID: 2, Body: strPtr("there")},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/dm/2/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Messages, 2)
	messages.AssertExpectations(t)
}

func TestMarkSeenPublishesReceipt(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	hub := ws.NewHub()
	handler := NewDMHandler(messages, new(mocks.ProfileRepositoryMock), new(mocks.BlockRepositoryMock), new(mocks.ObjectStoreMock), hub, nil)
	router := setupDMRouter(handler)

	messages.On("MarkConversationSeen", mock.Anything, 1, 2).Return(int64(3), nil).Once()

	pair, cancel := hub.SubscribePair(ws.PairKey(1, 2))
	defer cancel()

	req := httptest.NewRequest(http.MethodPost, "/dm/2/seen", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]int64
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, int64(3), resp["updated"])

	select {
	case ev := <-pair:
		require.Equal(t, "seen", ev.Type)
		require.Equal(t, 1, ev.Seen.By)
		require.Equal(t, 2, ev.Seen.Peer)
	case <-time.After(time.Second):
		t.Fatal("no receipt on the pair channel")
	}
}

func TestMarkSeenNothingUnseenStaysQuiet(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	hub := ws.NewHub()
	handler := NewDMHandler(messages, new(mocks.ProfileRepositoryMock), new(mocks.BlockRepositoryMock), new(mocks.ObjectStoreMock), hub, nil)
	router := setupDMRouter(handler)

	messages.On("MarkConversationSeen", mock.Anything, 1, 2).Return(int64(0), nil).Once()

	pair, cancel := hub.SubscribePair(ws.PairKey(1, 2))
	defer cancel()

	req := httptest.NewRequest(http.MethodPost, "/dm/2/seen", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	select {
	case ev := <-pair:
		t.Fatalf("unexpected pair event: %+v", ev)
	default:
	}
}

func TestBlockAndUnblock(t *testing.T) {
	blocks := new(mocks.BlockRepositoryMock)
	handler := NewDMHandler(new(mocks.MessageRepositoryMock), new(mocks.ProfileRepositoryMock), blocks, new(mocks.ObjectStoreMock), ws.NewHub(), nil)
	router := setupDMRouter(handler)

	blocks.On("Block", mock.Anything, 1, 2).Return(nil).Once()
	blocks.On("Unblock", mock.Anything, 1, 2).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/dm/2/block", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/dm/2/block", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	blocks.AssertExpectations(t)
}

func TestListConversationsDerivesFromWindow(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	profiles := new(mocks.ProfileRepositoryMock)
	presenceStore := new(mocks.PresenceStoreMock)
	hub := ws.NewHub()
	tracker := presence.NewTracker(presenceStore, hub)
	handler := NewDMHandler(messages, profiles, new(mocks.BlockRepositoryMock), new(mocks.ObjectStoreMock), hub, tracker)
	router := setupDMRouter(handler)

	messages.On("RecentWindow", mock.Anything, 1, 80).Return([]models.Message{
		{ID: 5, SenderID: 2, ReceiverID: 1, Body: strPtr("latest"), CreatedAt: time.Unix(5, 0)},
	}, nil).Once()
	profiles.On("BulkProfiles", mock.Anything, []int{2}).Return([]models.Profile{{ID: 2, Username: "asha"}}, nil).Once()
	presenceStore.On("Bulk", mock.Anything, []int{2}).Return(map[int]models.PresenceRecord{
		2: {UserID: 2, IsOnline: true},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/dm/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Conversations []models.ConversationItem `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Conversations, 1)
	require.Equal(t, "asha", resp.Conversations[0].Peer.Username)
	require.Equal(t, "latest", resp.Conversations[0].LastMessage)
	require.True(t, resp.Conversations[0].Peer.OnlineStatus)
}
