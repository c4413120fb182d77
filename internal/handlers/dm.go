package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/dm"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/presence"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/repositories"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/storage"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/ws"
)

// DMHandler manages the direct-messaging REST surface: conversation list,
// history, sends with attachments, seen receipts and the block toggle.
// Live delivery happens over the websocket; every mutation here is
// written through to storage first and only then published to the hub.
type DMHandler struct {
	messages repositories.MessageRepository
	profiles repositories.ProfileRepository
	blocks   repositories.BlockRepository
	store    storage.ObjectStore
	hub      *ws.Hub
	tracker  *presence.Tracker
}

// NewDMHandler builds a DMHandler.
func NewDMHandler(messages repositories.MessageRepository, profiles repositories.ProfileRepository, blocks repositories.BlockRepository, store storage.ObjectStore, hub *ws.Hub, tracker *presence.Tracker) *DMHandler {
	return &DMHandler{
		messages: messages,
		profiles: profiles,
		blocks:   blocks,
		store:    store,
		hub:      hub,
		tracker:  tracker,
	}
}

// ListConversations returns the derived conversation list for the caller.
func (h *DMHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt("userID")
	aggregator := dm.NewAggregator(userID, h.messages, h.profiles, h.tracker)
	items, err := aggregator.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": items})
}

// GetHistory returns every message between the caller and the peer,
// oldest first.
func (h *DMHandler) GetHistory(c *gin.Context) {
	userID := c.GetInt("userID")
	peerID, ok := parsePeerID(c, userID)
	if !ok {
		return
	}

	msgs, err := h.messages.GetConversation(c.Request.Context(), userID, peerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage stores a message and publishes it to both directional
// feeds. A message must carry a body or an attachment; that is checked
// before any storage call. When an attachment is present it is uploaded
// first, and an upload failure aborts the send entirely; no message row
// may ever reference a failed upload.
func (h *DMHandler) SendMessage(c *gin.Context) {
	userID := c.GetInt("userID")
	peerID, ok := parsePeerID(c, userID)
	if !ok {
		return
	}

	body := c.PostForm("body")
	file, err := c.FormFile("attachment")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attachment"})
		return
	}

	if body == "" && file == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message needs a body or an attachment"})
		return
	}

	blocked, err := h.blocks.IsBlockedEither(c.Request.Context(), userID, peerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify block state"})
		return
	}
	if blocked {
		c.JSON(http.StatusForbidden, gin.H{"error": "messaging is blocked between these users"})
		return
	}

	var attachmentURL *string
	if file != nil {
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attachment"})
			return
		}
		defer src.Close()

		path := fmt.Sprintf("dm/%s/%d-%s", ws.PairKey(userID, peerID), time.Now().UnixMilli(), filepath.Base(file.Filename))
		url, err := h.store.Upload(c.Request.Context(), path, src)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "attachment upload failed"})
			return
		}
		attachmentURL = &url
	}

	var bodyPtr *string
	if body != "" {
		bodyPtr = &body
	}

	msg, err := h.messages.CreateMessage(c.Request.Context(), userID, peerID, bodyPtr, attachmentURL)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSelfMessage), errors.Is(err, repositories.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		}
		return
	}

	h.hub.PublishMessage(msg)
	c.JSON(http.StatusCreated, msg)
}

// MarkSeen bulk-flips unseen messages from the peer to the caller and
// broadcasts the receipt on the pair channel.
func (h *DMHandler) MarkSeen(c *gin.Context) {
	userID := c.GetInt("userID")
	peerID, ok := parsePeerID(c, userID)
	if !ok {
		return
	}

	updated, err := h.messages.MarkConversationSeen(c.Request.Context(), userID, peerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark seen"})
		return
	}
	if updated > 0 {
		h.hub.PublishSeen(models.SeenReceipt{By: userID, Peer: peerID})
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// Block inserts the directed block edge.
func (h *DMHandler) Block(c *gin.Context) {
	userID := c.GetInt("userID")
	peerID, ok := parsePeerID(c, userID)
	if !ok {
		return
	}
	if err := h.blocks.Block(c.Request.Context(), userID, peerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to block user"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Unblock removes the directed block edge, returning the relation to its
// prior state for the pair.
func (h *DMHandler) Unblock(c *gin.Context) {
	userID := c.GetInt("userID")
	peerID, ok := parsePeerID(c, userID)
	if !ok {
		return
	}
	if err := h.blocks.Unblock(c.Request.Context(), userID, peerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unblock user"})
		return
	}
	c.Status(http.StatusNoContent)
}

func parsePeerID(c *gin.Context, userID int) (int, bool) {
	peerID, err := strconv.Atoi(c.Param("peer_id"))
	if err != nil || peerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid peer id"})
		return 0, false
	}
	if peerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
		return 0, false
	}
	return peerID, true
}
