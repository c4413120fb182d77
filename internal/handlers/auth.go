package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/auth"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/presence"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/repositories"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/validate"
)

// AuthHandler manages signup, login and logout.
type AuthHandler struct {
	profiles repositories.ProfileRepository
	tokens   *auth.TokenService
	tracker  *presence.Tracker
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(profiles repositories.ProfileRepository, tokens *auth.TokenService, tracker *presence.Tracker) *AuthHandler {
	return &AuthHandler{profiles: profiles, tokens: tokens, tracker: tracker}
}

// Signup registers a new account. The phone number must be a valid
// Indian mobile; uniqueness of email, username and phone is checked
// before and enforced by the database.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
		Phone    string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	phone, err := validate.NormalizePhoneIndia(req.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enter a valid Indian mobile number (10 digits starting 6-9)"})
		return
	}

	// best-effort pre-check for a friendlier error; the unique index is
	// what actually guarantees it
	taken, err := h.profiles.PhoneExists(c.Request.Context(), phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify phone"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "phone already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		return
	}

	profile, err := h.profiles.CreateProfile(c.Request.Context(), req.Email, req.Username, phone, string(hash))
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrEmailTaken),
			errors.Is(err, repositories.ErrPhoneTaken),
			errors.Is(err, repositories.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		}
		return
	}

	token, err := h.tokens.Issue(profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "profile": profile})
}

// Login verifies credentials and opens a session. Going online is part of
// session establishment.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, hash, err := h.profiles.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.tokens.Issue(profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue session"})
		return
	}

	h.tracker.Connect(c.Request.Context(), profile.ID)
	c.JSON(http.StatusOK, gin.H{"token": token, "profile": profile})
}

// Logout flips presence offline. The token is stateless, so there is
// nothing else to revoke here.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := c.GetInt("userID")
	h.tracker.Disconnect(c.Request.Context(), userID)
	c.Status(http.StatusNoContent)
}

// Me returns the caller's own profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt("userID")
	profile, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
