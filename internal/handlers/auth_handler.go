package handlers

import (
	"crypto/subtle"
	"field-verify/internal/gate"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionUserKey = "user"
	sessionIDKey   = "sid"
	ctxSessionID   = "session_id"
)

type Credentials struct {
	Username string
	Password string
}

type AuthHandler struct {
	creds    Credentials
	sessions *gate.Sessions
}

func NewAuthHandler(creds Credentials, sessions *gate.Sessions) *AuthHandler {
	return &AuthHandler{creds: creds, sessions: sessions}
}

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (h *AuthHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "BAD_REQUEST", "username and password are required")
		return
	}

	if !h.valid(req.Username, req.Password) {
		slog.Warn("Official login failed", "username", req.Username)
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid username or password")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, req.Username)
	session.Set(sessionIDKey, uuid.New().String())
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "could not save session")
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(gin.H{"user": req.Username}))
}

func (h *AuthHandler) valid(username, password string) bool {
	if h.creds.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.creds.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.creds.Password)) == 1
	return userOK && passOK
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	if sid, ok := session.Get(sessionIDKey).(string); ok {
		if n := h.sessions.DiscardSession(sid); n > 0 {
			slog.Info("Discarded verification attempts on logout", "count", n)
		}
	}
	session.Clear()
	_ = session.Save()
	c.JSON(http.StatusOK, CreateSuccessResponse(nil))
}

// AuthRequired rejects requests without a logged-in official session.
func AuthRequired(c *gin.Context) {
	session := sessions.Default(c)
	sid, ok := session.Get(sessionIDKey).(string)
	if session.Get(sessionUserKey) == nil || !ok || sid == "" {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
		return
	}
	c.Set(ctxSessionID, sid)
	c.Next()
}
