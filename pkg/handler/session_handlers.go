package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/db"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/event"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/service"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/utils"
	"github.com/gin-gonic/gin"
)

// InviteSettings configures invite links.
type InviteSettings struct {
	DefaultTTL time.Duration
	BaseURL    string
}

// SessionHandler serves sessions, turns, invites, presence and the realtime stream.
type SessionHandler struct {
	sessions     *service.SessionService
	participants *service.ParticipantService
	ws           *event.WSHandler
	invites      InviteSettings
	logger       *slog.Logger
}

func NewSessionHandler(sessions *service.SessionService, participants *service.ParticipantService, ws *event.WSHandler, invites InviteSettings) *SessionHandler {
	if invites.DefaultTTL <= 0 {
		invites.DefaultTTL = 24 * time.Hour
	}
	return &SessionHandler{
		sessions:     sessions,
		participants: participants,
		ws:           ws,
		invites:      invites,
		logger:       utils.GetLogger(),
	}
}

// RegisterRoutes registers session routes
func (h *SessionHandler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/sessions")
	{
		sessions.POST("", h.Create)
		sessions.GET("", h.List)

		// Invites
		sessions.GET("/join", h.PreviewInvite)
		sessions.POST("/join", h.Join)

		sessions.GET("/:id", h.Get)
		sessions.GET("/:id/messages", h.Messages)
		sessions.POST("/:id/messages", h.SubmitMessage)
		sessions.GET("/:id/participants", h.Participants)
		sessions.POST("/:id/invite", h.GenerateInvite)
		sessions.DELETE("/:id/invite", h.RevokeInvite)

		// Lifecycle
		sessions.POST("/:id/pause", h.setStatus(models.SessionStatusPaused))
		sessions.POST("/:id/resume", h.setStatus(models.SessionStatusActive))
		sessions.POST("/:id/abandon", h.setStatus(models.SessionStatusAbandoned))

		// Presence
		sessions.POST("/:id/typing", h.Typing)
		sessions.POST("/:id/heartbeat", h.Heartbeat)
		sessions.POST("/:id/leave", h.Leave)
		sessions.GET("/:id/ws", h.Stream)
	}
}

// Create starts a session
// @Summary Create session
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body models.CreateSessionRequest true "Session"
// @Success 201 {object} map[string]any
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = userName(c)
	}

	session, welcome, err := h.sessions.CreateSession(c.Request.Context(), userID(c), req)
	if err != nil {
		h.logger.Error("Failed to create session", "user_id", userID(c), "error", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session, "welcomeMessage": welcome})
}

func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.sessions.ListSessions(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]*db.Session, 0, len(sessions))
	for i := range sessions {
		out = append(out, h.visible(&sessions[i], userID(c)))
	}
	c.JSON(http.StatusOK, out)
}

func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.GetSession(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.visible(session, userID(c)))
}

func (h *SessionHandler) Messages(c *gin.Context) {
	msgs, err := h.sessions.GetMessages(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// SubmitMessage runs one turn
// @Summary Submit utterance
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body models.SubmitMessageRequest true "Utterance"
// @Success 200 {object} models.SubmitMessageResponse
// @Router /sessions/{id}/messages [post]
func (h *SessionHandler) SubmitMessage(c *gin.Context) {
	var req models.SubmitMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := h.sessions.SubmitTurn(c.Request.Context(), c.Param("id"), userID(c), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SubmitMessageResponse{
		UserMessage:      out.UserMessage,
		AssistantMessage: out.AssistantMessage,
		SafetyAlert:      out.SafetyAlert,
		Stage:            out.Session.Stage,
		Status:           out.Session.Status,
	})
}

func (h *SessionHandler) Participants(c *gin.Context) {
	session, err := h.sessions.GetSession(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	list, err := h.participants.List(c.Request.Context(), session.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ParticipantsResponse{
		Participants:    list,
		IsCollaborative: session.Mode == models.ModeCollaborative,
	})
}

func (h *SessionHandler) GenerateInvite(c *gin.Context) {
	var req models.GenerateInviteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	ttl := h.invites.DefaultTTL
	if req.TTLHours != 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}

	inv, err := h.participants.GenerateInvite(c.Request.Context(), c.Param("id"), userID(c), ttl)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.InviteResponse{
		InviteCode: inv.Code,
		InviteURL:  h.invites.BaseURL + "/join/" + inv.Code,
		ExpiresAt:  inv.ExpiresAt,
	})
}

func (h *SessionHandler) RevokeInvite(c *gin.Context) {
	if err := h.participants.RevokeInvite(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) PreviewInvite(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	preview, err := h.participants.PreviewInvite(c.Request.Context(), code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *SessionHandler) Join(c *gin.Context) {
	var req models.JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DisplayName == nil {
		if name := userName(c); name != "" {
			req.DisplayName = &name
		}
	}

	session, err := h.participants.JoinByInviteCode(c.Request.Context(), req.InviteCode, userID(c), req.DisplayName)
	if err != nil {
		h.logger.Info("Join rejected", "user_id", userID(c), "error", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.JoinSessionResponse{SessionID: session.ID})
}

func (h *SessionHandler) setStatus(status models.SessionStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := h.sessions.SetStatus(c.Request.Context(), c.Param("id"), userID(c), status)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, h.visible(session, userID(c)))
	}
}

func (h *SessionHandler) Typing(c *gin.Context) {
	var req models.TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.sessions.SetTyping(c.Request.Context(), c.Param("id"), userID(c), req.IsTyping); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Heartbeat(c *gin.Context) {
	if err := h.participants.Heartbeat(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Leave(c *gin.Context) {
	if err := h.participants.Leave(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stream upgrades to the session's realtime channel.
func (h *SessionHandler) Stream(c *gin.Context) {
	sessionID := c.Param("id")
	p, err := h.participants.Membership(c.Request.Context(), sessionID, userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	sub := event.Subscriber{SessionID: sessionID, UserID: p.UserID, UserName: p.Name()}
	h.ws.Serve(c, sub, h.onFrame)
}

func (h *SessionHandler) onFrame(sub event.Subscriber, frame event.ClientFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	switch frame.Event {
	case event.TypingStart:
		err = h.sessions.SetTyping(ctx, sub.SessionID, sub.UserID, true)
	case event.TypingStop:
		err = h.sessions.SetTyping(ctx, sub.SessionID, sub.UserID, false)
	case event.FrameHeartbeat:
		err = h.participants.Heartbeat(ctx, sub.SessionID, sub.UserID)
	default:
		h.logger.Debug("Ignoring client frame", "session_id", sub.SessionID, "event", frame.Event)
	}
	if err != nil {
		h.logger.Warn("Client frame failed", "session_id", sub.SessionID, "event", frame.Event, "error", err)
	}
}

// visible hides the invite code from everyone but the initiator.
func (h *SessionHandler) visible(s *db.Session, userID string) *db.Session {
	if s.InitiatorID == userID {
		return s
	}
	out := *s
	out.InviteCode = nil
	out.InviteExpiresAt = nil
	return &out
}
