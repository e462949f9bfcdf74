package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/db"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/event"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	soloFallbackGreeting = "Welcome. I'm here to help you work through a difficult conversation, one step at a time. " +
		"To start, could you tell me in your own words what has been happening?"
	collaborativeFallbackGreeting = "Welcome to you both. I'll guide you through this conversation so that each of you has a turn to speak " +
		"while the other listens. To start, could the person who opened this session briefly describe what you'd like to work on?"
)

// Broadcaster publishes session events to connected clients.
type Broadcaster interface {
	Publish(sessionID string, ev event.Event)
}

// TurnOutcome is the persisted result of one submitted utterance.
type TurnOutcome struct {
	UserMessage      models.MessageView
	AssistantMessage *models.MessageView
	SafetyAlert      *models.SafetyAlert
	Session          *db.Session
}

// SessionService owns session lifecycle and turn processing.
type SessionService struct {
	db           *gorm.DB
	orchestrator *Orchestrator
	participants *ParticipantService
	profiles     *ProfileService
	locker       SessionLocker
	broadcaster  Broadcaster
	logger       *slog.Logger
	now          func() time.Time
}

func NewSessionService(db *gorm.DB, orchestrator *Orchestrator, participants *ParticipantService, profiles *ProfileService, locker SessionLocker, broadcaster Broadcaster) *SessionService {
	return &SessionService{
		db:           db,
		orchestrator: orchestrator,
		participants: participants,
		profiles:     profiles,
		locker:       locker,
		broadcaster:  broadcaster,
		logger:       utils.GetLogger(),
		now:          time.Now,
	}
}

// CreateSession starts a session at intake, registers the initiator and stores the welcome message.
func (s *SessionService) CreateSession(ctx context.Context, userID string, req models.CreateSessionRequest) (*db.Session, *models.MessageView, error) {
	if !req.Mode.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	welcome, err := s.orchestrator.Welcome(ctx, WelcomeRequest{
		Mode:             req.Mode,
		Profile:          profile,
		Topic:            req.Topic,
		PreparationNotes: req.PreparationNotes,
		ParticipantName:  strings.TrimSpace(req.DisplayName),
	})
	if err != nil {
		s.logger.Warn("Welcome generation failed, using fixed greeting", "user_id", userID, "error", err)
		welcome = fallbackGreeting(req.Mode)
	}

	now := s.now()
	session := &db.Session{
		ID:               uuid.New().String(),
		InitiatorID:      userID,
		Topic:            strings.TrimSpace(req.Topic),
		Mode:             req.Mode,
		Stage:            models.StageIntake,
		Status:           models.SessionStatusActive,
		PreparationNotes: req.PreparationNotes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	msg := &db.Message{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		Seq:       1,
		Role:      models.MessageRoleAssistant,
		Content:   welcome,
		Stage:     models.StageIntake,
		CreatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		name := req.DisplayName
		if _, _, err := s.participants.addParticipantTx(tx, session, userID, models.ParticipantRoleInitiator, &name); err != nil {
			return err
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("create welcome message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Session created", "session_id", session.ID, "mode", session.Mode)
	view := toMessageView(msg, "")
	return session, &view, nil
}

// ListSessions returns every session the user participates in, newest first.
func (s *SessionService) ListSessions(ctx context.Context, userID string) ([]db.Session, error) {
	var sessions []db.Session
	err := s.db.WithContext(ctx).
		Where("id IN (?)", s.db.Model(&db.Participant{}).Select("session_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// GetSession returns a session the user participates in.
func (s *SessionService) GetSession(ctx context.Context, sessionID, userID string) (*db.Session, error) {
	session, err := loadSession(s.db.WithContext(ctx), sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.participants.Membership(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return session, nil
}

// GetMessages returns the full history in persisted order.
func (s *SessionService) GetMessages(ctx context.Context, sessionID, userID string) ([]models.MessageView, error) {
	if _, err := s.GetSession(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	msgs, err := s.loadMessages(s.db.WithContext(ctx), sessionID)
	if err != nil {
		return nil, err
	}
	names, err := s.participantNames(s.db.WithContext(ctx), sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]models.MessageView, 0, len(msgs))
	for i := range msgs {
		out = append(out, toMessageView(&msgs[i], authorName(names, msgs[i].AuthorID)))
	}
	return out, nil
}

// SubmitTurn processes one utterance. Turns of a session are serialised by the session lock.
// Nothing is persisted when generation fails.
func (s *SessionService) SubmitTurn(ctx context.Context, sessionID, userID, content string) (*TurnOutcome, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyUtterance
	}

	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	gdb := s.db.WithContext(ctx)
	session, err := loadSession(gdb, sessionID)
	if err != nil {
		return nil, err
	}
	author, err := s.participants.Membership(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusActive {
		return nil, ErrSessionNotActive
	}

	history, err := s.loadMessages(gdb, sessionID)
	if err != nil {
		return nil, err
	}
	names, err := s.participantNames(gdb, sessionID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.Get(ctx, session.InitiatorID)
	if err != nil {
		return nil, err
	}

	receivedAt := s.now()
	result, err := s.orchestrator.Respond(ctx, RespondRequest{
		History:    toTurns(history, names),
		Stage:      session.Stage,
		Utterance:  content,
		AuthorName: author.Name(),
		Profile:    profile,
		Mode:       session.Mode,
	})
	if err != nil {
		s.logger.Error("Turn failed", "session_id", sessionID, "stage", session.Stage, "error", err)
		return nil, err
	}

	var lastSeq int64
	if n := len(history); n > 0 {
		lastSeq = history[n-1].Seq
	}
	authorID := userID
	userMsg := &db.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Seq:       lastSeq + 1,
		Role:      models.MessageRoleUser,
		Content:   content,
		Stage:     session.Stage,
		AuthorID:  &authorID,
		CreatedAt: receivedAt,
	}
	replyMsg := &db.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Seq:       lastSeq + 2,
		Role:      result.Role,
		Content:   result.Message,
		Stage:     session.Stage,
		CreatedAt: s.now(),
	}

	updates := map[string]any{"updated_at": s.now()}
	if result.NextStage != nil {
		next := *result.NextStage
		updates["stage"] = next
		updates["current_speaker_id"] = s.speakerFor(gdb, session, next)
		if next.IsTerminal() {
			updates["status"] = models.SessionStatusCompleted
		}
	}

	err = gdb.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.Session{}).
			Where("id = ? AND stage = ? AND status = ?", sessionID, session.Stage, models.SessionStatusActive).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update session: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStageConflict
		}
		if err := tx.Create(userMsg).Error; err != nil {
			return fmt.Errorf("create user message: %w", err)
		}
		if err := tx.Create(replyMsg).Error; err != nil {
			return fmt.Errorf("create reply message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := loadSession(gdb, sessionID)
	if err != nil {
		return nil, err
	}
	if result.NextStage != nil {
		s.logger.Info("Stage advanced", "session_id", sessionID, "from", session.Stage, "to", updated.Stage, "signal", result.Signal)
	}

	userView := toMessageView(userMsg, author.Name())
	replyView := toMessageView(replyMsg, "")
	s.publishMessage(userView)
	s.publishMessage(replyView)

	return &TurnOutcome{
		UserMessage:      userView,
		AssistantMessage: &replyView,
		SafetyAlert:      result.SafetyAlert,
		Session:          updated,
	}, nil
}

// SetStatus applies an explicit pause, resume or abandon.
func (s *SessionService) SetStatus(ctx context.Context, sessionID, userID string, next models.SessionStatus) (*db.Session, error) {
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	session, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if next == models.SessionStatusAbandoned && session.InitiatorID != userID {
		return nil, ErrNotInitiator
	}
	if !session.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, session.Status, next)
	}
	err = s.db.WithContext(ctx).Model(&db.Session{}).Where("id = ?", sessionID).
		Updates(map[string]any{"status": next, "updated_at": s.now()}).Error
	if err != nil {
		return nil, fmt.Errorf("update session status: %w", err)
	}
	session.Status = next
	s.logger.Info("Session status changed", "session_id", sessionID, "status", next)
	return session, nil
}

// SetTyping publishes a typing signal and refreshes the caller's presence.
func (s *SessionService) SetTyping(ctx context.Context, sessionID, userID string, isTyping bool) error {
	p, err := s.participants.Membership(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if err := s.participants.Heartbeat(ctx, sessionID, userID); err != nil {
		return err
	}
	if s.broadcaster != nil {
		s.broadcaster.Publish(sessionID, event.TypingEvent{UserID: userID, UserName: p.Name(), IsTyping: isTyping})
	}
	return nil
}

func (s *SessionService) publishMessage(m models.MessageView) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(m.SessionID, event.NewMessageEvent{
		ID:         m.ID,
		SessionID:  m.SessionID,
		Role:       string(m.Role),
		Content:    m.Content,
		Stage:      string(m.Stage),
		Author:     m.Author,
		AuthorName: m.AuthorName,
		CreatedAt:  m.CreatedAt,
	})
}

// speakerFor returns the user expected to speak during stage, or nil.
func (s *SessionService) speakerFor(tx *gorm.DB, session *db.Session, stage models.Stage) *string {
	if session.Mode != models.ModeCollaborative {
		return nil
	}
	role := stage.Speaker()
	if role == "" {
		return nil
	}
	var p db.Participant
	if err := tx.Where("session_id = ? AND role = ?", session.ID, role).First(&p).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("Failed to resolve current speaker", "session_id", session.ID, "error", err)
		}
		return nil
	}
	return &p.UserID
}

func (s *SessionService) loadMessages(tx *gorm.DB, sessionID string) ([]db.Message, error) {
	var msgs []db.Message
	if err := tx.Where("session_id = ?", sessionID).Order("seq ASC").Order("created_at ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	return msgs, nil
}

func (s *SessionService) participantNames(tx *gorm.DB, sessionID string) (map[string]string, error) {
	var rows []db.Participant
	if err := tx.Where("session_id = ?", sessionID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	names := make(map[string]string, len(rows))
	for i := range rows {
		names[rows[i].UserID] = rows[i].Name()
	}
	return names, nil
}

func fallbackGreeting(mode models.Mode) string {
	switch mode {
	case models.ModeCollaborative:
		return collaborativeFallbackGreeting
	case models.ModeSolo:
		return soloFallbackGreeting
	default:
		return soloFallbackGreeting
	}
}

func toTurns(msgs []db.Message, names map[string]string) []models.Turn {
	turns := make([]models.Turn, 0, len(msgs))
	for i := range msgs {
		turns = append(turns, models.Turn{
			Role:       msgs[i].Role,
			Content:    msgs[i].Content,
			AuthorName: authorName(names, msgs[i].AuthorID),
		})
	}
	return turns
}

func toMessageView(m *db.Message, authorName string) models.MessageView {
	return models.MessageView{
		ID:         m.ID,
		SessionID:  m.SessionID,
		Role:       m.Role,
		Content:    m.Content,
		Stage:      m.Stage,
		Author:     m.AuthorID,
		AuthorName: authorName,
		CreatedAt:  m.CreatedAt,
	}
}

func authorName(names map[string]string, authorID *string) string {
	if authorID == nil {
		return ""
	}
	if n, ok := names[*authorID]; ok {
		return n
	}
	return *authorID
}
