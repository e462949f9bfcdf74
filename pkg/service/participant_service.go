package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/db"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// Visually ambiguous characters (0/O, 1/I/L) are excluded.
	inviteAlphabet   = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	inviteCodeLength = 8
	maxInviteTTL     = 168 * time.Hour
)

// PresenceSource reports push-based liveness, such as an open realtime connection.
type PresenceSource interface {
	IsConnected(sessionID, userID string) bool
}

// Invite is a freshly generated invite.
type Invite struct {
	Code      string
	ExpiresAt time.Time
}

// ParticipantService tracks who has joined a session, their role and liveness.
type ParticipantService struct {
	db             *gorm.DB
	locker         SessionLocker
	presence       PresenceSource
	presenceWindow time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

func NewParticipantService(db *gorm.DB, locker SessionLocker) *ParticipantService {
	return &ParticipantService{
		db:             db,
		locker:         locker,
		presenceWindow: models.DefaultPresenceWindow,
		logger:         utils.GetLogger(),
		now:            time.Now,
	}
}

// SetPresenceSource adds a push-based liveness signal to List.
func (s *ParticipantService) SetPresenceSource(p PresenceSource) {
	s.presence = p
}

func (s *ParticipantService) SetPresenceWindow(d time.Duration) {
	if d > 0 {
		s.presenceWindow = d
	}
}

// Membership returns the caller's participant row.
func (s *ParticipantService) Membership(ctx context.Context, sessionID, userID string) (*db.Participant, error) {
	var p db.Participant
	err := s.db.WithContext(ctx).Where("session_id = ? AND user_id = ?", sessionID, userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, fmt.Errorf("load participant: %w", err)
	}
	return &p, nil
}

// AddParticipant adds userID to a session with the given role.
// Adding a user who is already present returns the existing row.
func (s *ParticipantService) AddParticipant(ctx context.Context, sessionID, userID string, role models.ParticipantRole, displayName *string) (*db.Participant, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid participant role %q", role)
	}
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	var out *db.Participant
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		out, _, err = s.addParticipantTx(tx, session, userID, role, displayName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// addParticipantTx must run under the session lock.
func (s *ParticipantService) addParticipantTx(tx *gorm.DB, session *db.Session, userID string, role models.ParticipantRole, displayName *string) (*db.Participant, bool, error) {
	var existing []db.Participant
	if err := tx.Where("session_id = ?", session.ID).Find(&existing).Error; err != nil {
		return nil, false, fmt.Errorf("load participants: %w", err)
	}

	if role == models.ParticipantRolePartner && session.InitiatorID == userID {
		return nil, false, ErrAlreadyInitiator
	}
	for i := range existing {
		p := existing[i]
		if p.UserID != userID {
			continue
		}
		if p.Role == models.ParticipantRoleInitiator && role == models.ParticipantRolePartner {
			return nil, false, ErrAlreadyInitiator
		}
		return &p, false, nil
	}
	if len(existing) >= models.MaxParticipants {
		return nil, false, ErrMaxParticipants
	}
	if role == models.ParticipantRoleInitiator {
		for _, p := range existing {
			if p.Role == models.ParticipantRoleInitiator {
				return nil, false, ErrInitiatorExists
			}
		}
	}

	now := s.now()
	p := &db.Participant{
		ID:          uuid.New().String(),
		SessionID:   session.ID,
		UserID:      userID,
		Role:        role,
		DisplayName: normalizeName(displayName),
		JoinedAt:    now,
		LastSeenAt:  now,
		IsActive:    true,
	}
	if err := tx.Create(p).Error; err != nil {
		return nil, false, fmt.Errorf("create participant: %w", err)
	}
	return p, true, nil
}

// GenerateInvite replaces any previous invite code of the session.
func (s *ParticipantService) GenerateInvite(ctx context.Context, sessionID, userID string, ttl time.Duration) (*Invite, error) {
	if ttl <= 0 || ttl > maxInviteTTL {
		return nil, ErrInvalidInviteTTL
	}
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	session, err := loadSession(s.db.WithContext(ctx), sessionID)
	if err != nil {
		return nil, err
	}
	if session.InitiatorID != userID {
		return nil, ErrNotInitiator
	}
	if session.Mode != models.ModeCollaborative {
		return nil, ErrNotCollaborative
	}
	if session.Status != models.SessionStatusActive {
		return nil, ErrSessionNotActive
	}

	expiresAt := s.now().Add(ttl)
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return nil, err
		}
		var taken int64
		if err := s.db.WithContext(ctx).Model(&db.Session{}).Where("invite_code = ?", code).Count(&taken).Error; err != nil {
			return nil, fmt.Errorf("check invite code: %w", err)
		}
		if taken > 0 {
			continue
		}
		err = s.db.WithContext(ctx).Model(&db.Session{}).Where("id = ?", sessionID).
			Updates(map[string]any{"invite_code": code, "invite_expires_at": expiresAt}).Error
		if err != nil {
			return nil, fmt.Errorf("save invite: %w", err)
		}
		s.logger.Info("Invite generated", "session_id", sessionID, "expires_at", expiresAt)
		return &Invite{Code: code, ExpiresAt: expiresAt}, nil
	}
	return nil, errors.New("could not allocate a unique invite code")
}

// RevokeInvite clears the invite code and expiry.
func (s *ParticipantService) RevokeInvite(ctx context.Context, sessionID, userID string) error {
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	session, err := loadSession(s.db.WithContext(ctx), sessionID)
	if err != nil {
		return err
	}
	if session.InitiatorID != userID {
		return ErrNotInitiator
	}
	err = s.db.WithContext(ctx).Model(&db.Session{}).Where("id = ?", sessionID).
		Updates(map[string]any{"invite_code": nil, "invite_expires_at": nil}).Error
	if err != nil {
		return fmt.Errorf("revoke invite: %w", err)
	}
	return nil
}

// PreviewInvite describes the session behind a code without changing anything.
func (s *ParticipantService) PreviewInvite(ctx context.Context, code string) (*models.InvitePreview, error) {
	session, err := s.sessionByCode(s.db.WithContext(ctx), code)
	if err != nil {
		return nil, err
	}
	if session.InviteExpiresAt == nil || !s.now().Before(*session.InviteExpiresAt) {
		return nil, ErrInviteExpired
	}

	initiatorName := session.InitiatorID
	var initiator db.Participant
	err = s.db.WithContext(ctx).
		Where("session_id = ? AND role = ?", session.ID, models.ParticipantRoleInitiator).
		First(&initiator).Error
	if err == nil {
		initiatorName = initiator.Name()
	}

	return &models.InvitePreview{
		Topic:         session.Topic,
		InitiatorName: initiatorName,
		Status:        session.Status,
		CreatedAt:     session.CreatedAt,
		ExpiresAt:     *session.InviteExpiresAt,
	}, nil
}

// JoinByInviteCode adds userID as the partner. Joining again returns the same session.
func (s *ParticipantService) JoinByInviteCode(ctx context.Context, code, userID string, displayName *string) (*db.Session, error) {
	found, err := s.sessionByCode(s.db.WithContext(ctx), code)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, found.ID)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	var joined *db.Session
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := loadSession(tx, found.ID)
		if err != nil {
			return err
		}
		// The code may have been revoked or regenerated while we waited for the lock.
		if session.InviteCode == nil || *session.InviteCode != normalizeInviteCode(code) {
			return ErrInviteInvalid
		}
		if session.InitiatorID == userID {
			return ErrAlreadyInitiator
		}

		var existing db.Participant
		err = tx.Where("session_id = ? AND user_id = ?", session.ID, userID).First(&existing).Error
		switch {
		case err == nil:
			if existing.Role == models.ParticipantRoleInitiator {
				return ErrAlreadyInitiator
			}
			joined = session
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("load participant: %w", err)
		}

		if session.InviteExpiresAt == nil || !s.now().Before(*session.InviteExpiresAt) {
			return ErrInviteExpired
		}
		if session.Status != models.SessionStatusActive {
			return ErrSessionNotActive
		}
		if _, _, err := s.addParticipantTx(tx, session, userID, models.ParticipantRolePartner, displayName); err != nil {
			return err
		}
		joined = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Participant joined", "session_id", joined.ID, "user_id", userID)
	return joined, nil
}

// Heartbeat refreshes the caller's liveness.
func (s *ParticipantService) Heartbeat(ctx context.Context, sessionID, userID string) error {
	res := s.db.WithContext(ctx).Model(&db.Participant{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Updates(map[string]any{"last_seen_at": s.now(), "is_active": true})
	if res.Error != nil {
		return fmt.Errorf("update presence: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotParticipant
	}
	return nil
}

// Leave marks the caller inactive. The row is kept.
func (s *ParticipantService) Leave(ctx context.Context, sessionID, userID string) error {
	res := s.db.WithContext(ctx).Model(&db.Participant{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("update presence: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotParticipant
	}
	return nil
}

// List returns participants in join order with computed liveness.
func (s *ParticipantService) List(ctx context.Context, sessionID string) ([]models.ParticipantView, error) {
	var rows []db.Participant
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("joined_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	now := s.now()
	out := make([]models.ParticipantView, 0, len(rows))
	for i := range rows {
		p := &rows[i]
		out = append(out, models.ParticipantView{
			UserID:      p.UserID,
			Role:        p.Role,
			DisplayName: p.Name(),
			JoinedAt:    p.JoinedAt,
			LastSeenAt:  p.LastSeenAt,
			IsActive:    p.IsActive,
			IsOnline:    s.isOnline(p, now),
		})
	}
	return out, nil
}

func (s *ParticipantService) isOnline(p *db.Participant, now time.Time) bool {
	if p.IsActive && now.Sub(p.LastSeenAt) <= s.presenceWindow {
		return true
	}
	return s.presence != nil && s.presence.IsConnected(p.SessionID, p.UserID)
}

func (s *ParticipantService) sessionByCode(tx *gorm.DB, code string) (*db.Session, error) {
	code = normalizeInviteCode(code)
	if len(code) != inviteCodeLength {
		return nil, ErrInviteInvalid
	}
	var session db.Session
	if err := tx.Where("invite_code = ?", code).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteInvalid
		}
		return nil, fmt.Errorf("load session by invite: %w", err)
	}
	return &session, nil
}

func loadSession(tx *gorm.DB, sessionID string) (*db.Session, error) {
	var session db.Session
	if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &session, nil
}

func generateInviteCode() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(inviteAlphabet)))
	for i := 0; i < inviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		b.WriteByte(inviteAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func normalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func normalizeName(name *string) *string {
	if name == nil {
		return nil
	}
	v := strings.TrimSpace(*name)
	if v == "" {
		return nil
	}
	return &v
}
