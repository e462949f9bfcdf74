package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/db"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileService stores per-user mediator personality settings.
type ProfileService struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db, logger: utils.GetLogger()}
}

// Get returns the user's profile, creating it with defaults on first use.
func (s *ProfileService) Get(ctx context.Context, userID string) (models.PersonalityProfile, error) {
	row, err := s.load(s.db.WithContext(ctx), userID)
	if err != nil {
		return models.PersonalityProfile{}, err
	}
	return row.Profile(), nil
}

// Update replaces the user's profile after validating every enum.
func (s *ProfileService) Update(ctx context.Context, userID string, p models.PersonalityProfile) (models.PersonalityProfile, error) {
	if err := p.Validate(); err != nil {
		return models.PersonalityProfile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if p.CulturalContext != nil && strings.TrimSpace(*p.CulturalContext) == "" {
		p.CulturalContext = nil
	}

	var out models.PersonalityProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.load(tx, userID)
		if err != nil {
			return err
		}
		row.Apply(p)
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		out = row.Profile()
		return nil
	})
	return out, err
}

// Reset replaces the profile with defaults. Profiles are never deleted.
func (s *ProfileService) Reset(ctx context.Context, userID string) (models.PersonalityProfile, error) {
	return s.Update(ctx, userID, models.DefaultPersonalityProfile())
}

func (s *ProfileService) load(tx *gorm.DB, userID string) (*db.PersonalityProfile, error) {
	defaults := models.DefaultPersonalityProfile()
	row := &db.PersonalityProfile{}
	seed := &db.PersonalityProfile{ID: uuid.New().String(), UserID: userID}
	seed.Apply(defaults)

	err := tx.Where(db.PersonalityProfile{UserID: userID}).Attrs(*seed).FirstOrCreate(row).Error
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return row, nil
}
