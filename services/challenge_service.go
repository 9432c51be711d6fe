package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"findplayer/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// Actor is the verified principal of the current request.
type Actor struct {
	UserID string
	Role   models.Role
}

type ChallengeService struct {
	DB     *gorm.DB
	Clock  clockwork.Clock
	Quota  *QuotaGuard
	Ledger *ExperienceLedger
	PostXP int64
}

func NewChallengeService(db *gorm.DB, clock clockwork.Clock, quota *QuotaGuard, ledger *ExperienceLedger, postXP int64) *ChallengeService {
	return &ChallengeService{DB: db, Clock: clock, Quota: quota, Ledger: ledger, PostXP: postXP}
}

type CreateChallengeInput struct {
	Title       string
	Description string
	XPValue     int64
}

// CreateChallenge posts a new challenge for a coach within their creation quota.
func (s *ChallengeService) CreateChallenge(ctx context.Context, actor Actor, in CreateChallengeInput) (*models.Challenge, error) {
	if actor.Role != models.RoleCoach {
		return nil, ErrForbidden
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationErr("title", "is required")
	}
	if in.XPValue <= 0 {
		return nil, validationErr("xp_value", "must be positive")
	}

	if _, err := s.Quota.enforce(ctx, actor.UserID, QuotaChallengeCreation); err != nil {
		return nil, err
	}

	challenge := &models.Challenge{
		ID:          uuid.NewString(),
		CoachID:     actor.UserID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		XPValue:     in.XPValue,
		CreatedAt:   s.Clock.Now().UTC(),
	}
	var err error
	if challenge.Slug, err = s.uniqueSlug(ctx, title, challenge.ID); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Create(challenge).Error; err != nil {
		return nil, fmt.Errorf("insert challenge: %w", err)
	}
	log.Printf("🏁 [CHALLENGE] %s created %q (%s, %d XP)", actor.UserID, challenge.Title, challenge.ID, challenge.XPValue)

	if s.Ledger != nil && s.PostXP > 0 {
		if _, err := s.Ledger.AwardXP(ctx, actor.UserID, challenge.ID, nil, s.PostXP, models.EarnedForChallengePost); err != nil {
			log.Printf("⚠️ [CHALLENGE] post XP for %s failed: %v", challenge.ID, err)
		}
	}
	return challenge, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound("challenge " + id)
	}
	var c models.Challenge
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("challenge " + id)
		}
		return nil, err
	}
	return &c, nil
}

// ListChallenges pages through challenges newest first, optionally for one coach.
func (s *ChallengeService) ListChallenges(ctx context.Context, coachID string, page, size int) ([]models.Challenge, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	q := s.DB.WithContext(ctx).Model(&models.Challenge{})
	if coachID != "" {
		q = q.Where("coach_id = ?", coachID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Challenge
	err := q.Order("created_at DESC").Limit(size).Offset((page - 1) * size).Find(&out).Error
	return out, total, err
}

func (s *ChallengeService) uniqueSlug(ctx context.Context, title, id string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "challenge"
	}
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Challenge{}).Where("slug = ?", base).Count(&count).Error; err != nil {
		return "", err
	}
	if count == 0 {
		return base, nil
	}
	return base + "-" + id[:8], nil
}
