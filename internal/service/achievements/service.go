// Package achievements provides achievement evaluation and unlocking services.
package achievements

import (
	"context"
	"fmt"

	prommetrics "github.com/ranz0c/leakhub/internal/metrics"
	"github.com/ranz0c/leakhub/internal/models"
	"github.com/ranz0c/leakhub/internal/repository"
	"github.com/ranz0c/leakhub/pkg/logger"
)

// AchievementRepository interface for achievement unlock operations.
type AchievementRepository interface {
	HasUnlocked(username, achievementID string) (bool, error)
	Unlock(username, achievementID string) error
	ListByUser(username string) ([]models.UserAchievement, error)
}

// StatsRepository interface for user stats operations.
type StatsRepository interface {
	GetOrCreate(username string) (*models.UserStats, error)
	Save(stats *models.UserStats) error
}

// Notifier announces unlocks to an external channel. May be a no-op.
type Notifier interface {
	AnnounceAchievement(ctx context.Context, username string, achievement models.Achievement) error
}

// Service handles achievement evaluation and unlocking.
type Service struct {
	achievementRepo AchievementRepository
	statsRepo       StatsRepository
	notifier        Notifier
	log             *logger.Logger
}

// NewService creates a new achievement service.
func NewService(
	achievementRepo *repository.AchievementRepository,
	statsRepo *repository.StatsRepository,
	notifier Notifier,
	log *logger.Logger,
) *Service {
	return &Service{
		achievementRepo: achievementRepo,
		statsRepo:       statsRepo,
		notifier:        notifier,
		log:             log,
	}
}

// NewServiceWithInterfaces creates a new achievement service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	achievementRepo AchievementRepository,
	statsRepo StatsRepository,
	notifier Notifier,
	log *logger.Logger,
) *Service {
	return &Service{
		achievementRepo: achievementRepo,
		statsRepo:       statsRepo,
		notifier:        notifier,
		log:             log,
	}
}

// Evaluate checks the full catalog for a user and unlocks everything the
// user's current stats qualify for. Unlock points feed back into the total
// score, so the catalog is re-checked until no further unlock fires; this is
// how achievement points can push a user over the Expert score threshold in
// a single call. Returns the newly unlocked achievements in catalog order.
func (s *Service) Evaluate(ctx context.Context, username string) ([]models.Achievement, error) {
	stats, err := s.statsRepo.GetOrCreate(username)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	unlocked := make(map[string]bool, len(Catalog))
	existing, err := s.achievementRepo.ListByUser(username)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocks: %w", err)
	}
	for _, u := range existing {
		unlocked[u.AchievementID] = true
	}

	var newlyUnlocked []models.Achievement
	pointsAwarded := 0

	for {
		progressed := false

		for _, entry := range Catalog {
			if unlocked[entry.ID] {
				continue
			}
			if !entry.Qualifies(stats, unlocked) {
				continue
			}

			if err := s.achievementRepo.Unlock(username, entry.ID); err != nil {
				s.log.Error().
					Err(err).
					Str("username", username).
					Str("achievement", entry.ID).
					Msg("Failed to unlock achievement")
				continue
			}

			unlocked[entry.ID] = true
			stats.TotalScore += entry.Points
			pointsAwarded += entry.Points
			newlyUnlocked = append(newlyUnlocked, entry.Achievement)
			progressed = true

			prommetrics.RecordAchievementUnlocked(entry.ID)
			prommetrics.RecordPointsAwarded("achievement", entry.Points)

			s.log.Info().
				Str("username", username).
				Str("achievement", entry.ID).
				Int("points", entry.Points).
				Msg("Achievement unlocked")

			if s.notifier != nil {
				if err := s.notifier.AnnounceAchievement(ctx, username, entry.Achievement); err != nil {
					s.log.Warn().
						Err(err).
						Str("achievement", entry.ID).
						Msg("Failed to announce achievement")
				}
			}
		}

		if !progressed {
			break
		}
	}

	if pointsAwarded > 0 {
		if err := s.statsRepo.Save(stats); err != nil {
			return newlyUnlocked, fmt.Errorf("failed to save stats: %w", err)
		}
	}

	return newlyUnlocked, nil
}

// GetUserAchievements retrieves the unlocked catalog entries for a user.
func (s *Service) GetUserAchievements(username string) ([]models.Achievement, error) {
	unlocks, err := s.achievementRepo.ListByUser(username)
	if err != nil {
		return nil, err
	}

	result := make([]models.Achievement, 0, len(unlocks))
	for _, u := range unlocks {
		if entry := ByID(u.AchievementID); entry != nil {
			result = append(result, entry.Achievement)
		}
	}
	return result, nil
}

// GetCatalog returns the full achievement catalog.
func (s *Service) GetCatalog() []models.Achievement {
	result := make([]models.Achievement, len(Catalog))
	for i, entry := range Catalog {
		result[i] = entry.Achievement
	}
	return result
}
