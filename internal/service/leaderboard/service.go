// Package leaderboard provides rankings, user profiles, platform statistics,
// and the activity timeline.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/ranz0c/leakhub/internal/cache"
	"github.com/ranz0c/leakhub/internal/models"
	"github.com/ranz0c/leakhub/internal/repository"
	"github.com/ranz0c/leakhub/internal/service/achievements"
	"github.com/ranz0c/leakhub/pkg/logger"
)

// Confidence bands used by the statistics endpoint.
const (
	verifiedBand       = 90
	highConfidenceBand = 80

	avgSimilarityKey = "avg_similarity"
)

// StatsRepository interface for user stats operations.
type StatsRepository interface {
	TopByScore(limit int) ([]models.UserStats, error)
	GetByUsername(username string) (*models.UserStats, error)
	CountUsers() (int64, error)
}

// AchievementRepository interface for achievement operations.
type AchievementRepository interface {
	ListByUser(username string) ([]models.UserAchievement, error)
	CountByUser(username string) (int64, error)
}

// SubmissionRepository interface for submission operations.
type SubmissionRepository interface {
	GetAll() ([]models.Submission, error)
	GetBySource(source string) ([]models.Submission, error)
}

// KV reads the rolling similarity value written by the verification service.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
}

// Entry represents a single entry in the leaderboard.
type Entry struct {
	Rank             int    `json:"rank"`
	Username         string `json:"username"`
	TotalScore       int    `json:"total_score"`
	Submissions      int    `json:"submissions"`
	FirstDiscoveries int    `json:"first_discoveries"`
	VerifiedLeaks    int    `json:"verified_leaks"`
	AchievementCount int    `json:"achievement_count"`
}

// UserProfile bundles a user's stats, rank, achievements and submissions.
type UserProfile struct {
	Stats        *models.UserStats    `json:"stats"`
	Rank         int                  `json:"rank"`
	Achievements []models.Achievement `json:"achievements"`
	Submissions  []models.Submission  `json:"submissions"`
}

// TimelineEvent is one first-discovery or verification event.
type TimelineEvent struct {
	Type         string    `json:"type"` // "first_discovery" or "verified"
	Username     string    `json:"username"`
	TargetType   string    `json:"target_type"`
	Instance     string    `json:"instance"`
	SubmissionID uint      `json:"submission_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Statistics holds platform-wide totals.
type Statistics struct {
	TotalSubmissions int `json:"total_submissions"`
	UniqueTargets    int `json:"unique_targets"`
	Verified         int `json:"verified"`
	HighConfidence   int `json:"high_confidence"`
	TotalUsers       int `json:"total_users"`
	// AvgSimilarity is the rolling average of the last comparison, -1 when
	// no comparison has run yet.
	AvgSimilarity int `json:"avg_similarity"`
}

// Service builds leaderboards and aggregate views.
type Service struct {
	statsRepo       StatsRepository
	achievementRepo AchievementRepository
	submissionRepo  SubmissionRepository
	kv              KV
	log             *logger.Logger
}

// NewService creates a new leaderboard service with concrete repository types.
func NewService(
	statsRepo *repository.StatsRepository,
	achievementRepo *repository.AchievementRepository,
	submissionRepo *repository.SubmissionRepository,
	kv *cache.RedisCache,
	log *logger.Logger,
) *Service {
	return &Service{
		statsRepo:       statsRepo,
		achievementRepo: achievementRepo,
		submissionRepo:  submissionRepo,
		kv:              kv,
		log:             log,
	}
}

// NewServiceWithInterfaces creates a new leaderboard service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	statsRepo StatsRepository,
	achievementRepo AchievementRepository,
	submissionRepo SubmissionRepository,
	kv KV,
	log *logger.Logger,
) *Service {
	return &Service{
		statsRepo:       statsRepo,
		achievementRepo: achievementRepo,
		submissionRepo:  submissionRepo,
		kv:              kv,
		log:             log,
	}
}

// GetLeaderboard returns users ranked by total score.
func (s *Service) GetLeaderboard(limit int) ([]Entry, error) {
	stats, err := s.statsRepo.TopByScore(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load rankings: %w", err)
	}

	entries := make([]Entry, 0, len(stats))
	for i, st := range stats {
		count, err := s.achievementRepo.CountByUser(st.Username)
		if err != nil {
			s.log.Warn().Err(err).Str("username", st.Username).Msg("Failed to count achievements")
		}

		entries = append(entries, Entry{
			Rank:             i + 1,
			Username:         st.Username,
			TotalScore:       st.TotalScore,
			Submissions:      st.Submissions,
			FirstDiscoveries: st.FirstDiscoveries,
			VerifiedLeaks:    st.VerifiedLeaks,
			AchievementCount: int(count),
		})
	}
	return entries, nil
}

// GetUserProfile returns a user's stats, rank, achievements and submissions.
func (s *Service) GetUserProfile(username string) (*UserProfile, error) {
	stats, err := s.statsRepo.GetByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	unlocks, err := s.achievementRepo.ListByUser(username)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	submissions, err := s.submissionRepo.GetBySource(username)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	rank, err := s.getUserRank(username)
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("Failed to compute rank")
	}

	profile := &UserProfile{
		Stats:       stats,
		Rank:        rank,
		Submissions: submissions,
	}
	for _, u := range unlocks {
		if entry := achievements.ByID(u.AchievementID); entry != nil {
			profile.Achievements = append(profile.Achievements, entry.Achievement)
		}
	}
	return profile, nil
}

// getUserRank finds a user's position in the full ranking.
func (s *Service) getUserRank(username string) (int, error) {
	stats, err := s.statsRepo.TopByScore(0)
	if err != nil {
		return 0, err
	}
	for i, st := range stats {
		if st.Username == username {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("user not ranked")
}

// GetTimeline returns first-discovery and verification events, newest first.
func (s *Service) GetTimeline(limit int) ([]TimelineEvent, error) {
	submissions, err := s.submissionRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	events := make([]TimelineEvent, 0, len(submissions))
	for _, sub := range submissions {
		if sub.IsFirstDiscovery {
			events = append(events, TimelineEvent{
				Type:         "first_discovery",
				Username:     sub.Source,
				TargetType:   sub.NormalizedTargetType(),
				Instance:     sub.Instance,
				SubmissionID: sub.ID,
				OccurredAt:   sub.CreatedAt,
			})
		}
		if sub.WasVerified {
			events = append(events, TimelineEvent{
				Type:         "verified",
				Username:     sub.Source,
				TargetType:   sub.NormalizedTargetType(),
				Instance:     sub.Instance,
				SubmissionID: sub.ID,
				OccurredAt:   sub.UpdatedAt,
			})
		}
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].OccurredAt.After(events[j].OccurredAt)
	})

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// GetStatistics returns platform-wide totals.
func (s *Service) GetStatistics(ctx context.Context) (*Statistics, error) {
	submissions, err := s.submissionRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	users, err := s.statsRepo.CountUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	stats := &Statistics{
		TotalSubmissions: len(submissions),
		TotalUsers:       int(users),
		AvgSimilarity:    -1,
	}

	targets := make(map[string]bool)
	for _, sub := range submissions {
		targets[sub.TargetKey()] = true
		if sub.Confidence >= verifiedBand {
			stats.Verified++
		}
		if sub.Confidence >= highConfidenceBand {
			stats.HighConfidence++
		}
	}
	stats.UniqueTargets = len(targets)

	if raw, err := s.kv.Get(ctx, avgSimilarityKey); err == nil {
		if avg, convErr := strconv.Atoi(raw); convErr == nil {
			stats.AvgSimilarity = avg
		}
	} else if !errors.Is(err, cache.ErrNotFound) {
		s.log.Warn().Err(err).Msg("Failed to read average similarity")
	}

	return stats, nil
}
