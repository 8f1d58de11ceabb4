// Package scoring awards points for submissions, requests, and daily
// challenges, and keeps per-user contribution counters.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ranz0c/leakhub/internal/cache"
	prommetrics "github.com/ranz0c/leakhub/internal/metrics"
	"github.com/ranz0c/leakhub/internal/models"
	"github.com/ranz0c/leakhub/internal/repository"
	"github.com/ranz0c/leakhub/internal/service/verification"
	"github.com/ranz0c/leakhub/pkg/logger"
)

// Point rewards for contribution events.
const (
	// submissionPoints rewards any accepted submission.
	submissionPoints = 10
	// firstDiscoveryPoints rewards the first leak of a target.
	firstDiscoveryPoints = 100
	// nonModelBonus rewards first discoveries beyond plain model prompts.
	nonModelBonus = 50
	// toolDocsPoints rewards submissions documenting tool prompts.
	toolDocsPoints = 30

	// challengeMinConfidence is the initial confidence a submission needs to
	// count toward the daily challenge.
	challengeMinConfidence = 90
)

// SubmissionRepository interface for submission operations.
type SubmissionRepository interface {
	Create(submission *models.Submission) error
	CountByTargetKey(targetType, instance, functionName string) (int64, error)
}

// StatsRepository interface for user stats operations.
type StatsRepository interface {
	GetOrCreate(username string) (*models.UserStats, error)
	Save(stats *models.UserStats) error
}

// RequestRepository interface for leak request operations.
type RequestRepository interface {
	Create(request *models.LeakRequest) error
	GetOpenByInstance(instance string) ([]models.LeakRequest, error)
	Update(request *models.LeakRequest) error
	ToggleVote(username string, requestID uint) (bool, error)
	GetByID(id uint) (*models.LeakRequest, error)
}

// ChallengeRepository interface for daily challenge operations.
type ChallengeRepository interface {
	GetActive(now time.Time) (*models.DailyChallenge, error)
	HasCompleted(username string, challengeID uint) (bool, error)
	MarkCompleted(username string, challengeID uint) error
}

// AchievementEvaluator re-checks the achievement catalog after stat mutations.
type AchievementEvaluator interface {
	Evaluate(ctx context.Context, username string) ([]models.Achievement, error)
}

// Notifier announces notable events to an external channel. May be a no-op.
type Notifier interface {
	AnnounceFirstDiscovery(ctx context.Context, username, targetKey string) error
}

// KV backs up user stats outside the primary store. Write failures are
// non-fatal; the database remains the source of truth.
type KV interface {
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
}

// SubmissionReceipt summarizes everything a submission earned.
type SubmissionReceipt struct {
	Submission         *models.Submission   `json:"submission"`
	PointsAwarded      int                  `json:"points_awarded"`
	FirstDiscovery     bool                 `json:"first_discovery"`
	ChallengeCompleted bool                 `json:"challenge_completed"`
	BountyCollected    int                  `json:"bounty_collected"`
	NewAchievements    []models.Achievement `json:"new_achievements,omitempty"`
}

// Service awards points and maintains user statistics.
type Service struct {
	submissionRepo SubmissionRepository
	statsRepo      StatsRepository
	requestRepo    RequestRepository
	challengeRepo  ChallengeRepository
	achievements   AchievementEvaluator
	notifier       Notifier
	kv             KV
	log            *logger.Logger
}

// NewService creates a new scoring service.
func NewService(
	submissionRepo *repository.SubmissionRepository,
	statsRepo *repository.StatsRepository,
	requestRepo *repository.RequestRepository,
	challengeRepo *repository.ChallengeRepository,
	achievements AchievementEvaluator,
	notifier Notifier,
	kv *cache.RedisCache,
	log *logger.Logger,
) *Service {
	return &Service{
		submissionRepo: submissionRepo,
		statsRepo:      statsRepo,
		requestRepo:    requestRepo,
		challengeRepo:  challengeRepo,
		achievements:   achievements,
		notifier:       notifier,
		kv:             kv,
		log:            log,
	}
}

// NewServiceWithInterfaces creates a new scoring service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	submissionRepo SubmissionRepository,
	statsRepo StatsRepository,
	requestRepo RequestRepository,
	challengeRepo ChallengeRepository,
	achievements AchievementEvaluator,
	notifier Notifier,
	kv KV,
	log *logger.Logger,
) *Service {
	return &Service{
		submissionRepo: submissionRepo,
		statsRepo:      statsRepo,
		requestRepo:    requestRepo,
		challengeRepo:  challengeRepo,
		achievements:   achievements,
		notifier:       notifier,
		kv:             kv,
		log:            log,
	}
}

// RecordSubmission persists a new submission, detects first discoveries,
// fulfills open bounty requests for the target, checks the daily challenge,
// and awards all resulting points in one pass.
func (s *Service) RecordSubmission(ctx context.Context, sub *models.Submission) (*SubmissionReceipt, error) {
	if sub.TargetType == "" {
		sub.TargetType = models.TargetModel
	}
	sub.Confidence = verification.InitialConfidence(sub.Content)

	existing, err := s.submissionRepo.CountByTargetKey(sub.TargetType, sub.Instance, sub.FunctionName)
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions for target: %w", err)
	}
	sub.IsFirstDiscovery = existing == 0

	if err := s.submissionRepo.Create(sub); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	prommetrics.RecordSubmission(sub.TargetType)
	prommetrics.ObserveContentLength(len(sub.Content))

	stats, err := s.statsRepo.GetOrCreate(sub.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	receipt := &SubmissionReceipt{Submission: sub}
	stats.Submissions++
	points := submissionPoints
	prommetrics.RecordPointsAwarded("submission", submissionPoints)

	if sub.IsFirstDiscovery {
		receipt.FirstDiscovery = true
		stats.FirstDiscoveries++
		points += firstDiscoveryPoints
		prommetrics.RecordFirstDiscovery(sub.TargetType)
		prommetrics.RecordPointsAwarded("first_discovery", firstDiscoveryPoints)

		if sub.TargetType != models.TargetModel {
			points += nonModelBonus
			prommetrics.RecordPointsAwarded("non_model_discovery", nonModelBonus)
		}

		switch sub.TargetType {
		case models.TargetTool:
			stats.ToolsDiscovered++
		case models.TargetApp:
			stats.AppsDiscovered++
		case models.TargetAgent:
			stats.AgentsDiscovered++
		}

		if s.notifier != nil {
			if err := s.notifier.AnnounceFirstDiscovery(ctx, sub.Source, sub.TargetKey()); err != nil {
				s.log.Warn().Err(err).Msg("Failed to announce first discovery")
			}
		}
	}

	if sub.HasTools && sub.ToolPrompts != "" {
		points += toolDocsPoints
		prommetrics.RecordPointsAwarded("tool_documentation", toolDocsPoints)
	}

	bounty, err := s.collectBounties(sub)
	if err != nil {
		s.log.Error().Err(err).Str("instance", sub.Instance).Msg("Bounty collection failed")
	} else if bounty > 0 {
		receipt.BountyCollected = bounty
		points += bounty
		prommetrics.RecordPointsAwarded("bounty", bounty)
	}

	challengeReward, completed, err := s.checkChallenge(sub)
	if err != nil {
		s.log.Error().Err(err).Msg("Challenge check failed")
	} else if completed {
		receipt.ChallengeCompleted = true
		stats.ChallengesCompleted++
		points += challengeReward
		prommetrics.RecordPointsAwarded("challenge", challengeReward)
	}

	stats.TotalScore += points
	receipt.PointsAwarded = points

	if err := s.statsRepo.Save(stats); err != nil {
		return nil, fmt.Errorf("failed to save stats: %w", err)
	}
	s.backupStats(ctx, stats)

	unlocked, err := s.achievements.Evaluate(ctx, sub.Source)
	if err != nil {
		s.log.Error().Err(err).Str("username", sub.Source).Msg("Achievement evaluation failed")
	} else {
		receipt.NewAchievements = unlocked
	}

	s.log.Info().
		Uint("submission_id", sub.ID).
		Str("source", sub.Source).
		Str("target", sub.TargetKey()).
		Bool("first_discovery", sub.IsFirstDiscovery).
		Int("points", points).
		Msg("Submission recorded")

	return receipt, nil
}

// collectBounties fulfills open requests matching the submitted instance and
// returns the sum of their bounties.
func (s *Service) collectBounties(sub *models.Submission) (int, error) {
	requests, err := s.requestRepo.GetOpenByInstance(sub.Instance)
	if err != nil {
		return 0, err
	}

	total := 0
	for i := range requests {
		request := &requests[i]
		request.Status = models.RequestFulfilled
		if err := s.requestRepo.Update(request); err != nil {
			return total, err
		}
		total += request.Bounty

		s.log.Info().
			Uint("request_id", request.ID).
			Str("instance", request.Instance).
			Int("bounty", request.Bounty).
			Str("fulfilled_by", sub.Source).
			Msg("Leak request fulfilled")
	}
	return total, nil
}

// checkChallenge pays the daily challenge reward when the submission targets
// the challenge model with high enough initial confidence. Each user can
// complete a given challenge only once.
func (s *Service) checkChallenge(sub *models.Submission) (int, bool, error) {
	challenge, err := s.challengeRepo.GetActive(time.Now())
	if err != nil || challenge == nil {
		return 0, false, err
	}

	if sub.Instance != challenge.TargetModel || sub.Confidence < challengeMinConfidence {
		return 0, false, nil
	}

	done, err := s.challengeRepo.HasCompleted(sub.Source, challenge.ID)
	if err != nil || done {
		return 0, false, err
	}

	if err := s.challengeRepo.MarkCompleted(sub.Source, challenge.ID); err != nil {
		return 0, false, err
	}

	prommetrics.RecordChallengeCompletion(challenge.TargetModel)

	s.log.Info().
		Str("username", sub.Source).
		Str("target_model", challenge.TargetModel).
		Int("reward", challenge.Reward).
		Msg("Daily challenge completed")

	return challenge.Reward, true, nil
}

// RecordRequest persists a new leak request and credits the requester.
func (s *Service) RecordRequest(ctx context.Context, request *models.LeakRequest) error {
	if request.TargetType == "" {
		request.TargetType = models.TargetModel
	}
	request.Status = models.RequestOpen

	if err := s.requestRepo.Create(request); err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	stats, err := s.statsRepo.GetOrCreate(request.RequestedBy)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	stats.RequestsSubmitted++
	if err := s.statsRepo.Save(stats); err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	s.backupStats(ctx, stats)

	if _, err := s.achievements.Evaluate(ctx, request.RequestedBy); err != nil {
		s.log.Error().Err(err).Str("username", request.RequestedBy).Msg("Achievement evaluation failed")
	}

	return nil
}

// backupStats writes a secondary copy of the stats record to the key-value
// store. Failures only warn, the database stays the source of truth.
func (s *Service) backupStats(ctx context.Context, stats *models.UserStats) {
	if s.kv == nil {
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		s.log.Warn().Err(err).Str("username", stats.Username).Msg("Failed to encode stats backup")
		return
	}
	if err := s.kv.Set(ctx, "stats_backup_"+stats.Username, string(data), 0); err != nil {
		s.log.Warn().Err(err).Str("username", stats.Username).Msg("Failed to write stats backup")
	}
}

// ToggleVote flips a user's vote on a request and returns the new state.
func (s *Service) ToggleVote(username string, requestID uint) (bool, error) {
	if _, err := s.requestRepo.GetByID(requestID); err != nil {
		return false, fmt.Errorf("request not found: %w", err)
	}
	return s.requestRepo.ToggleVote(username, requestID)
}
