// Package verification implements cross-submission comparison and the
// confidence state machine that promotes submissions to verified.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ranz0c/leakhub/internal/cache"
	prommetrics "github.com/ranz0c/leakhub/internal/metrics"
	"github.com/ranz0c/leakhub/internal/models"
	"github.com/ranz0c/leakhub/internal/repository"
	"github.com/ranz0c/leakhub/internal/textsim"
	"github.com/ranz0c/leakhub/pkg/logger"
)

// Comparison thresholds and rewards.
const (
	// MatchThreshold is the core similarity a pair must exceed to count as
	// corroboration.
	MatchThreshold = 85
	// matchBoost is the confidence gained by each submission of a matching pair.
	matchBoost = 5
	// comparisonPoints rewards each owner of a matching pair.
	comparisonPoints = 20
	// verificationPoints rewards an owner whose submission reaches verified state.
	verificationPoints = 50

	// advancedBoostThreshold is the composite advanced confidence above which
	// both submissions gain advancedBoost confidence. This path never awards
	// points or promotes to verified.
	advancedBoostThreshold = 0.7
	advancedBoost          = 20

	avgSimilarityKey = "avg_similarity"
	compareLockTTL   = 30 * time.Second
)

// ErrComparisonInProgress is returned when the same pair is already being compared.
var ErrComparisonInProgress = errors.New("verification: comparison already in progress")

// ErrSameSubmission is returned when a submission is compared against itself.
var ErrSameSubmission = errors.New("verification: cannot compare a submission with itself")

// SubmissionRepository interface for submission operations.
type SubmissionRepository interface {
	GetByID(id uint) (*models.Submission, error)
	Update(submission *models.Submission) error
}

// StatsRepository interface for user stats operations.
type StatsRepository interface {
	GetOrCreate(username string) (*models.UserStats, error)
	Save(stats *models.UserStats) error
}

// AchievementEvaluator re-checks the achievement catalog after stat mutations.
type AchievementEvaluator interface {
	Evaluate(ctx context.Context, username string) ([]models.Achievement, error)
}

// KV is the key-value collaborator used for the rolling similarity value and
// the per-pair comparison lock.
type KV interface {
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// ComparisonResult is the outcome of comparing two submissions.
type ComparisonResult struct {
	SubmissionA uint           `json:"submission_a"`
	SubmissionB uint           `json:"submission_b"`
	Scores      textsim.Scores `json:"scores"`
	Average     int            `json:"average"`
	Match       bool           `json:"match"`
	// NewlyVerified lists submission IDs promoted to verified by this comparison.
	NewlyVerified []uint `json:"newly_verified,omitempty"`
	// ConsensusLines holds lines both submissions agree on, present on a match.
	ConsensusLines []string `json:"consensus_lines,omitempty"`
}

// AdvancedResult is the outcome of the advanced analysis path.
type AdvancedResult struct {
	SubmissionA uint                     `json:"submission_a"`
	SubmissionB uint                     `json:"submission_b"`
	Analysis    textsim.AdvancedAnalysis `json:"analysis"`
	Boosted     bool                     `json:"boosted"`
}

// Service runs comparisons and drives the verification state machine.
type Service struct {
	submissionRepo SubmissionRepository
	statsRepo      StatsRepository
	achievements   AchievementEvaluator
	kv             KV
	log            *logger.Logger

	maxContentLength int

	// mu serializes comparisons so confidence updates have a single writer.
	mu sync.Mutex
}

// NewService creates a new verification service.
func NewService(
	submissionRepo *repository.SubmissionRepository,
	statsRepo *repository.StatsRepository,
	achievements AchievementEvaluator,
	kv *cache.RedisCache,
	maxContentLength int,
	log *logger.Logger,
) *Service {
	return &Service{
		submissionRepo:   submissionRepo,
		statsRepo:        statsRepo,
		achievements:     achievements,
		kv:               kv,
		maxContentLength: maxContentLength,
		log:              log,
	}
}

// NewServiceWithInterfaces creates a new verification service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	submissionRepo SubmissionRepository,
	statsRepo StatsRepository,
	achievements AchievementEvaluator,
	kv KV,
	maxContentLength int,
	log *logger.Logger,
) *Service {
	return &Service{
		submissionRepo:   submissionRepo,
		statsRepo:        statsRepo,
		achievements:     achievements,
		kv:               kv,
		maxContentLength: maxContentLength,
		log:              log,
	}
}

// Compare runs the four similarity metrics on a pair of submissions and
// applies the verification state machine when the pair corroborates.
func (s *Service) Compare(ctx context.Context, idA, idB uint) (*ComparisonResult, error) {
	if idA == idB {
		return nil, ErrSameSubmission
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lockKey := pairLockKey(idA, idB)
	acquired, err := s.kv.SetNX(ctx, lockKey, "1", compareLockTTL)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to acquire comparison lock, proceeding")
	} else if !acquired {
		return nil, ErrComparisonInProgress
	} else {
		defer func() {
			if err := s.kv.Del(ctx, lockKey); err != nil {
				s.log.Warn().Err(err).Str("key", lockKey).Msg("Failed to release comparison lock")
			}
		}()
	}

	a, err := s.submissionRepo.GetByID(idA)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission %d: %w", idA, err)
	}
	b, err := s.submissionRepo.GetByID(idB)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission %d: %w", idB, err)
	}

	start := time.Now()
	contentA := s.truncate(a.Content)
	contentB := s.truncate(b.Content)

	scores := textsim.Compare(contentA, contentB)
	average := scores.Average()
	prommetrics.ObserveComparisonDuration(time.Since(start).Seconds())

	prommetrics.ObserveSimilarityScore("char", float64(scores.CharMatch))
	prommetrics.ObserveSimilarityScore("word", float64(scores.WordMatch))
	prommetrics.ObserveSimilarityScore("structure", float64(scores.StructureMatch))
	prommetrics.ObserveSimilarityScore("core", float64(scores.CoreSimilarity))

	// Last write wins on the rolling average key.
	if err := s.kv.Set(ctx, avgSimilarityKey, strconv.Itoa(average), 0); err != nil {
		s.log.Warn().Err(err).Msg("Failed to persist average similarity")
	}

	result := &ComparisonResult{
		SubmissionA: idA,
		SubmissionB: idB,
		Scores:      scores,
		Average:     average,
	}

	if scores.CoreSimilarity <= MatchThreshold {
		prommetrics.RecordComparison("no_match")
		return result, nil
	}

	result.Match = true
	result.ConsensusLines = textsim.ConsensusLines(contentA, contentB)
	prommetrics.RecordComparison("match")

	for _, sub := range []*models.Submission{a, b} {
		verified, err := s.corroborate(ctx, sub)
		if err != nil {
			return nil, err
		}
		if verified {
			result.NewlyVerified = append(result.NewlyVerified, sub.ID)
		}
	}

	s.log.Info().
		Uint("submission_a", idA).
		Uint("submission_b", idB).
		Int("core_similarity", scores.CoreSimilarity).
		Int("average", average).
		Ints("newly_verified", toInts(result.NewlyVerified)).
		Msg("Submissions corroborated")

	return result, nil
}

// corroborate applies one matching comparison to a submission: confidence
// boost, verification count, possible promotion to verified, and the owner's
// comparison reward. Reports whether the submission was newly verified.
func (s *Service) corroborate(ctx context.Context, sub *models.Submission) (bool, error) {
	sub.Confidence += matchBoost
	if sub.Confidence > models.MaxConfidence {
		sub.Confidence = models.MaxConfidence
	}
	sub.Verifications++

	newlyVerified := false
	if sub.Confidence >= models.VerifiedConfidence && !sub.WasVerified {
		sub.WasVerified = true
		newlyVerified = true
	}

	if err := s.submissionRepo.Update(sub); err != nil {
		return false, fmt.Errorf("failed to update submission %d: %w", sub.ID, err)
	}

	stats, err := s.statsRepo.GetOrCreate(sub.Source)
	if err != nil {
		return false, fmt.Errorf("failed to load stats for %s: %w", sub.Source, err)
	}

	stats.Comparisons++
	stats.TotalScore += comparisonPoints
	prommetrics.RecordPointsAwarded("comparison", comparisonPoints)

	if newlyVerified {
		stats.VerifiedLeaks++
		stats.TotalScore += verificationPoints
		prommetrics.RecordVerification()
		prommetrics.RecordPointsAwarded("verification", verificationPoints)

		s.log.Info().
			Uint("submission_id", sub.ID).
			Str("source", sub.Source).
			Msg("Submission verified")
	}

	if err := s.statsRepo.Save(stats); err != nil {
		return false, fmt.Errorf("failed to save stats for %s: %w", sub.Source, err)
	}

	if _, err := s.achievements.Evaluate(ctx, sub.Source); err != nil {
		s.log.Error().Err(err).Str("username", sub.Source).Msg("Achievement evaluation failed")
	}

	return newlyVerified, nil
}

// CompareAdvanced runs the weighted advanced analysis on a pair. A composite
// confidence above the boost threshold raises both submissions' confidence
// but never awards points or promotes to verified.
func (s *Service) CompareAdvanced(ctx context.Context, idA, idB uint) (*AdvancedResult, error) {
	if idA == idB {
		return nil, ErrSameSubmission
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.submissionRepo.GetByID(idA)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission %d: %w", idA, err)
	}
	b, err := s.submissionRepo.GetByID(idB)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission %d: %w", idB, err)
	}

	analysis := textsim.AnalyzeAdvanced(s.truncate(a.Content), s.truncate(b.Content))

	result := &AdvancedResult{
		SubmissionA: idA,
		SubmissionB: idB,
		Analysis:    analysis,
	}

	if analysis.Confidence <= advancedBoostThreshold {
		prommetrics.RecordComparison("advanced_no_boost")
		return result, nil
	}

	result.Boosted = true
	prommetrics.RecordComparison("advanced_boost")

	for _, sub := range []*models.Submission{a, b} {
		sub.Confidence += advancedBoost
		if sub.Confidence > models.MaxConfidence {
			sub.Confidence = models.MaxConfidence
		}
		if err := s.submissionRepo.Update(sub); err != nil {
			return nil, fmt.Errorf("failed to update submission %d: %w", sub.ID, err)
		}
	}

	s.log.Info().
		Uint("submission_a", idA).
		Uint("submission_b", idB).
		Float64("composite", analysis.Confidence).
		Msg("Advanced analysis boosted pair")

	return result, nil
}

func (s *Service) truncate(content string) string {
	if s.maxContentLength > 0 && len(content) > s.maxContentLength {
		return content[:s.maxContentLength]
	}
	return content
}

func pairLockKey(idA, idB uint) string {
	if idA > idB {
		idA, idB = idB, idA
	}
	return fmt.Sprintf("compare_lock_%d_%d", idA, idB)
}

func toInts(ids []uint) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
