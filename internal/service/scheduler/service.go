// Package scheduler provides the daily challenge rotation and digest jobs.
package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ranz0c/leakhub/internal/config"
	prommetrics "github.com/ranz0c/leakhub/internal/metrics"
	"github.com/ranz0c/leakhub/internal/models"
	"github.com/ranz0c/leakhub/internal/notify"
	"github.com/ranz0c/leakhub/internal/repository"
	"github.com/ranz0c/leakhub/pkg/logger"
)

// Service runs the background jobs: challenge rotation at midnight and the
// daily digest at the configured time.
type Service struct {
	config          *config.Config
	challengeRepo   *repository.ChallengeRepository
	submissionRepo  *repository.SubmissionRepository
	achievementRepo *repository.AchievementRepository
	notifyClient    *notify.Client
	log             *logger.Logger
	cron            *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(
	cfg *config.Config,
	challengeRepo *repository.ChallengeRepository,
	submissionRepo *repository.SubmissionRepository,
	achievementRepo *repository.AchievementRepository,
	notifyClient *notify.Client,
	log *logger.Logger,
) *Service {
	return &Service{
		config:          cfg,
		challengeRepo:   challengeRepo,
		submissionRepo:  submissionRepo,
		achievementRepo: achievementRepo,
		notifyClient:    notifyClient,
		log:             log,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Scheduler.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := time.LoadLocation(s.config.Scheduler.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Scheduler.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	if s.config.Challenges.Enabled {
		// Rotate at midnight so each challenge spans one day.
		if _, err := s.cron.AddFunc("0 0 * * *", func() {
			s.runChallengeRotation(context.Background())
		}); err != nil {
			return fmt.Errorf("failed to register challenge rotation job: %w", err)
		}

		// Make sure a challenge exists right away.
		s.runChallengeRotation(context.Background())
	}

	if s.config.Scheduler.DigestTime != "" {
		digestExpr, err := cronExpression(s.config.Scheduler.DigestTime)
		if err != nil {
			return fmt.Errorf("failed to build digest schedule: %w", err)
		}
		if _, err := s.cron.AddFunc(digestExpr, func() {
			s.runDailyDigest(context.Background())
		}); err != nil {
			return fmt.Errorf("failed to register digest job: %w", err)
		}
		s.log.Info().
			Str("schedule", digestExpr).
			Msg("Daily digest job registered")
	}

	s.cron.Start()

	entries := s.cron.Entries()
	nextRun := ""
	if len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("timezone", s.config.Scheduler.Timezone).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// cronExpression converts "HH:MM" to a daily cron expression.
func cronExpression(timeOfDay string) (string, error) {
	parts := strings.Split(timeOfDay, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time format %q, expected HH:MM", timeOfDay)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour %q", parts[0])
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute %q", parts[1])
	}

	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// runChallengeRotation draws a new challenge when none is active. The new
// challenge expires at the next UTC midnight.
func (s *Service) runChallengeRotation(_ context.Context) {
	now := time.Now().UTC()

	active, err := s.challengeRepo.GetActive(now)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to check active challenge")
		prommetrics.RecordSchedulerJobRun("challenge_rotation", "error")
		return
	}
	if active != nil {
		s.log.Debug().
			Str("target_model", active.TargetModel).
			Time("expires_at", active.ExpiresAt).
			Msg("Challenge still active, skipping rotation")
		return
	}

	pool := s.config.Challenges.Pool
	if len(pool) == 0 {
		return
	}
	target := pool[rand.Intn(len(pool))]

	challenge := &models.DailyChallenge{
		TargetModel: target.Model,
		Reward:      target.Reward,
		ExpiresAt:   nextMidnight(now),
	}
	if err := s.challengeRepo.Create(challenge); err != nil {
		s.log.Error().Err(err).Msg("Failed to create daily challenge")
		prommetrics.RecordSchedulerJobRun("challenge_rotation", "error")
		return
	}

	prommetrics.RecordSchedulerJobRun("challenge_rotation", "success")
	prommetrics.SetActiveChallengeReward(challenge.Reward)

	s.log.Info().
		Str("target_model", challenge.TargetModel).
		Int("reward", challenge.Reward).
		Time("expires_at", challenge.ExpiresAt).
		Msg("New daily challenge drawn")
}

// nextMidnight returns the next UTC midnight after t.
func nextMidnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}

// runDailyDigest sends yesterday's activity summary to the webhook.
func (s *Service) runDailyDigest(ctx context.Context) {
	start := time.Now()
	since := start.Add(-24 * time.Hour)

	submissions, err := s.submissionRepo.CountCreatedSince(since)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to count recent submissions")
		prommetrics.RecordSchedulerJobRun("daily_digest", "error")
		return
	}

	verifications, err := s.submissionRepo.CountVerifiedSince(since)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to count recent verifications")
		prommetrics.RecordSchedulerJobRun("daily_digest", "error")
		return
	}

	unlocks, err := s.achievementRepo.GetRecentlyUnlocked(since)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to load recent achievement unlocks")
	}

	challenge, err := s.challengeRepo.GetActive(time.Now().UTC())
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to load active challenge for digest")
	}

	if err := s.notifyClient.SendDailyDigest(ctx, int(submissions), int(verifications), len(unlocks), challenge); err != nil {
		s.log.Error().Err(err).Msg("Failed to send daily digest")
		prommetrics.RecordSchedulerJobRun("daily_digest", "error")
		return
	}

	prommetrics.RecordSchedulerJobRun("daily_digest", "success")

	s.log.Info().
		Int64("submissions", submissions).
		Int64("verifications", verifications).
		Int("achievement_unlocks", len(unlocks)).
		Dur("duration", time.Since(start)).
		Msg("Daily digest sent")
}
