// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the leak verification platform.
var (
	// Counters.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leakhub_submissions_total",
			Help: "Total number of prompt submissions received",
		},
		[]string{"target_type"},
	)

	FirstDiscoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leakhub_first_discoveries_total",
			Help: "Total number of first discoveries recorded",
		},
		[]string{"target_type"},
	)

	ComparisonsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leakhub_comparisons_total",
			Help: "Total number of submission comparisons",
		},
		[]string{"status"},
	)

	VerificationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leakhub_verifications_total",
			Help: "Total number of submissions promoted to verified",
		},
	)

	AchievementsUnlockedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leakhub_achievements_unlocked_total",
			Help: "Total number of achievements unlocked",
		},
		[]string{"achievement_id"},
	)

	ChallengeCompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leakhub_challenge_completions_total",
			Help: "Total number of daily challenge completions",
		},
		[]string{"target_model"},
	)

	PointsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leakhub_points_awarded_total",
			Help: "Total points awarded across all users",
		},
		[]string{"reason"},
	)

	// Gauges.
	ActiveChallengeReward = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leakhub_active_challenge_reward",
			Help: "Reward of the currently active daily challenge, 0 when none",
		},
	)

	// Histograms.
	ComparisonSimilarityScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leakhub_comparison_similarity_score",
			Help:    "Average similarity score per comparison",
			Buckets: prometheus.LinearBuckets(0, 10, 11), // 0 to 100
		},
		[]string{"metric"},
	)

	ComparisonDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leakhub_comparison_duration_seconds",
			Help:    "Time taken to run a full comparison",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	SubmissionContentLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leakhub_submission_content_length",
			Help:    "Length of submitted prompt content in characters",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100 to ~100k chars
		},
	)

	// Scheduler metrics.
	SchedulerJobsRunTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leakhub_scheduler_jobs_run_total",
			Help: "Total scheduler job executions",
		},
		[]string{"job", "status"},
	)
)

// RecordSubmission records a received submission.
func RecordSubmission(targetType string) {
	SubmissionsTotal.WithLabelValues(targetType).Inc()
}

// RecordFirstDiscovery records a first discovery.
func RecordFirstDiscovery(targetType string) {
	FirstDiscoveriesTotal.WithLabelValues(targetType).Inc()
}

// RecordComparison records a comparison with its outcome status.
func RecordComparison(status string) {
	ComparisonsTotal.WithLabelValues(status).Inc()
}

// RecordVerification records a submission reaching verified state.
func RecordVerification() {
	VerificationsTotal.Inc()
}

// RecordAchievementUnlocked records an achievement unlock.
func RecordAchievementUnlocked(achievementID string) {
	AchievementsUnlockedTotal.WithLabelValues(achievementID).Inc()
}

// RecordChallengeCompletion records a daily challenge completion.
func RecordChallengeCompletion(targetModel string) {
	ChallengeCompletionsTotal.WithLabelValues(targetModel).Inc()
}

// RecordPointsAwarded records points awarded for a reason.
func RecordPointsAwarded(reason string, points int) {
	PointsAwardedTotal.WithLabelValues(reason).Add(float64(points))
}

// SetActiveChallengeReward sets the reward of the active challenge.
func SetActiveChallengeReward(reward int) {
	ActiveChallengeReward.Set(float64(reward))
}

// ObserveSimilarityScore observes one similarity metric's score.
func ObserveSimilarityScore(metric string, score float64) {
	ComparisonSimilarityScore.WithLabelValues(metric).Observe(score)
}

// ObserveComparisonDuration observes the duration of a comparison.
func ObserveComparisonDuration(seconds float64) {
	ComparisonDurationSeconds.Observe(seconds)
}

// ObserveContentLength observes the length of submitted content.
func ObserveContentLength(length int) {
	SubmissionContentLength.Observe(float64(length))
}

// RecordSchedulerJobRun records a scheduler job execution.
func RecordSchedulerJobRun(job, status string) {
	SchedulerJobsRunTotal.WithLabelValues(job, status).Inc()
}
