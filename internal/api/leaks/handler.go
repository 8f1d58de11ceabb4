// Package leaks provides the REST API for submissions, comparisons,
// leaderboards, requests, challenges, and the key-value passthrough.
package leaks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ranz0c/leakhub/internal/cache"
	"github.com/ranz0c/leakhub/internal/models"
	"github.com/ranz0c/leakhub/internal/service/leaderboard"
	"github.com/ranz0c/leakhub/internal/service/scoring"
	"github.com/ranz0c/leakhub/internal/service/verification"
	"github.com/ranz0c/leakhub/pkg/logger"
)

// ScoringService interface for submission and request scoring.
type ScoringService interface {
	RecordSubmission(ctx context.Context, sub *models.Submission) (*scoring.SubmissionReceipt, error)
	RecordRequest(ctx context.Context, request *models.LeakRequest) error
	ToggleVote(username string, requestID uint) (bool, error)
}

// VerificationService interface for comparison operations.
type VerificationService interface {
	Compare(ctx context.Context, idA, idB uint) (*verification.ComparisonResult, error)
	CompareAdvanced(ctx context.Context, idA, idB uint) (*verification.AdvancedResult, error)
}

// LeaderboardService interface for ranking and aggregate views.
type LeaderboardService interface {
	GetLeaderboard(limit int) ([]leaderboard.Entry, error)
	GetUserProfile(username string) (*leaderboard.UserProfile, error)
	GetTimeline(limit int) ([]leaderboard.TimelineEvent, error)
	GetStatistics(ctx context.Context) (*leaderboard.Statistics, error)
}

// AchievementService interface for catalog access.
type AchievementService interface {
	GetCatalog() []models.Achievement
	GetUserAchievements(username string) ([]models.Achievement, error)
}

// SubmissionStore interface for submission reads and the bulk reset.
type SubmissionStore interface {
	GetAll() ([]models.Submission, error)
	GetRecent(limit int) ([]models.Submission, error)
	GetByID(id uint) (*models.Submission, error)
	GetByInstance(instance string) ([]models.Submission, error)
	ClearAll() error
}

// StatsStore interface for the bulk reset.
type StatsStore interface {
	ClearAll() error
}

// RequestStore interface for request listing.
type RequestStore interface {
	GetAll(sortBy string) ([]models.LeakRequest, error)
}

// ChallengeStore interface for the challenge endpoint.
type ChallengeStore interface {
	GetActive(now time.Time) (*models.DailyChallenge, error)
	CountCompletions(challengeID uint) (int64, error)
}

// KV is the key-value passthrough collaborator.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Handler handles leak platform API requests.
type Handler struct {
	scoringService      ScoringService
	verificationService VerificationService
	leaderboardService  LeaderboardService
	achievementService  AchievementService
	submissions         SubmissionStore
	stats               StatsStore
	requests            RequestStore
	challenges          ChallengeStore
	kv                  KV
	log                 *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	scoringService ScoringService,
	verificationService VerificationService,
	leaderboardService LeaderboardService,
	achievementService AchievementService,
	submissions SubmissionStore,
	stats StatsStore,
	requests RequestStore,
	challenges ChallengeStore,
	kv KV,
	log *logger.Logger,
) *Handler {
	return &Handler{
		scoringService:      scoringService,
		verificationService: verificationService,
		leaderboardService:  leaderboardService,
		achievementService:  achievementService,
		submissions:         submissions,
		stats:               stats,
		requests:            requests,
		challenges:          challenges,
		kv:                  kv,
		log:                 log,
	}
}

// RegisterRoutes registers all API routes on the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/leaks", h.CreateLeak)
		api.GET("/leaks", h.ListLeaks)
		api.GET("/leaks/:id", h.GetLeak)
		api.POST("/leaks/compare", h.CompareLeaks)
		api.POST("/leaks/compare/advanced", h.CompareLeaksAdvanced)

		api.GET("/leaderboard", h.GetLeaderboard)
		api.GET("/users/:username", h.GetUserProfile)
		api.GET("/users/:username/achievements", h.GetUserAchievements)
		api.GET("/achievements", h.GetAchievementCatalog)

		api.POST("/requests", h.CreateRequest)
		api.GET("/requests", h.ListRequests)
		api.POST("/requests/:id/vote", h.VoteRequest)

		api.GET("/challenge", h.GetChallenge)
		api.GET("/statistics", h.GetStatistics)
		api.GET("/timeline", h.GetTimeline)

		api.GET("/data/:key", h.GetData)
		api.POST("/data/:key", h.SetData)
		api.DELETE("/data/:key", h.DeleteData)
		api.DELETE("/data", h.ClearData)
	}
}

// createLeakRequest is the POST /leaks payload.
type createLeakRequest struct {
	Source        string `json:"source" binding:"required"`
	TargetType    string `json:"target_type"`
	Instance      string `json:"instance" binding:"required"`
	FunctionName  string `json:"function_name"`
	ParentSystem  string `json:"parent_system"`
	TargetURL     string `json:"target_url"`
	Content       string `json:"content" binding:"required"`
	Context       string `json:"context"`
	HasTools      bool   `json:"has_tools"`
	ToolPrompts   string `json:"tool_prompts"`
	RequiresLogin bool   `json:"requires_login"`
	RequiresPaid  bool   `json:"requires_paid"`
	AccessNotes   string `json:"access_notes"`
}

// CreateLeak accepts a new submission.
// POST /api/v1/leaks.
func (h *Handler) CreateLeak(c *gin.Context) {
	var req createLeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.TargetType != "" && !models.ValidTargetType(req.TargetType) {
		h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("unknown target type %q", req.TargetType))
		return
	}

	submission := &models.Submission{
		Source:        req.Source,
		TargetType:    req.TargetType,
		Instance:      req.Instance,
		FunctionName:  req.FunctionName,
		ParentSystem:  req.ParentSystem,
		TargetURL:     req.TargetURL,
		Content:       req.Content,
		Context:       req.Context,
		HasTools:      req.HasTools,
		ToolPrompts:   req.ToolPrompts,
		RequiresLogin: req.RequiresLogin,
		RequiresPaid:  req.RequiresPaid,
		AccessNotes:   req.AccessNotes,
	}

	receipt, err := h.scoringService.RecordSubmission(c.Request.Context(), submission)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to record submission")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to record submission")
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// ListLeaks lists submissions, optionally filtered by instance or limited to
// the most recent.
// GET /api/v1/leaks?instance=gpt-5 or /api/v1/leaks?limit=20.
func (h *Handler) ListLeaks(c *gin.Context) {
	var (
		submissions []models.Submission
		err         error
	)

	switch {
	case c.Query("instance") != "":
		submissions, err = h.submissions.GetByInstance(c.Query("instance"))
	case c.Query("limit") != "":
		var limit int
		limit, err = h.parseLimit(c, 0)
		if err != nil {
			h.errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		submissions, err = h.submissions.GetRecent(limit)
	default:
		submissions, err = h.submissions.GetAll()
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list submissions")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to list submissions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaks": submissions,
		"total": len(submissions),
	})
}

// GetLeak returns one submission.
// GET /api/v1/leaks/:id.
func (h *Handler) GetLeak(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	submission, err := h.submissions.GetByID(id)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Submission not found")
		return
	}

	c.JSON(http.StatusOK, submission)
}

// compareRequest is the POST /leaks/compare payload.
type compareRequest struct {
	SubmissionA uint `json:"submission_a" binding:"required"`
	SubmissionB uint `json:"submission_b" binding:"required"`
}

// CompareLeaks runs the four similarity metrics on a pair of submissions.
// POST /api/v1/leaks/compare.
func (h *Handler) CompareLeaks(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.verificationService.Compare(c.Request.Context(), req.SubmissionA, req.SubmissionB)
	if err != nil {
		switch {
		case errors.Is(err, verification.ErrSameSubmission):
			h.errorResponse(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, verification.ErrComparisonInProgress):
			h.errorResponse(c, http.StatusConflict, err.Error())
		default:
			h.log.Error().Err(err).Msg("Comparison failed")
			h.errorResponse(c, http.StatusInternalServerError, "Comparison failed")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// CompareLeaksAdvanced runs the weighted advanced analysis on a pair.
// POST /api/v1/leaks/compare/advanced.
func (h *Handler) CompareLeaksAdvanced(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.verificationService.CompareAdvanced(c.Request.Context(), req.SubmissionA, req.SubmissionB)
	if err != nil {
		if errors.Is(err, verification.ErrSameSubmission) {
			h.errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Advanced comparison failed")
		h.errorResponse(c, http.StatusInternalServerError, "Advanced comparison failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLeaderboard returns users ranked by score.
// GET /api/v1/leaderboard?limit=10.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit, err := h.parseLimit(c, 10)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.leaderboardService.GetLeaderboard(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get leaderboard")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard":   entries,
		"total_entries": len(entries),
		"generated_at":  time.Now().UTC(),
	})
}

// GetUserProfile returns a user's stats, rank, achievements and submissions.
// GET /api/v1/users/:username.
func (h *Handler) GetUserProfile(c *gin.Context) {
	username := c.Param("username")

	profile, err := h.leaderboardService.GetUserProfile(username)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "User not found")
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetUserAchievements returns the achievements a user has unlocked.
// GET /api/v1/users/:username/achievements.
func (h *Handler) GetUserAchievements(c *gin.Context) {
	username := c.Param("username")

	achievements, err := h.achievementService.GetUserAchievements(username)
	if err != nil {
		h.log.Error().Err(err).Str("username", username).Msg("Failed to get achievements")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve achievements")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":     username,
		"achievements": achievements,
		"total":        len(achievements),
	})
}

// GetAchievementCatalog returns the full achievement catalog.
// GET /api/v1/achievements.
func (h *Handler) GetAchievementCatalog(c *gin.Context) {
	catalog := h.achievementService.GetCatalog()
	c.JSON(http.StatusOK, gin.H{
		"achievements": catalog,
		"total":        len(catalog),
	})
}

// createLeakRequestPayload is the POST /requests payload.
type createLeakRequestPayload struct {
	TargetType    string `json:"target_type"`
	Instance      string `json:"instance" binding:"required"`
	TargetURL     string `json:"target_url"`
	Description   string `json:"description"`
	Bounty        int    `json:"bounty"`
	RequestedBy   string `json:"requested_by" binding:"required"`
	RequiresLogin bool   `json:"requires_login"`
	RequiresPaid  bool   `json:"requires_paid"`
}

// CreateRequest accepts a new leak request.
// POST /api/v1/requests.
func (h *Handler) CreateRequest(c *gin.Context) {
	var req createLeakRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.Bounty < 0 {
		h.errorResponse(c, http.StatusBadRequest, "bounty must not be negative")
		return
	}
	if req.TargetType != "" && !models.ValidTargetType(req.TargetType) {
		h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("unknown target type %q", req.TargetType))
		return
	}

	request := &models.LeakRequest{
		TargetType:    req.TargetType,
		Instance:      req.Instance,
		TargetURL:     req.TargetURL,
		Description:   req.Description,
		Bounty:        req.Bounty,
		RequestedBy:   req.RequestedBy,
		RequiresLogin: req.RequiresLogin,
		RequiresPaid:  req.RequiresPaid,
	}

	if err := h.scoringService.RecordRequest(c.Request.Context(), request); err != nil {
		h.log.Error().Err(err).Msg("Failed to record request")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to record request")
		return
	}

	c.JSON(http.StatusCreated, request)
}

// ListRequests lists leak requests.
// GET /api/v1/requests?sort=votes|bounty|recent.
func (h *Handler) ListRequests(c *gin.Context) {
	requests, err := h.requests.GetAll(c.DefaultQuery("sort", "votes"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list requests")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to list requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"total":    len(requests),
	})
}

// voteRequest is the POST /requests/:id/vote payload.
type voteRequest struct {
	Username string `json:"username" binding:"required"`
}

// VoteRequest toggles a vote on a request.
// POST /api/v1/requests/:id/vote.
func (h *Handler) VoteRequest(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	voted, err := h.scoringService.ToggleVote(req.Username, id)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Request not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request_id": id,
		"username":   req.Username,
		"voted":      voted,
	})
}

// GetChallenge returns the active daily challenge with its time remaining.
// GET /api/v1/challenge.
func (h *Handler) GetChallenge(c *gin.Context) {
	now := time.Now().UTC()
	challenge, err := h.challenges.GetActive(now)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load challenge")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to load challenge")
		return
	}
	if challenge == nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}

	completions, err := h.challenges.CountCompletions(challenge.ID)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to count challenge completions")
	}

	c.JSON(http.StatusOK, gin.H{
		"active":            true,
		"challenge":         challenge,
		"completions":       completions,
		"seconds_remaining": int(challenge.ExpiresAt.Sub(now).Seconds()),
	})
}

// GetStatistics returns platform-wide totals.
// GET /api/v1/statistics.
func (h *Handler) GetStatistics(c *gin.Context) {
	stats, err := h.leaderboardService.GetStatistics(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute statistics")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetTimeline returns first-discovery and verification events.
// GET /api/v1/timeline?limit=50.
func (h *Handler) GetTimeline(c *gin.Context) {
	limit, err := h.parseLimit(c, 50)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.leaderboardService.GetTimeline(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build timeline")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to build timeline")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  len(events),
	})
}

// setDataRequest is the POST /data/:key payload.
type setDataRequest struct {
	Value string `json:"value" binding:"required"`
}

// GetData reads a raw key from the key-value store.
// GET /api/v1/data/:key.
func (h *Handler) GetData(c *gin.Context) {
	key := c.Param("key")

	value, err := h.kv.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Key not found")
			return
		}
		h.log.Error().Err(err).Str("key", key).Msg("Failed to read key")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to read key")
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

// SetData writes a raw key to the key-value store.
// POST /api/v1/data/:key.
func (h *Handler) SetData(c *gin.Context) {
	key := c.Param("key")

	var req setDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.kv.Set(c.Request.Context(), key, req.Value, 0); err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to write key")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to write key")
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}

// DeleteData removes a raw key from the key-value store.
// DELETE /api/v1/data/:key.
func (h *Handler) DeleteData(c *gin.Context) {
	key := c.Param("key")

	if err := h.kv.Del(c.Request.Context(), key); err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to delete key")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to delete key")
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "deleted": true})
}

// ClearData wipes all submissions and user statistics.
// DELETE /api/v1/data.
func (h *Handler) ClearData(c *gin.Context) {
	if err := h.submissions.ClearAll(); err != nil {
		h.log.Error().Err(err).Msg("Failed to clear submissions")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to clear data")
		return
	}
	if err := h.stats.ClearAll(); err != nil {
		h.log.Error().Err(err).Msg("Failed to clear stats")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to clear data")
		return
	}

	h.log.Warn().Msg("All submissions and stats cleared")
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// parseID extracts the :id path parameter.
func (h *Handler) parseID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id parameter: %s", idStr)
	}
	return uint(id), nil
}

// parseLimit extracts the optional limit query parameter.
func (h *Handler) parseLimit(c *gin.Context, defaultLimit int) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, fmt.Errorf("invalid limit parameter: %s", limitStr)
	}
	if limit < 1 {
		return 0, fmt.Errorf("limit must be greater than 0")
	}
	if limit > 1000 {
		return 0, fmt.Errorf("limit cannot exceed 1000")
	}

	return limit, nil
}

// errorResponse writes a JSON error payload.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
