package leaks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ranz0c/leakhub/internal/cache"
	"github.com/ranz0c/leakhub/internal/models"
	"github.com/ranz0c/leakhub/internal/service/leaderboard"
	"github.com/ranz0c/leakhub/internal/service/scoring"
	"github.com/ranz0c/leakhub/internal/service/verification"
	"github.com/ranz0c/leakhub/pkg/logger"
)

type mockScoringService struct {
	receipt    *scoring.SubmissionReceipt
	submitErr  error
	requestErr error
	voted      bool
	voteErr    error

	lastSubmission *models.Submission
	lastRequest    *models.LeakRequest
}

func (m *mockScoringService) RecordSubmission(_ context.Context, sub *models.Submission) (*scoring.SubmissionReceipt, error) {
	m.lastSubmission = sub
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	if m.receipt != nil {
		return m.receipt, nil
	}
	return &scoring.SubmissionReceipt{Submission: sub, PointsAwarded: 10}, nil
}

func (m *mockScoringService) RecordRequest(_ context.Context, request *models.LeakRequest) error {
	m.lastRequest = request
	return m.requestErr
}

func (m *mockScoringService) ToggleVote(_ string, _ uint) (bool, error) {
	return m.voted, m.voteErr
}

type mockVerificationService struct {
	result      *verification.ComparisonResult
	advanced    *verification.AdvancedResult
	compareErr  error
	advancedErr error
}

func (m *mockVerificationService) Compare(_ context.Context, _, _ uint) (*verification.ComparisonResult, error) {
	return m.result, m.compareErr
}

func (m *mockVerificationService) CompareAdvanced(_ context.Context, _, _ uint) (*verification.AdvancedResult, error) {
	return m.advanced, m.advancedErr
}

type mockLeaderboardService struct {
	entries    []leaderboard.Entry
	profile    *leaderboard.UserProfile
	events     []leaderboard.TimelineEvent
	statistics *leaderboard.Statistics
	err        error
}

func (m *mockLeaderboardService) GetLeaderboard(_ int) ([]leaderboard.Entry, error) {
	return m.entries, m.err
}

func (m *mockLeaderboardService) GetUserProfile(_ string) (*leaderboard.UserProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.profile, nil
}

func (m *mockLeaderboardService) GetTimeline(limit int) ([]leaderboard.TimelineEvent, error) {
	if limit < len(m.events) {
		return m.events[:limit], m.err
	}
	return m.events, m.err
}

func (m *mockLeaderboardService) GetStatistics(_ context.Context) (*leaderboard.Statistics, error) {
	return m.statistics, m.err
}

type mockAchievementService struct {
	catalog  []models.Achievement
	unlocked []models.Achievement
	err      error
}

func (m *mockAchievementService) GetCatalog() []models.Achievement {
	return m.catalog
}

func (m *mockAchievementService) GetUserAchievements(_ string) ([]models.Achievement, error) {
	return m.unlocked, m.err
}

type mockSubmissionStore struct {
	submissions []models.Submission
	byID        map[uint]*models.Submission
	clearErr    error
	cleared     bool
}

func (m *mockSubmissionStore) GetAll() ([]models.Submission, error) {
	return m.submissions, nil
}

func (m *mockSubmissionStore) GetRecent(limit int) ([]models.Submission, error) {
	if limit > 0 && len(m.submissions) > limit {
		return m.submissions[:limit], nil
	}
	return m.submissions, nil
}

func (m *mockSubmissionStore) GetByID(id uint) (*models.Submission, error) {
	if sub, ok := m.byID[id]; ok {
		return sub, nil
	}
	return nil, errors.New("record not found")
}

func (m *mockSubmissionStore) GetByInstance(instance string) ([]models.Submission, error) {
	var out []models.Submission
	for _, s := range m.submissions {
		if s.Instance == instance {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSubmissionStore) ClearAll() error {
	m.cleared = true
	return m.clearErr
}

type mockStatsStore struct {
	cleared bool
}

func (m *mockStatsStore) ClearAll() error {
	m.cleared = true
	return nil
}

type mockRequestStore struct {
	requests []models.LeakRequest
	lastSort string
}

func (m *mockRequestStore) GetAll(sortBy string) ([]models.LeakRequest, error) {
	m.lastSort = sortBy
	return m.requests, nil
}

type mockChallengeStore struct {
	challenge   *models.DailyChallenge
	completions int64
}

func (m *mockChallengeStore) GetActive(_ time.Time) (*models.DailyChallenge, error) {
	return m.challenge, nil
}

func (m *mockChallengeStore) CountCompletions(_ uint) (int64, error) {
	return m.completions, nil
}

type mockKV struct {
	data map[string]string
}

func newMockKV() *mockKV {
	return &mockKV{data: make(map[string]string)}
}

func (m *mockKV) Get(_ context.Context, key string) (string, error) {
	value, ok := m.data[key]
	if !ok {
		return "", cache.ErrNotFound
	}
	return value, nil
}

func (m *mockKV) Set(_ context.Context, key string, value string, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

type handlerMocks struct {
	scoring      *mockScoringService
	verification *mockVerificationService
	leaderboard  *mockLeaderboardService
	achievements *mockAchievementService
	submissions  *mockSubmissionStore
	stats        *mockStatsStore
	requests     *mockRequestStore
	challenges   *mockChallengeStore
	kv           *mockKV
}

func setupTestHandler() (*Handler, *handlerMocks) {
	gin.SetMode(gin.TestMode)

	mocks := &handlerMocks{
		scoring:      &mockScoringService{},
		verification: &mockVerificationService{},
		leaderboard:  &mockLeaderboardService{},
		achievements: &mockAchievementService{},
		submissions:  &mockSubmissionStore{byID: make(map[uint]*models.Submission)},
		stats:        &mockStatsStore{},
		requests:     &mockRequestStore{},
		challenges:   &mockChallengeStore{},
		kv:           newMockKV(),
	}

	handler := NewHandler(
		mocks.scoring,
		mocks.verification,
		mocks.leaderboard,
		mocks.achievements,
		mocks.submissions,
		mocks.stats,
		mocks.requests,
		mocks.challenges,
		mocks.kv,
		logger.New("error", "json", "stdout"),
	)
	return handler, mocks
}

func setupRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func performRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateLeak(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)

	w := performRequest(router, http.MethodPost, "/api/v1/leaks", gin.H{
		"source":   "PromptHunter",
		"instance": "gpt-5",
		"content":  "You are a helpful assistant.",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotNil(t, mocks.scoring.lastSubmission)
	assert.Equal(t, "gpt-5", mocks.scoring.lastSubmission.Instance)

	var receipt scoring.SubmissionReceipt
	err := json.Unmarshal(w.Body.Bytes(), &receipt)
	assert.NoError(t, err)
	assert.Equal(t, 10, receipt.PointsAwarded)
}

func TestCreateLeakMissingFields(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	w := performRequest(router, http.MethodPost, "/api/v1/leaks", gin.H{
		"source": "PromptHunter",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateLeakInvalidTargetType(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	w := performRequest(router, http.MethodPost, "/api/v1/leaks", gin.H{
		"source":      "PromptHunter",
		"instance":    "gpt-5",
		"content":     "You are a helpful assistant.",
		"target_type": "spaceship",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "spaceship")
}

func TestListLeaks(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.submissions.submissions = []models.Submission{
		{ID: 1, Source: "a", Instance: "gpt-5"},
		{ID: 2, Source: "b", Instance: "claude"},
	}
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/leaks", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]json.RawMessage
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.JSONEq(t, "2", string(response["total"]))
}

func TestListLeaksByInstance(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.submissions.submissions = []models.Submission{
		{ID: 1, Source: "a", Instance: "gpt-5"},
		{ID: 2, Source: "b", Instance: "claude"},
	}
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/leaks?instance=claude", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Leaks []models.Submission `json:"leaks"`
		Total int                 `json:"total"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, 1, response.Total)
	assert.Equal(t, "claude", response.Leaks[0].Instance)
}

func TestListLeaksWithLimit(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.submissions.submissions = []models.Submission{
		{ID: 1, Source: "a", Instance: "gpt-5"},
		{ID: 2, Source: "b", Instance: "claude"},
		{ID: 3, Source: "c", Instance: "gemini"},
	}
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/leaks?limit=2", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Total int `json:"total"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, 2, response.Total)
}

func TestGetLeak(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.submissions.byID[7] = &models.Submission{ID: 7, Source: "a", Instance: "gpt-5"}
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/leaks/7", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/leaks/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/leaks/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompareLeaks(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.verification.result = &verification.ComparisonResult{
		SubmissionA: 1,
		SubmissionB: 2,
		Average:     92,
		Match:       true,
	}
	router := setupRouter(handler)

	w := performRequest(router, http.MethodPost, "/api/v1/leaks/compare", gin.H{
		"submission_a": 1,
		"submission_b": 2,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var result verification.ComparisonResult
	err := json.Unmarshal(w.Body.Bytes(), &result)
	assert.NoError(t, err)
	assert.True(t, result.Match)
	assert.Equal(t, 92, result.Average)
}

func TestCompareLeaksSameSubmission(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.verification.compareErr = verification.ErrSameSubmission
	router := setupRouter(handler)

	w := performRequest(router, http.MethodPost, "/api/v1/leaks/compare", gin.H{
		"submission_a": 1,
		"submission_b": 1,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompareLeaksInProgress(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.verification.compareErr = verification.ErrComparisonInProgress
	router := setupRouter(handler)

	w := performRequest(router, http.MethodPost, "/api/v1/leaks/compare", gin.H{
		"submission_a": 1,
		"submission_b": 2,
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCompareLeaksAdvanced(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.verification.advanced = &verification.AdvancedResult{
		SubmissionA: 1,
		SubmissionB: 2,
		Boosted:     true,
	}
	router := setupRouter(handler)

	w := performRequest(router, http.MethodPost, "/api/v1/leaks/compare/advanced", gin.H{
		"submission_a": 1,
		"submission_b": 2,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var result verification.AdvancedResult
	err := json.Unmarshal(w.Body.Bytes(), &result)
	assert.NoError(t, err)
	assert.True(t, result.Boosted)
}

func TestGetLeaderboard(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.leaderboard.entries = []leaderboard.Entry{
		{Rank: 1, Username: "bob", TotalScore: 1200},
		{Rank: 2, Username: "alice", TotalScore: 800},
	}
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/leaderboard", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Leaderboard  []leaderboard.Entry `json:"leaderboard"`
		TotalEntries int                 `json:"total_entries"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, 2, response.TotalEntries)
	assert.Equal(t, "bob", response.Leaderboard[0].Username)
}

func TestGetLeaderboardInvalidLimit(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/leaderboard?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/leaderboard?limit=5000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/leaderboard?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUserProfile(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.leaderboard.profile = &leaderboard.UserProfile{
		Stats: &models.UserStats{Username: "alice", TotalScore: 800},
		Rank:  2,
	}
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/users/alice", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var profile leaderboard.UserProfile
	err := json.Unmarshal(w.Body.Bytes(), &profile)
	assert.NoError(t, err)
	assert.Equal(t, "alice", profile.Stats.Username)
	assert.Equal(t, 2, profile.Rank)
}

func TestGetUserProfileNotFound(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.leaderboard.err = errors.New("record not found")
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/users/nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUserAchievements(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.achievements.unlocked = []models.Achievement{
		{ID: "first_blood", Name: "First Blood", Points: 50},
	}
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/users/alice/achievements", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "first_blood")
}

func TestGetAchievementCatalog(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.achievements.catalog = []models.Achievement{
		{ID: "first_blood", Name: "First Blood"},
		{ID: "legend", Name: "Legend"},
	}
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/achievements", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Achievements []models.Achievement `json:"achievements"`
		Total        int                  `json:"total"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, 2, response.Total)
}

func TestCreateRequest(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)

	w := performRequest(router, http.MethodPost, "/api/v1/requests", gin.H{
		"instance":     "claude-3-opus",
		"requested_by": "alice",
		"bounty":       500,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotNil(t, mocks.scoring.lastRequest)
	assert.Equal(t, 500, mocks.scoring.lastRequest.Bounty)
}

func TestCreateRequestNegativeBounty(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	w := performRequest(router, http.MethodPost, "/api/v1/requests", gin.H{
		"instance":     "claude-3-opus",
		"requested_by": "alice",
		"bounty":       -10,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRequests(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.requests.requests = []models.LeakRequest{
		{ID: 1, Instance: "claude-3-opus", Votes: 5},
	}
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/requests?sort=bounty", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bounty", mocks.requests.lastSort)
}

func TestListRequestsDefaultSort(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/requests", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "votes", mocks.requests.lastSort)
}

func TestVoteRequest(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.scoring.voted = true
	router := setupRouter(handler)

	w := performRequest(router, http.MethodPost, "/api/v1/requests/3/vote", gin.H{
		"username": "alice",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"voted":true`)
}

func TestVoteRequestNotFound(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.scoring.voteErr = errors.New("request not found")
	router := setupRouter(handler)

	w := performRequest(router, http.MethodPost, "/api/v1/requests/99/vote", gin.H{
		"username": "alice",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetChallenge(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.challenges.challenge = &models.DailyChallenge{
		ID:          1,
		TargetModel: "gemini-pro",
		Reward:      500,
		ExpiresAt:   time.Now().Add(6 * time.Hour),
	}
	mocks.challenges.completions = 3
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/challenge", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"active":true`)
	assert.Contains(t, w.Body.String(), "gemini-pro")
	assert.Contains(t, w.Body.String(), `"completions":3`)
}

func TestGetChallengeNoneActive(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/challenge", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"active":false`)
}

func TestGetStatistics(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.leaderboard.statistics = &leaderboard.Statistics{
		TotalSubmissions: 12,
		UniqueTargets:    8,
		Verified:         3,
		HighConfidence:   5,
		TotalUsers:       4,
		AvgSimilarity:    77,
	}
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/statistics", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats leaderboard.Statistics
	err := json.Unmarshal(w.Body.Bytes(), &stats)
	assert.NoError(t, err)
	assert.Equal(t, 12, stats.TotalSubmissions)
	assert.Equal(t, 77, stats.AvgSimilarity)
}

func TestGetTimeline(t *testing.T) {
	handler, mocks := setupTestHandler()
	mocks.leaderboard.events = []leaderboard.TimelineEvent{
		{Type: "verified", Username: "alice", Instance: "gpt-5"},
		{Type: "first_discovery", Username: "bob", Instance: "claude"},
	}
	router := setupRouter(handler)

	w := performRequest(router, http.MethodGet, "/api/v1/timeline?limit=1", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Events []leaderboard.TimelineEvent `json:"events"`
		Total  int                         `json:"total"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, 1, response.Total)
	assert.Equal(t, "verified", response.Events[0].Type)
}

func TestDataRoundTrip(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	w := performRequest(router, http.MethodPost, "/api/v1/data/theme", gin.H{"value": "dark"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/data/theme", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"value":"dark"`)

	w = performRequest(router, http.MethodDelete, "/api/v1/data/theme", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/data/theme", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClearData(t *testing.T) {
	handler, mocks := setupTestHandler()
	router := setupRouter(handler)

	w := performRequest(router, http.MethodDelete, "/api/v1/data", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mocks.submissions.cleared)
	assert.True(t, mocks.stats.cleared)
}
