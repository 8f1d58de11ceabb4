package achievements

import (
	"github.com/ranz0c/leakhub/internal/models"
)

// Achievement IDs.
const (
	FirstBlood = "first_blood"
	Discoverer = "discoverer"
	Verifier   = "verifier"
	Collector  = "collector"
	Expert     = "expert"
	Pioneer    = "pioneer"
	Analyst    = "analyst"
	Challenger = "challenger"
	Community  = "community"
	Legend     = "legend"
)

// CatalogEntry pairs an achievement with its unlock criteria. The criteria
// see the user's current stats plus the set of already unlocked achievement
// IDs, which lets the legend achievement depend on the rest of the catalog.
type CatalogEntry struct {
	models.Achievement
	Qualifies func(stats *models.UserStats, unlocked map[string]bool) bool
}

// baseAchievements lists every non-meta achievement; legend requires all of
// them. Kept as a separate list so the legend predicate does not reference
// the catalog it lives in.
var baseAchievements = []string{
	FirstBlood, Discoverer, Verifier, Collector, Expert,
	Pioneer, Analyst, Challenger, Community,
}

// Catalog is the fixed achievement catalog, evaluated in order. Legend comes
// last so unlocks earned in the same pass count toward it.
var Catalog = []CatalogEntry{
	{
		Achievement: models.Achievement{
			ID:          FirstBlood,
			Name:        "First Blood",
			Description: "Submit your first leak",
			Icon:        "🩸",
			Points:      50,
		},
		Qualifies: func(stats *models.UserStats, _ map[string]bool) bool {
			return stats.Submissions >= 1
		},
	},
	{
		Achievement: models.Achievement{
			ID:          Discoverer,
			Name:        "Discoverer",
			Description: "Be the first to leak a system prompt",
			Icon:        "🔍",
			Points:      100,
		},
		Qualifies: func(stats *models.UserStats, _ map[string]bool) bool {
			return stats.FirstDiscoveries >= 1
		},
	},
	{
		Achievement: models.Achievement{
			ID:          Verifier,
			Name:        "Verifier",
			Description: "Have 5 of your leaks verified",
			Icon:        "✅",
			Points:      200,
		},
		Qualifies: func(stats *models.UserStats, _ map[string]bool) bool {
			return stats.VerifiedLeaks >= 5
		},
	},
	{
		Achievement: models.Achievement{
			ID:          Collector,
			Name:        "Collector",
			Description: "Submit 10 leaks",
			Icon:        "📚",
			Points:      300,
		},
		Qualifies: func(stats *models.UserStats, _ map[string]bool) bool {
			return stats.Submissions >= 10
		},
	},
	{
		Achievement: models.Achievement{
			ID:          Expert,
			Name:        "Expert",
			Description: "Reach 1000 total points",
			Icon:        "🎓",
			Points:      500,
		},
		Qualifies: func(stats *models.UserStats, _ map[string]bool) bool {
			return stats.TotalScore >= 1000
		},
	},
	{
		Achievement: models.Achievement{
			ID:          Pioneer,
			Name:        "Pioneer",
			Description: "Make 5 first discoveries",
			Icon:        "🚀",
			Points:      400,
		},
		Qualifies: func(stats *models.UserStats, _ map[string]bool) bool {
			return stats.FirstDiscoveries >= 5
		},
	},
	{
		Achievement: models.Achievement{
			ID:          Analyst,
			Name:        "Analyst",
			Description: "Run 20 verifying comparisons",
			Icon:        "📊",
			Points:      250,
		},
		Qualifies: func(stats *models.UserStats, _ map[string]bool) bool {
			return stats.Comparisons >= 20
		},
	},
	{
		Achievement: models.Achievement{
			ID:          Challenger,
			Name:        "Challenger",
			Description: "Complete 5 daily challenges",
			Icon:        "🏆",
			Points:      350,
		},
		Qualifies: func(stats *models.UserStats, _ map[string]bool) bool {
			return stats.ChallengesCompleted >= 5
		},
	},
	{
		Achievement: models.Achievement{
			ID:          Community,
			Name:        "Community Builder",
			Description: "Submit 10 leak requests",
			Icon:        "🤝",
			Points:      200,
		},
		Qualifies: func(stats *models.UserStats, _ map[string]bool) bool {
			return stats.RequestsSubmitted >= 10
		},
	},
	{
		Achievement: models.Achievement{
			ID:          Legend,
			Name:        "Legend",
			Description: "Unlock every other achievement",
			Icon:        "👑",
			Points:      1000,
		},
		Qualifies: func(_ *models.UserStats, unlocked map[string]bool) bool {
			for _, id := range baseAchievements {
				if !unlocked[id] {
					return false
				}
			}
			return true
		},
	},
}

// ByID returns the catalog entry for an achievement ID, or nil if unknown.
func ByID(id string) *CatalogEntry {
	for i := range Catalog {
		if Catalog[i].ID == id {
			return &Catalog[i]
		}
	}
	return nil
}
