package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	// VerificationAward is granted once when an admin first verifies a report.
	VerificationAward = 10
	// CompletionBonus is granted once when the reporter confirms the cleanup.
	CompletionBonus = 5
)

// CitizenCounter names an activity counter on the citizen sub-record.
type CitizenCounter string

const (
	CounterReports              CitizenCounter = "reports_count"
	CounterCleanupVerifications CitizenCounter = "cleanup_verifications"
)

const (
	BadgeFirstReport       = "first-report"
	BadgeEcoWarrior        = "eco-warrior"
	BadgeCleanupVerifier   = "cleanup-verifier"
	BadgeCommunityChampion = "community-champion"
)

type GamificationStatus struct {
	UserID          primitive.ObjectID `json:"user_id"`
	Points          int                `json:"points"`
	Level           int                `json:"level"`
	PointsToNextLvl int                `json:"points_to_next_level"`
	Badges          []string           `json:"badges"`
}

// Level 1: 0-49, 2: 50-149, 3: 150-299, 4: 300-499, 5: 500+.
var levelThresholds = []int{0, 50, 150, 300, 500}

func CalculateLevel(points int) (level int, toNext int) {
	level = 1
	for i := len(levelThresholds) - 1; i >= 0; i-- {
		if points >= levelThresholds[i] {
			level = i + 1
			break
		}
	}
	if level < len(levelThresholds) {
		toNext = levelThresholds[level] - points
	}
	return level, toNext
}

// EarnedBadges lists every badge the citizen qualifies for.
func EarnedBadges(c Citizen) []string {
	badges := make([]string, 0, 4)
	if c.ReportsCount >= 1 {
		badges = append(badges, BadgeFirstReport)
	}
	if c.ReportsCount >= 10 {
		badges = append(badges, BadgeEcoWarrior)
	}
	if c.CleanupVerifications >= 1 {
		badges = append(badges, BadgeCleanupVerifier)
	}
	if c.Points >= 300 {
		badges = append(badges, BadgeCommunityChampion)
	}
	return badges
}

type LeaderboardEntry struct {
	ID           primitive.ObjectID `bson:"_id"           json:"id"`
	Email        string             `bson:"email"         json:"email"`
	Profile      Profile            `bson:"profile"       json:"profile"`
	Points       int                `bson:"points"        json:"points"`
	Level        int                `bson:"level"         json:"level"`
	Badges       []string           `bson:"badges"        json:"badges"`
	ReportsCount int                `bson:"reports_count" json:"reports_count"`
}
