package models

import (
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CountBucket is one row of a $group { _id: <key>, count: {$sum: 1} } stage.
type CountBucket struct {
	Key   string `bson:"_id"   json:"key"`
	Count int64  `bson:"count" json:"count"`
}

type DashboardOverview struct {
	TotalReports       int64   `json:"total_reports"`
	TotalUsers         int64   `json:"total_users"`
	TotalOrganizations int64   `json:"total_organizations"`
	CompletedReports   int64   `json:"completed_reports"`
	SuccessRate        float64 `json:"success_rate"`
}

type Dashboard struct {
	Overview      DashboardOverview `json:"overview"`
	ByStatus      []CountBucket     `json:"by_status"`
	ByCategory    []CountBucket     `json:"by_category"`
	RecentReports []Report          `json:"recent_reports"`
}

type ReporterStat struct {
	UserID      primitive.ObjectID `bson:"_id"          json:"user_id"`
	Email       string             `bson:"email"        json:"email"`
	Profile     Profile            `bson:"profile"      json:"profile"`
	Points      int                `bson:"points"       json:"points"`
	ReportCount int64              `bson:"report_count" json:"report_count"`
}

type ReportStats struct {
	ReportsOverTime    []CountBucket  `json:"reports_over_time"`
	AvgResolutionHours float64        `json:"avg_resolution_hours"`
	ByPriority         []CountBucket  `json:"by_priority"`
	TopReporters       []ReporterStat `json:"top_reporters"`
}

type UserStats struct {
	UserGrowth      []CountBucket      `json:"user_growth"`
	UsersByRole     []CountBucket      `json:"users_by_role"`
	TopPointEarners []LeaderboardEntry `json:"top_point_earners"`
}

type OrganizationRank struct {
	ID           primitive.ObjectID `bson:"_id"          json:"id"`
	Email        string             `bson:"email"        json:"email"`
	CompanyName  string             `bson:"company_name" json:"company_name"`
	Rating       Rating             `bson:"rating"       json:"rating"`
	Capabilities []Capability       `bson:"capabilities" json:"capabilities"`
}

type OrganizationStats struct {
	TopOrganizations   []OrganizationRank `json:"top_organizations"`
	WorkOrdersByStatus []CountBucket      `json:"work_orders_by_status"`
	TotalRevenue       float64            `json:"total_revenue"`
}

type UserSummary struct {
	User            *User               `json:"user"`
	TotalReports    int64               `json:"total_reports"`
	ReportsByStatus []CountBucket       `json:"reports_by_status"`
	Gamification    *GamificationStatus `json:"gamification,omitempty"`
	Rating          *Rating             `json:"rating,omitempty"`
	WorkOrders      []CountBucket       `json:"work_orders,omitempty"`
}

// SuccessRate is completed/total as a percentage with two decimals.
func SuccessRate(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*10000) / 100
}

// MillisToRoundedHours converts an average duration in milliseconds into whole hours.
func MillisToRoundedHours(ms float64) float64 {
	return math.Round(ms / float64(60*60*1000))
}
