package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReportStatus string

const (
	ReportPending    ReportStatus = "pending"
	ReportVerified   ReportStatus = "verified"
	ReportAssigned   ReportStatus = "assigned"
	ReportInProgress ReportStatus = "in-progress"
	ReportCompleted  ReportStatus = "completed"
	ReportRejected   ReportStatus = "rejected"
)

func (s ReportStatus) IsValid() bool {
	_, ok := reportTransitions[s]
	return ok
}

// reportTransitions is the lifecycle graph. verified -> pending is an admin
// unverify and assigned/in-progress -> verified releases a cancelled work order.
var reportTransitions = map[ReportStatus][]ReportStatus{
	ReportPending:    {ReportVerified, ReportRejected},
	ReportVerified:   {ReportPending, ReportAssigned, ReportRejected},
	ReportAssigned:   {ReportInProgress, ReportVerified},
	ReportInProgress: {ReportCompleted, ReportVerified},
	ReportCompleted:  {},
	ReportRejected:   {},
}

func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	for _, n := range reportTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// ReportSourcesFor returns every status that may move to target.
func ReportSourcesFor(target ReportStatus) []ReportStatus {
	var from []ReportStatus
	for _, s := range AllReportStatuses {
		if s.CanTransitionTo(target) {
			from = append(from, s)
		}
	}
	return from
}

var AllReportStatuses = []ReportStatus{
	ReportPending, ReportVerified, ReportAssigned, ReportInProgress, ReportCompleted, ReportRejected,
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Category string

const (
	CategoryGeneralWaste   Category = "general-waste"
	CategoryRecyclables    Category = "recyclables"
	CategoryHazardousWaste Category = "hazardous-waste"
	CategoryOrganicWaste   Category = "organic-waste"
	CategoryBulkItems      Category = "bulk-items"
	CategoryGraffiti       Category = "graffiti"
	CategoryIllegalDumping Category = "illegal-dumping"
	CategoryOther          Category = "other"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryGeneralWaste, CategoryRecyclables, CategoryHazardousWaste, CategoryOrganicWaste,
		CategoryBulkItems, CategoryGraffiti, CategoryIllegalDumping, CategoryOther:
		return true
	}
	return false
}

type Address struct {
	Street  string `bson:"street"   json:"street"`
	City    string `bson:"city"     json:"city"`
	State   string `bson:"state"    json:"state"`
	ZipCode string `bson:"zip_code" json:"zip_code"`
	Country string `bson:"country"  json:"country"`
}

func (a Address) Format() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.ZipCode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type ReportLocation struct {
	Type             string    `bson:"type"              json:"type"`
	Coordinates      []float64 `bson:"coordinates"       json:"coordinates"`
	Address          Address   `bson:"address"           json:"address"`
	FormattedAddress string    `bson:"formatted_address" json:"formatted_address"`
}

type Image struct {
	URL        string    `bson:"url"         json:"url"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

func imagesFromURLs(urls []string, now time.Time) []Image {
	images := make([]Image, 0, len(urls))
	for _, u := range urls {
		images = append(images, Image{URL: u, UploadedAt: now})
	}
	return images
}

type Report struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id"       json:"user_id"`
	Title       string             `bson:"title"         json:"title"`
	Description string             `bson:"description"   json:"description"`
	Category    Category           `bson:"category"      json:"category"`
	Location    ReportLocation     `bson:"location"      json:"location"`
	Images      []Image            `bson:"images"        json:"images"`
	Status      ReportStatus       `bson:"status"        json:"status"`
	Priority    Priority           `bson:"priority"      json:"priority"`

	IsVerified bool                `bson:"is_verified"           json:"is_verified"`
	VerifiedBy *primitive.ObjectID `bson:"verified_by,omitempty" json:"verified_by,omitempty"`
	VerifiedAt *time.Time          `bson:"verified_at,omitempty" json:"verified_at,omitempty"`

	RejectionReason string `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`

	AssignedTo  *primitive.ObjectID `bson:"assigned_to,omitempty"   json:"assigned_to,omitempty"`
	AssignedAt  *time.Time          `bson:"assigned_at,omitempty"   json:"assigned_at,omitempty"`
	WorkOrderID *primitive.ObjectID `bson:"work_order_id,omitempty" json:"work_order_id,omitempty"`

	CompletedAt      *time.Time `bson:"completed_at,omitempty"      json:"completed_at,omitempty"`
	CompletionImages []Image    `bson:"completion_images,omitempty" json:"completion_images,omitempty"`
	CompletionNotes  string     `bson:"completion_notes,omitempty"  json:"completion_notes,omitempty"`

	CitizenVerified   bool       `bson:"citizen_verified"              json:"citizen_verified"`
	CitizenVerifiedAt *time.Time `bson:"citizen_verified_at,omitempty" json:"citizen_verified_at,omitempty"`

	PointsAwarded int                  `bson:"points_awarded" json:"points_awarded"`
	Upvotes       []primitive.ObjectID `bson:"upvotes"        json:"upvotes"`
	Views         int                  `bson:"views"          json:"views"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func (r *Report) HasUpvote(userID primitive.ObjectID) bool {
	for _, id := range r.Upvotes {
		if id == userID {
			return true
		}
	}
	return false
}

type CreateReportInput struct {
	Title       string      `json:"title"       validate:"required,max=100"`
	Description string      `json:"description" validate:"required,max=500"`
	Category    Category    `json:"category"    validate:"required,oneof=general-waste recyclables hazardous-waste organic-waste bulk-items graffiti illegal-dumping other"`
	Priority    Priority    `json:"priority"    validate:"omitempty,oneof=low medium high urgent"`
	Location    Coordinates `json:"location"`
	Address     Address     `json:"address"`
	Images      []string    `json:"images"      validate:"max=5,dive,url"`
}

func (in CreateReportInput) Validate() error {
	return validateStruct(in)
}

// ToReport builds a fresh pending report owned by userID.
func (in CreateReportInput) ToReport(userID primitive.ObjectID, now time.Time) *Report {
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	point := in.Location.Point()
	return &Report{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Location: ReportLocation{
			Type:             point.Type,
			Coordinates:      point.Coordinates,
			Address:          in.Address,
			FormattedAddress: in.Address.Format(),
		},
		Images:    imagesFromURLs(in.Images, now),
		Status:    ReportPending,
		Priority:  priority,
		Upvotes:   []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateReportInput carries the descriptive fields an owner may edit.
type UpdateReportInput struct {
	Title       *string   `json:"title"       validate:"omitempty,max=100"`
	Description *string   `json:"description" validate:"omitempty,max=500"`
	Category    *Category `json:"category"    validate:"omitempty,oneof=general-waste recyclables hazardous-waste organic-waste bulk-items graffiti illegal-dumping other"`
	Priority    *Priority `json:"priority"    validate:"omitempty,oneof=low medium high urgent"`
	Address     *Address  `json:"address"`
}

func (in UpdateReportInput) Validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return NewValidationError("title field is required")
	}
	if in.Description != nil && strings.TrimSpace(*in.Description) == "" {
		return NewValidationError("description field is required")
	}
	return nil
}

func (in UpdateReportInput) Apply(r *Report) {
	if in.Title != nil {
		r.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		r.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		r.Category = *in.Category
	}
	if in.Priority != nil {
		r.Priority = *in.Priority
	}
	if in.Address != nil {
		r.Location.Address = *in.Address
		r.Location.FormattedAddress = in.Address.Format()
	}
}

type CompletionInput struct {
	Notes  string   `json:"notes"  validate:"max=1000"`
	Images []string `json:"images" validate:"max=10,dive,url"`
}

type UpvoteResult struct {
	Upvoted     bool `json:"upvoted"`
	UpvoteCount int  `json:"upvote_count"`
}
