package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubRatings struct {
	Quality         int `bson:"quality,omitempty"         json:"quality,omitempty"         validate:"omitempty,min=1,max=5"`
	Timeliness      int `bson:"timeliness,omitempty"      json:"timeliness,omitempty"      validate:"omitempty,min=1,max=5"`
	Professionalism int `bson:"professionalism,omitempty" json:"professionalism,omitempty" validate:"omitempty,min=1,max=5"`
	Communication   int `bson:"communication,omitempty"   json:"communication,omitempty"   validate:"omitempty,min=1,max=5"`
}

type ReviewResponse struct {
	Comment     string    `bson:"comment"      json:"comment"`
	RespondedAt time.Time `bson:"responded_at" json:"responded_at"`
}

type Review struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"      json:"id"`
	WorkOrderID    primitive.ObjectID `bson:"work_order_id"      json:"work_order_id"`
	OrganizationID primitive.ObjectID `bson:"organization_id"    json:"organization_id"`
	ReviewerID     primitive.ObjectID `bson:"reviewer_id"        json:"reviewer_id"`
	Rating         int                `bson:"rating"             json:"rating"`
	Title          string             `bson:"title,omitempty"    json:"title,omitempty"`
	Comment        string             `bson:"comment"            json:"comment"`
	Ratings        SubRatings         `bson:"ratings"            json:"ratings"`
	Response       *ReviewResponse    `bson:"response,omitempty" json:"response,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"         json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"         json:"updated_at"`
}

type CreateReviewInput struct {
	WorkOrderID string     `json:"work_order_id" validate:"required"`
	Rating      int        `json:"rating"        validate:"required,min=1,max=5"`
	Title       string     `json:"title"         validate:"max=100"`
	Comment     string     `json:"comment"       validate:"required,max=500"`
	Ratings     SubRatings `json:"ratings"`
}

func (in CreateReviewInput) Validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if strings.TrimSpace(in.Comment) == "" {
		return NewValidationError("comment field is required")
	}
	if !primitive.IsValidObjectID(in.WorkOrderID) {
		return NewValidationError("work_order_id must be a valid id")
	}
	return nil
}

type UpdateReviewInput struct {
	Rating  *int        `json:"rating"  validate:"omitempty,min=1,max=5"`
	Title   *string     `json:"title"   validate:"omitempty,max=100"`
	Comment *string     `json:"comment" validate:"omitempty,max=500"`
	Ratings *SubRatings `json:"ratings"`
}

func (in UpdateReviewInput) Validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.Comment != nil && strings.TrimSpace(*in.Comment) == "" {
		return NewValidationError("comment field is required")
	}
	return nil
}

func (in UpdateReviewInput) Apply(r *Review) {
	if in.Rating != nil {
		r.Rating = *in.Rating
	}
	if in.Title != nil {
		r.Title = strings.TrimSpace(*in.Title)
	}
	if in.Comment != nil {
		r.Comment = strings.TrimSpace(*in.Comment)
	}
	if in.Ratings != nil {
		r.Ratings = *in.Ratings
	}
}
