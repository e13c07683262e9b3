package models

import (
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultRadiusKm = 10.0

// ReportFilter is the bounded set of listing parameters accepted by GET /api/reports.
type ReportFilter struct {
	Status   ReportStatus
	Category Category
	Priority Priority
	UserID   string
	Lat      *float64
	Lon      *float64
	RadiusKm float64
	Pagination
}

func (f ReportFilter) Validate() error {
	var errs []string
	if f.Status != "" && !f.Status.IsValid() {
		errs = append(errs, fmt.Sprintf("status %q is not a known report status", f.Status))
	}
	if f.Category != "" && !f.Category.IsValid() {
		errs = append(errs, fmt.Sprintf("category %q is not a known category", f.Category))
	}
	if f.Priority != "" && !f.Priority.IsValid() {
		errs = append(errs, fmt.Sprintf("priority %q is not a known priority", f.Priority))
	}
	if (f.Lat == nil) != (f.Lon == nil) {
		errs = append(errs, "lat and lng must be given together")
	}
	if f.Lat != nil && !within(*f.Lat, 90) {
		errs = append(errs, "lat must be between -90 and 90")
	}
	if f.Lon != nil && !within(*f.Lon, 180) {
		errs = append(errs, "lng must be between -180 and 180")
	}
	if !(f.RadiusKm >= 0) || math.IsInf(f.RadiusKm, 0) {
		errs = append(errs, "radius must be positive")
	}
	if f.UserID != "" {
		if _, err := primitive.ObjectIDFromHex(f.UserID); err != nil {
			errs = append(errs, "user must be a valid id")
		}
	}
	if len(errs) > 0 {
		return NewValidationError(errs...)
	}
	return nil
}

// within is false for NaN.
func within(v, bound float64) bool {
	return v >= -bound && v <= bound
}

// BSON renders the filter as a mongo query. Call Validate first.
func (f ReportFilter) BSON() bson.M {
	query := bson.M{}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.Priority != "" {
		query["priority"] = f.Priority
	}
	if f.UserID != "" {
		if id, err := primitive.ObjectIDFromHex(f.UserID); err == nil {
			query["user_id"] = id
		}
	}
	if f.Lat != nil && f.Lon != nil {
		radius := f.RadiusKm
		if radius == 0 {
			radius = DefaultRadiusKm
		}
		query["location"] = bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{*f.Lon, *f.Lat},
					radius / EarthRadiusKm,
				},
			},
		}
	}
	return query
}
