package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecosnap/internal/utils/validator"
)

type Role string

const (
	RoleCitizen      Role = "citizen"
	RoleOrganization Role = "organization"
	RoleAdmin        Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCitizen, RoleOrganization, RoleAdmin:
		return true
	}
	return false
}

type Capability string

const (
	CapabilityGeneralCleanup    Capability = "general-cleanup"
	CapabilityHazardousWaste    Capability = "hazardous-waste"
	CapabilityBulkItems         Capability = "bulk-items"
	CapabilityGraffitiRemoval   Capability = "graffiti-removal"
	CapabilityLandscaping       Capability = "landscaping"
	CapabilityEmergencyResponse Capability = "emergency-response"
)

type VerificationStatus string

const (
	VerificationPending   VerificationStatus = "pending"
	VerificationVerified  VerificationStatus = "verified"
	VerificationRejected  VerificationStatus = "rejected"
	VerificationSuspended VerificationStatus = "suspended"
)

func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationRejected, VerificationSuspended:
		return true
	}
	return false
}

const (
	DefaultBaseRate   = 25.0
	DefaultHourlyRate = 50.0
)

type Profile struct {
	FirstName string `bson:"first_name" json:"first_name" validate:"max=50"`
	LastName  string `bson:"last_name"  json:"last_name"  validate:"max=50"`
	Phone     string `bson:"phone"      json:"phone"`
	Avatar    string `bson:"avatar"     json:"avatar"`
	Bio       string `bson:"bio"        json:"bio"        validate:"max=500"`
}

type CitizenPreferences struct {
	RadiusKm   float64    `bson:"radius_km"  json:"radius_km"`
	Categories []Category `bson:"categories" json:"categories"`
}

type Citizen struct {
	Points               int                `bson:"points"                json:"points"`
	Level                int                `bson:"level"                 json:"level"`
	Badges               []string           `bson:"badges"                json:"badges"`
	ReportsCount         int                `bson:"reports_count"         json:"reports_count"`
	CleanupVerifications int                `bson:"cleanup_verifications" json:"cleanup_verifications"`
	Preferences          CitizenPreferences `bson:"preferences"           json:"preferences"`
}

type OrganizationPricing struct {
	BaseRate   float64 `bson:"base_rate"   json:"base_rate"   validate:"gte=0"`
	HourlyRate float64 `bson:"hourly_rate" json:"hourly_rate" validate:"gte=0"`
}

func DefaultPricing() OrganizationPricing {
	return OrganizationPricing{BaseRate: DefaultBaseRate, HourlyRate: DefaultHourlyRate}
}

type Rating struct {
	Average      float64 `bson:"average"       json:"average"`
	TotalReviews int     `bson:"total_reviews" json:"total_reviews"`
}

type OrganizationVerification struct {
	Status     VerificationStatus `bson:"status"                json:"status"`
	VerifiedAt *time.Time         `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
}

type Organization struct {
	CompanyName     string                   `bson:"company_name"     json:"company_name"`
	BusinessLicense string                   `bson:"business_license" json:"business_license"`
	Capabilities    []Capability             `bson:"capabilities"     json:"capabilities"`
	TeamSize        int                      `bson:"team_size"        json:"team_size"`
	Pricing         OrganizationPricing      `bson:"pricing"          json:"pricing"`
	Rating          Rating                   `bson:"rating"           json:"rating"`
	Verification    OrganizationVerification `bson:"verification"     json:"verification"`
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"          json:"id"`
	Email        string             `bson:"email"                  json:"email"`
	Password     string             `bson:"password"               json:"-"`
	Role         Role               `bson:"role"                   json:"role"`
	Profile      Profile            `bson:"profile"                json:"profile"`
	Location     *GeoPoint          `bson:"location,omitempty"     json:"location,omitempty"`
	IsActive     bool               `bson:"is_active"              json:"is_active"`
	Citizen      *Citizen           `bson:"citizen,omitempty"      json:"citizen,omitempty"`
	Organization *Organization      `bson:"organization,omitempty" json:"organization,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"             json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"             json:"updated_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.Profile.FirstName + " " + u.Profile.LastName)
}

// NormalizeRoleRecord keeps only the sub-record that matches the role.
func (u *User) NormalizeRoleRecord() {
	switch u.Role {
	case RoleCitizen:
		u.Organization = nil
		if u.Citizen == nil {
			u.Citizen = &Citizen{}
		}
		if u.Citizen.Badges == nil {
			u.Citizen.Badges = []string{}
		}
		u.Citizen.Level, _ = CalculateLevel(u.Citizen.Points)
	case RoleOrganization:
		u.Citizen = nil
		if u.Organization == nil {
			u.Organization = &Organization{Pricing: DefaultPricing()}
		}
		if u.Organization.Verification.Status == "" {
			u.Organization.Verification.Status = VerificationPending
		}
		if u.Organization.Capabilities == nil {
			u.Organization.Capabilities = []Capability{}
		}
	default:
		u.Citizen = nil
		u.Organization = nil
	}
}

type RegisterInput struct {
	Email        string             `json:"email"        validate:"required,email"`
	Password     string             `json:"password"     validate:"required,min=6"`
	Role         Role               `json:"role"         validate:"required,oneof=citizen organization admin"`
	Profile      Profile            `json:"profile"`
	Location     *Coordinates       `json:"location"`
	Organization *OrganizationInput `json:"organization"`
}

type OrganizationInput struct {
	CompanyName     string       `json:"company_name"     validate:"required,max=100"`
	BusinessLicense string       `json:"business_license"`
	Capabilities    []Capability `json:"capabilities"     validate:"dive,oneof=general-cleanup hazardous-waste bulk-items graffiti-removal landscaping emergency-response"`
	TeamSize        int          `json:"team_size"        validate:"gte=0"`
	BaseRate        *float64     `json:"base_rate"        validate:"omitempty,gte=0"`
	HourlyRate      *float64     `json:"hourly_rate"      validate:"omitempty,gte=0"`
}

// Pricing falls back to the defaults only for rates the organization left out.
func (in OrganizationInput) Pricing() OrganizationPricing {
	p := DefaultPricing()
	if in.BaseRate != nil {
		p.BaseRate = *in.BaseRate
	}
	if in.HourlyRate != nil {
		p.HourlyRate = *in.HourlyRate
	}
	return p
}

func (in RegisterInput) Validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.Role == RoleOrganization && in.Organization == nil {
		return NewValidationError("organization field is required")
	}
	if in.Location != nil {
		return in.Location.Validate()
	}
	return nil
}

// ToUser builds the stored user; password is expected to be hashed already.
func (in RegisterInput) ToUser(passwordHash string, now time.Time) *User {
	u := &User{
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Password:  passwordHash,
		Role:      in.Role,
		Profile:   in.Profile,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Location != nil {
		p := in.Location.Point()
		u.Location = &p
	}
	if in.Role == RoleOrganization && in.Organization != nil {
		u.Organization = &Organization{
			CompanyName:     in.Organization.CompanyName,
			BusinessLicense: in.Organization.BusinessLicense,
			Capabilities:    in.Organization.Capabilities,
			TeamSize:        in.Organization.TeamSize,
			Pricing:         in.Organization.Pricing(),
		}
	}
	u.NormalizeRoleRecord()
	return u
}

// UpdateUserInput only carries fields a user may change about themselves.
type UpdateUserInput struct {
	Profile      *Profile            `json:"profile"`
	Location     *Coordinates        `json:"location"`
	Preferences  *CitizenPreferences `json:"preferences"`
	Organization *OrganizationPatch  `json:"organization"`
}

type OrganizationPatch struct {
	CompanyName  *string      `json:"company_name"  validate:"omitempty,max=100"`
	Capabilities []Capability `json:"capabilities"  validate:"omitempty,dive,oneof=general-cleanup hazardous-waste bulk-items graffiti-removal landscaping emergency-response"`
	TeamSize     *int         `json:"team_size"     validate:"omitempty,gte=0"`
	BaseRate     *float64     `json:"base_rate"     validate:"omitempty,gte=0"`
	HourlyRate   *float64     `json:"hourly_rate"   validate:"omitempty,gte=0"`
}

func (in UpdateUserInput) Validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.Location != nil {
		return in.Location.Validate()
	}
	return nil
}

// Apply folds the patch into u, ignoring sub-records the role does not own.
func (in UpdateUserInput) Apply(u *User) {
	if in.Profile != nil {
		u.Profile = *in.Profile
	}
	if in.Location != nil {
		p := in.Location.Point()
		u.Location = &p
	}
	if in.Preferences != nil && u.Role == RoleCitizen && u.Citizen != nil {
		u.Citizen.Preferences = *in.Preferences
	}
	if in.Organization != nil && u.Role == RoleOrganization && u.Organization != nil {
		o := in.Organization
		if o.CompanyName != nil {
			u.Organization.CompanyName = *o.CompanyName
		}
		if o.Capabilities != nil {
			u.Organization.Capabilities = o.Capabilities
		}
		if o.TeamSize != nil {
			u.Organization.TeamSize = *o.TeamSize
		}
		if o.BaseRate != nil {
			u.Organization.Pricing.BaseRate = *o.BaseRate
		}
		if o.HourlyRate != nil {
			u.Organization.Pricing.HourlyRate = *o.HourlyRate
		}
	}
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID   primitive.ObjectID
	Role Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) Is(id primitive.ObjectID) bool {
	return !p.ID.IsZero() && p.ID == id
}

func validateStruct(s interface{}) error {
	if err := validator.GetValidator().Struct(s); err != nil {
		return NewValidationError(validator.ParseErrors(err)...)
	}
	return nil
}
