package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecosnap/internal/models"
	"ecosnap/internal/utils"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

type UserService interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.User, error)
	CreateUser(ctx context.Context, p models.Principal, in models.RegisterInput) (*models.User, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ListUsers(ctx context.Context, p models.Principal, role models.Role, page models.Pagination) (models.Page[models.User], error)
	UpdateProfile(ctx context.Context, p models.Principal, id primitive.ObjectID, in models.UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, p models.Principal, id primitive.ObjectID) error
	SetOrganizationVerification(ctx context.Context, p models.Principal, id primitive.ObjectID, status models.VerificationStatus) (*models.User, error)
	Leaderboard(ctx context.Context, limit int64) ([]models.LeaderboardEntry, error)
}

type userService struct {
	users    UserRepository
	notifier Notifier
	hash     func(string) (string, error)
	now      func() time.Time
}

func NewUserService(users UserRepository, notifier Notifier) UserService {
	return &userService{users: users, notifier: notifier, hash: utils.HashPassword, now: time.Now}
}

// Register is self sign-up; admin accounts can only be made through CreateUser.
func (s *userService) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	if in.Role == models.RoleAdmin {
		return nil, fmt.Errorf("%w: admin accounts cannot self-register", models.ErrForbidden)
	}
	return s.create(ctx, in)
}

func (s *userService) CreateUser(ctx context.Context, p models.Principal, in models.RegisterInput) (*models.User, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can create users", models.ErrForbidden)
	}
	return s.create(ctx, in)
}

func (s *userService) create(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := in.ToUser(hash, s.now())
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) ListUsers(ctx context.Context, p models.Principal, role models.Role, page models.Pagination) (models.Page[models.User], error) {
	if !p.IsAdmin() {
		return models.Page[models.User]{}, fmt.Errorf("%w: only admins can list users", models.ErrForbidden)
	}
	if role != "" && !role.IsValid() {
		return models.Page[models.User]{}, models.NewValidationError(fmt.Sprintf("role %q must be one of [citizen organization admin]", role))
	}
	page = models.NewPagination(page.Page, page.Limit)

	users, total, err := s.users.List(ctx, role, page)
	if err != nil {
		return models.Page[models.User]{}, fmt.Errorf("list users: %w", err)
	}
	return models.Page[models.User]{Items: users, Total: total, Pagination: page}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, p models.Principal, id primitive.ObjectID, in models.UpdateUserInput) (*models.User, error) {
	if !p.IsAdmin() && !p.Is(id) {
		return nil, fmt.Errorf("%w: users can only edit their own profile", models.ErrForbidden)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Apply(user)
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, p models.Principal, id primitive.ObjectID) error {
	if !p.IsAdmin() {
		return fmt.Errorf("%w: only admins can delete users", models.ErrForbidden)
	}
	return s.users.Delete(ctx, id)
}

func (s *userService) SetOrganizationVerification(ctx context.Context, p models.Principal, id primitive.ObjectID, status models.VerificationStatus) (*models.User, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can verify organizations", models.ErrForbidden)
	}
	if !status.IsValid() {
		return nil, models.NewValidationError(fmt.Sprintf("status %q must be one of [pending verified rejected suspended]", status))
	}

	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Role != models.RoleOrganization {
		return nil, fmt.Errorf("%w: user %s is not an organization", models.ErrInvalidRole, id.Hex())
	}

	v := models.OrganizationVerification{Status: status}
	if status == models.VerificationVerified {
		now := s.now()
		v.VerifiedAt = &now
	}
	user, err := s.users.SetOrganizationVerification(ctx, id, v)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, Event{
		Type:     EventOrganizationVerified,
		UserID:   id.Hex(),
		Role:     models.RoleOrganization,
		Title:    "Verification status updated",
		Message:  fmt.Sprintf("Your organization is now %s.", status),
		Metadata: map[string]string{"status": string(status)},
	})
	return user, nil
}

// Leaderboard ranks active citizens by points; limit defaults to 10 and is capped at 100.
func (s *userService) Leaderboard(ctx context.Context, limit int64) ([]models.LeaderboardEntry, error) {
	if limit < 1 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	return s.users.Leaderboard(ctx, limit)
}
