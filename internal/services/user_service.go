package services

import (
	"context"
	"errors"

	"github.com/farmgate/farmgate/internal/repository"
	"github.com/farmgate/farmgate/pkg/domain"
	"github.com/farmgate/farmgate/pkg/hash"
)

const minPasswordLength = 8

// ErrForbidden means the caller is authenticated but does not own the
// resource it is acting on.
var ErrForbidden = errors.New("forbidden")

type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone"`
	FullName    string `json:"fullName"`
	UserType    string `json:"userType"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	FarmName    string `json:"farmName,omitempty"`
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	ChangeType(ctx context.Context, id string, userType string) (*domain.User, error)
	AddAddress(ctx context.Context, userID string, addr domain.Address) (*domain.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error
}

type userService struct {
	users  repository.UserRepository
	hasher *hash.Hasher
}

func NewUserService(users repository.UserRepository, hasher *hash.Hasher) UserService {
	return &userService{users: users, hasher: hasher}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if len(in.Password) < minPasswordLength {
		return nil, errors.New("password must be at least 8 characters")
	}
	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := domain.User{
		Email:        in.Email,
		Phone:        in.Phone,
		FullName:     in.FullName,
		UserType:     domain.Role(in.UserType),
		PasswordHash: hashed,
		DateOfBirth:  in.DateOfBirth,
		FarmName:     in.FarmName,
	}
	return s.users.Create(ctx, user)
}

func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.Get(ctx, id)
}

func (s *userService) ChangeType(ctx context.Context, id string, userType string) (*domain.User, error) {
	if !domain.ValidRole(userType) {
		return nil, errors.New("invalid user type")
	}
	return s.users.UpdateType(ctx, id, domain.Role(userType))
}

func (s *userService) AddAddress(ctx context.Context, userID string, addr domain.Address) (*domain.Address, error) {
	addr.UserID = userID
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return s.users.AddAddress(ctx, addr)
}

func (s *userService) DeleteAddress(ctx context.Context, userID, addressID string) error {
	return s.users.DeleteAddress(ctx, userID, addressID)
}
