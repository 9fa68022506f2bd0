package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"equipment-monitor/internal/domain"
	"equipment-monitor/internal/repository"
)

const minPasswordLength = 6

// NewUser carries the fields needed to provision an account.
type NewUser struct {
	Username string
	Password string
	Role     domain.Role
	FullName string
}

// DefaultSeedAccounts are inserted by Bootstrap when no others are configured.
var DefaultSeedAccounts = []NewUser{
	{Username: "admin", Password: "admin123", Role: domain.RoleAdmin, FullName: "Administrator"},
	{Username: "engineer1", Password: "eng123", Role: domain.RoleEngineer, FullName: "Test Engineer"},
}

// UserService describes account lifecycle operations.
type UserService interface {
	Bootstrap(ctx context.Context) (int, error)
	Create(ctx context.Context, in NewUser) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type UserOptions struct {
	BcryptCost int
	Seed       []NewUser
}

type userService struct {
	users repository.UserRepository
	cost  int
	seed  []NewUser

	dummyOnce sync.Once
	dummyHash []byte
}

func NewUserService(users repository.UserRepository, opts UserOptions) UserService {
	cost := opts.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	seed := opts.Seed
	if len(seed) == 0 {
		seed = DefaultSeedAccounts
	}
	return &userService{
		users: users,
		cost:  cost,
		seed:  seed,
	}
}

// Bootstrap inserts the seed accounts that do not exist yet and returns how many were created.
func (s *userService) Bootstrap(ctx context.Context) (int, error) {
	created := 0
	for _, acc := range s.seed {
		user, err := s.newUser(acc)
		if err != nil {
			return created, fmt.Errorf("seed %q: %w", acc.Username, err)
		}
		ok, err := s.users.CreateIfAbsent(ctx, user)
		if err != nil {
			return created, fmt.Errorf("seed %q: %w", acc.Username, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func (s *userService) Create(ctx context.Context, in NewUser) (*domain.User, error) {
	user, err := s.newUser(in)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) newUser(in NewUser) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         in.Role,
		FullName:     strings.TrimSpace(in.FullName),
	}, nil
}

// Authenticate returns ErrInvalidCredentials for an unknown username and for a
// wrong password. Both paths run one bcrypt comparison.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *userService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("equipment-monitor/no-such-user"), s.cost)
	})
	return s.dummyHash
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt,
	}
}
