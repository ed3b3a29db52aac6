package service

import (
	"fmt"

	"github.com/sedefy/sedetok-backend/internal/models"
	"github.com/sedefy/sedetok-backend/internal/repository"
)

type UserService struct {
	userRepo  *repository.UserRepository
	xpService *XPService
}

func NewUserService(userRepo *repository.UserRepository, xpService *XPService) *UserService {
	return &UserService{
		userRepo:  userRepo,
		xpService: xpService,
	}
}

// Register creates a new user account
func (s *UserService) Register(username, email, password string) (*models.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	existingUser, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existingUser != nil {
		return nil, ErrUserAlreadyExists
	}

	existingUser, err = s.userRepo.FindByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing username: %w", err)
	}
	if existingUser != nil {
		return nil, ErrUserAlreadyExists
	}

	passwordHash, err := models.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(username, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login checks the credentials and returns the user
func (s *UserService) Login(email, password string) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Profile is a user together with the level derived from their XP
type Profile struct {
	User          *models.User `json:"user"`
	Level         int          `json:"level"`
	XPToNextLevel int          `json:"xp_to_next_level"`
}

// GetProfile returns the user's profile with XP-derived level info
func (s *UserService) GetProfile(id string) (*Profile, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return &Profile{
		User:          user,
		Level:         s.xpService.LevelForXP(user.XP),
		XPToNextLevel: s.xpService.XPToNextLevel(user.XP),
	}, nil
}
