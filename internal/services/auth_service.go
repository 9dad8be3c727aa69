package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taskflow-ai/taskflow-api/internal/constants"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"github.com/taskflow-ai/taskflow-api/internal/repository"
	"github.com/taskflow-ai/taskflow-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrUsernameTooLong    = errors.New("username is too long")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrUserNotFound       = errors.New("user not found")
	ErrSignupFailed       = errors.New("failed to create account")
)

// AuthService registers users and checks their credentials.
type AuthService struct {
	userRepo repository.UserRepository
	cost     int

	// Compared against when the username is unknown so both failure paths
	// take about as long.
	decoyHash []byte
}

func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return newAuthService(userRepo, bcrypt.DefaultCost)
}

func newAuthService(userRepo repository.UserRepository, cost int) *AuthService {
	decoy, err := bcrypt.GenerateFromPassword([]byte("decoy-password"), cost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt: %v", err))
	}
	return &AuthService{userRepo: userRepo, cost: cost, decoyHash: decoy}
}

type SignupInput struct {
	Username string
	Password string
}

func normalizeUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	switch {
	case username == "":
		return "", ErrUsernameRequired
	case len(username) > constants.MaxUsernameLength:
		return "", ErrUsernameTooLong
	}
	return username, nil
}

// Signup creates the account and its personal workspace, which the new
// user owns.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	username, err := normalizeUsername(input.Username)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	taken, err := s.userRepo.UsernameExists(username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignupFailed, err)
	}
	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignupFailed, err)
	}

	user := &models.User{Username: username, PasswordHash: string(hash)}
	workspace := &models.Organization{
		Name:       username + "'s workspace",
		InviteCode: inviteCode,
	}

	if err := s.userRepo.CreateWithWorkspace(user, workspace); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignupFailed, err)
	}
	return user, nil
}

type LoginInput struct {
	Username string
	Password string
}

// Login returns the user whose credentials match. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(strings.TrimSpace(input.Username))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.decoyHash, []byte(input.Password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) GetUser(id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
