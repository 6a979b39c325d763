package auth

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/app/user"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service interface {
	Register(ctx context.Context, email, name, password string) (*user.User, string, error)
	Login(ctx context.Context, email, password string) (*user.User, string, error)
}

type service struct {
	userRepo user.Repository
	tokens   *TokenManager
	logger   *zap.SugaredLogger
}

func NewService(userRepo user.Repository, tokens *TokenManager, logger *zap.Logger) Service {
	return &service{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger.Sugar(),
	}
}

func (s *service) Register(ctx context.Context, email, name, password string) (*user.User, string, error) {
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{
		Email:    email,
		Name:     name,
		Password: string(hash),
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, "", err
	}

	s.logger.Infow("User registered", "user_id", u.ID, "email", u.Email)
	return u, token, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, "", err
	}

	return u, token, nil
}
