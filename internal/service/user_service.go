package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"yatube/internal/form"
	"yatube/internal/model"
	"yatube/internal/pkg"
	rrepo "yatube/internal/repository/redis"
	"yatube/internal/repository/sqldb"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	repo     *sqldb.UserRepository
	sessions *rrepo.SessionRepository
	tokens   *pkg.TokenIssuer
}

func NewUserService(db *gorm.DB, sessions *rrepo.SessionRepository, tokens *pkg.TokenIssuer) *UserService {
	return &UserService{
		repo:     &sqldb.UserRepository{DB: db},
		sessions: sessions,
		tokens:   tokens,
	}
}

// Signup creates the account and logs it in, returning the access token.
func (s *UserService) Signup(ctx context.Context, f *form.SignupForm) (*model.User, string, error) {
	if !f.Validate() {
		return nil, "", f.Errors
	}
	taken, err := s.repo.ExistsByUsername(ctx, f.Username)
	if err != nil {
		return nil, "", err
	}
	if taken {
		f.Errors.Add("username", "A user with that username already exists.")
		return nil, "", f.Errors
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	user := &model.User{
		Username: f.Username,
		Password: string(hash),
		Email:    f.Email,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, "", err
	}
	token, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login checks the credentials and replaces any earlier session of the user.
func (s *UserService) Login(ctx context.Context, f *form.LoginForm) (*model.User, string, error) {
	if !f.Validate() {
		return nil, "", f.Errors
	}
	user, err := s.repo.FindByUsername(ctx, f.Username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(f.Password)) != nil {
		f.Errors.Add(form.NonFieldErrors,
			"Please enter a correct username and password. Note that both fields may be case-sensitive.")
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidCredentials, f.Errors)
	}

	token, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	return s.sessions.Delete(ctx, userID)
}

// Authenticate resolves an access token to its user. The token must be the
// one stored for the user's current session. Every successful call slides
// the session expiry; once the token is past half its lifetime a fresh one
// replaces it and is returned as renewed, otherwise renewed is empty.
func (s *UserService) Authenticate(ctx context.Context, token string) (user *model.User, renewed string, err error) {
	claims, err := s.tokens.ParseAccess(token)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	stored, err := s.sessions.Get(ctx, claims.UserID)
	if errors.Is(err, rrepo.ErrSessionNotFound) || (err == nil && stored != token) {
		return nil, "", fmt.Errorf("%w: session revoked", ErrUnauthenticated)
	}
	if err != nil {
		return nil, "", err
	}

	user, err = s.repo.FindByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("%w: user %d is gone", ErrUnauthenticated, claims.UserID)
	}
	if err != nil {
		return nil, "", err
	}

	if s.tokens.NeedsRenewal(claims) {
		if renewed, err = s.startSession(ctx, claims.UserID); err == nil {
			return user, renewed, nil
		}
		pkg.Logger.WarnContext(ctx, "session renewal failed",
			slog.Uint64("user_id", claims.UserID), slog.String("error", err.Error()))
	}
	if err := s.sessions.Extend(ctx, claims.UserID); err != nil {
		pkg.Logger.WarnContext(ctx, "session extend failed",
			slog.Uint64("user_id", claims.UserID), slog.String("error", err.Error()))
	}
	return user, "", nil
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "user %q", username)
	}
	return user, nil
}

func (s *UserService) startSession(ctx context.Context, userID uint64) (string, error) {
	token, err := s.tokens.GenerateAccess(userID)
	if err != nil {
		return "", err
	}
	if err := s.sessions.Save(ctx, userID, token); err != nil {
		return "", err
	}
	return token, nil
}
