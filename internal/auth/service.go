package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventflow-app/eventflow/internal/models"
	"github.com/eventflow-app/eventflow/internal/store"
)

// Service owns sign-up, login and profile maintenance. It is the only
// component that mutates Identity: Login sets it, Logout clears it.
type Service struct {
	backend   Backend
	db        store.Database
	sessions  SessionRepository
	identity  *Identity
	jwtSecret string
	jwtExpiry time.Duration
	log       *logrus.Logger
}

type LoginResponse struct {
	Token     string
	ExpiresAt time.Time
	UserID    string
}

type TokenClaims struct {
	UserID    string
	SessionID string
}

func NewService(
	backend Backend,
	db store.Database,
	sessions SessionRepository,
	identity *Identity,
	jwtSecret string,
	jwtExpiry time.Duration,
	log *logrus.Logger,
) *Service {
	return &Service{
		backend:   backend,
		db:        db,
		sessions:  sessions,
		identity:  identity,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		log:       log,
	}
}

// Identity exposes the session object shared with gateways and collections.
func (s *Service) Identity() *Identity {
	return s.identity
}

// SignUp registers a credential and writes the profile record under
// /Users/{id}. The new user is not signed in; they log in afterwards.
func (s *Service) SignUp(ctx context.Context, name, email, password string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: name", ErrMissingField)
	}
	if strings.TrimSpace(email) == "" {
		return "", fmt.Errorf("%w: email", ErrMissingField)
	}
	if password == "" {
		return "", fmt.Errorf("%w: password", ErrMissingField)
	}

	userID, err := s.backend.CreateAccount(ctx, email, password)
	if err != nil {
		return "", err
	}

	user := models.User{ID: userID, Name: name, Email: email}
	if err := s.db.Write(ctx, store.UserPath(userID), user); err != nil {
		return "", fmt.Errorf("failed to write user profile: %w", err)
	}

	s.log.WithField("user_id", userID).Info("user signed up")
	return userID, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password", ErrMissingField)
	}

	userID, err := s.backend.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	expiresAt := time.Now().Add(s.jwtExpiry)
	session := &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.generateToken(userID, sessionID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.identity.Set(userID)
	s.log.WithField("user_id", userID).Info("user logged in")

	return &LoginResponse{Token: token, ExpiresAt: expiresAt, UserID: userID}, nil
}

func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return err
	}

	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.identity.Clear()
	s.log.WithField("user_id", claims.UserID).Info("user logged out")
	return nil
}

// UpdateProfile changes name, email and optionally the password. The name
// and email live in the profile record; credentials go through the backend.
func (s *Service) UpdateProfile(ctx context.Context, userID, name, email, password string) error {
	if userID == "" || userID != s.identity.UserID() {
		return ErrNotSignedIn
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email", ErrMissingField)
	}

	if err := s.backend.UpdateEmail(ctx, userID, email); err != nil {
		return err
	}
	if password != "" {
		if err := s.backend.UpdatePassword(ctx, userID, password); err != nil {
			return err
		}
	}

	user := models.User{ID: userID, Name: name, Email: email}
	if err := s.db.Write(ctx, store.UserPath(userID), user); err != nil {
		return fmt.Errorf("failed to write user profile: %w", err)
	}
	return nil
}

func (s *Service) generateToken(userID, sessionID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"jti": sessionID,
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *Service) VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidToken
	}
	sessionID, ok := claims["jti"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{UserID: userID, SessionID: sessionID}, nil
}

// Authenticate resolves a bearer token to its claims. A well-signed token
// whose session has been revoked or has expired is rejected: logout takes
// effect immediately, not at the token's exp.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*TokenClaims, error) {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}

	if _, err := s.sessions.GetByID(ctx, claims.SessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	return claims, nil
}
