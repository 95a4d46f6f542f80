package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kanban-board/internal/models"
	"kanban-board/pkg/crypto"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// Claims identify the authenticated user behind a bearer token.
type Claims struct {
	UserID string
	Email  string
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer signs HS256 tokens valid for ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the user.
func (t *TokenIssuer) Issue(userID, email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"iat":     t.now().Unix(),
		"exp":     t.now().Add(t.ttl).Unix(),
	})
	return token.SignedString(t.secret)
}

// Parse validates signature and expiry and returns the token claims.
func (t *TokenIssuer) Parse(raw string) (Claims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, models.Unauthorized("Invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, models.Unauthorized("Invalid token claims")
	}
	if exp, ok := claims["exp"].(float64); !ok || int64(exp) < t.now().Unix() {
		return Claims{}, models.Unauthorized("Token expired")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return Claims{}, models.Unauthorized("Invalid user ID in token")
	}
	email, _ := claims["email"].(string)
	return Claims{UserID: userID, Email: email}, nil
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var validate = validator.New()

func checkEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return models.Validation(models.FieldError{Field: "email", Message: "Invalid email address"})
	}
	return nil
}

// Signup creates the account and returns a token for it.
func (s *Service) Signup(ctx context.Context, email, password string, name *string) (*AuthResult, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	email = normalizeEmail(email)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.repo.CreateUser(ctx, models.User{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.deny("", "duplicate signup", zap.String("email", email))
			return nil, models.Conflict("Email is already in use")
		}
		return nil, err
	}
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.audit("user registered", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// Login returns a token when the password matches.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	email = normalizeEmail(email)
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if user == nil || !crypto.CheckPassword(user.PasswordHash, password) {
		s.deny("", "failed login", zap.String("email", email))
		return nil, models.Unauthorized("Invalid email or password")
	}
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.audit("login success", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// Me returns the authenticated user.
func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.GetProfile(ctx, userID)
}
