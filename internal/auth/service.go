package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fitrackapp/fitrack/internal/telemetry/tracing"
	"github.com/fitrackapp/fitrack/pkg"
)

const DefaultTokenTTL = 30 * 24 * time.Hour

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrValidation         = errors.New("validation failed")
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type usersRepo interface {
	Create(ctx context.Context, user User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// Claims are the JWT claims carried by every issued token.
// UserID is the partition key for all workout/meal/detail queries.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

type Service struct {
	repo      usersRepo
	jwtSecret []byte
	tokenTTL  time.Duration
	// injectable for unit tests
	NowFunc func() time.Time
}

func NewService(repo usersRepo, jwtSecret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		NowFunc:   time.Now,
	}
}

func (s *Service) TokenTTL() time.Duration {
	return s.tokenTTL
}

func (s *Service) Register(ctx context.Context, username, email, password string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.register")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if len(username) < 3 {
		return nil, fmt.Errorf("%w: username must have at least 3 characters", ErrValidation)
	}
	if !emailRegex.MatchString(email) {
		return nil, fmt.Errorf("%w: please provide a valid email", ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must have at least 6 characters", ErrValidation)
	}

	passwordHash, err := pkg.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.NowFunc()
	return s.repo.Create(ctx, User{
		Username:  username,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Service) Login(ctx context.Context, email, password string) (token string, _ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.login")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if email == "" || password == "" {
		return "", nil, fmt.Errorf("%w: please provide an email and password", ErrValidation)
	}

	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("get user: %w", err)
	}

	if !pkg.CheckPasswordHash(password, user.Password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err = s.SignToken(user.ID.Hex())
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return token, user, nil
}

func (s *Service) SignToken(userID string) (string, error) {
	now := s.NowFunc()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// Verify parses and validates a signed token, returning the claims
func (s *Service) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *Service) Me(ctx context.Context, userID string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.me")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return s.repo.GetByID(ctx, userID)
}
