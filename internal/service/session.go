package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"equipment-monitor/internal/domain"
)

// DefaultTokenTTL is the absolute lifetime of a session token.
const DefaultTokenTTL = 24 * time.Hour

// Claims is the payload of a session token.
type Claims struct {
	UserID   int64       `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// SessionIssuer verifies credentials and issues/validates signed session tokens.
type SessionIssuer interface {
	Login(ctx context.Context, username, password string) (*Session, error)
	Issue(user *domain.User) (string, time.Time, error)
	Verify(token string) (*domain.Identity, error)
}

type SessionOptions struct {
	Secret string
	TTL    time.Duration
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

type sessionIssuer struct {
	users  UserService
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionIssuer(users UserService, opts SessionOptions) (SessionIssuer, error) {
	if opts.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTokenTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &sessionIssuer{
		users:  users,
		secret: []byte(opts.Secret),
		ttl:    opts.TTL,
		now:    opts.Now,
	}, nil
}

func (s *sessionIssuer) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, exp, err := s.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: user}, nil
}

func (s *sessionIssuer) Issue(user *domain.User) (string, time.Time, error) {
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify never distinguishes expired from tampered tokens; both yield ErrInvalidToken.
func (s *sessionIssuer) Verify(token string) (*domain.Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}

	return &domain.Identity{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}
