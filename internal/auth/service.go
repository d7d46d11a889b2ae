package auth

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "souvenir-tracking"

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, user User) (User, error)
}

// Service wraps authentication business rules: credential checks, password
// hashing, and token issuance.
type Service struct {
	repo   Repository
	secret []byte
	ttl    time.Duration
}

// NewService constructs a new Service.
func NewService(repo Repository, secret string, ttl time.Duration) *Service {
	return &Service{repo: repo, secret: []byte(secret), ttl: ttl}
}

// Token carries an issued access token and its expiry.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

type accessClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, username, password string) (User, error) {
	name = strings.TrimSpace(name)
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || len(username) < 4 {
		return User{}, ErrInvalidCredentials
	}
	if len(password) < 6 {
		return User{}, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, User{
		Name:         name,
		Username:     username,
		PasswordHash: string(hash),
	})
}

// Authenticate validates credentials and issues a signed token.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, Token, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return User{}, Token{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, Token{}, ErrInvalidCredentials
	}

	token, err := s.issue(user)
	if err != nil {
		return User{}, Token{}, err
	}
	return user, token, nil
}

// CurrentUser resolves the account a token was issued for.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (User, error) {
	return s.repo.FindByID(ctx, userID)
}

// ParseToken validates a bearer token and returns the subject user ID.
func (s *Service) ParseToken(tokenStr string) (int64, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return 0, ErrTokenInvalid
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, ErrTokenInvalid
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrTokenInvalid
	}
	return id, nil
}

func (s *Service) issue(user User) (Token, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name: user.Name,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresAt: expiresAt}, nil
}
