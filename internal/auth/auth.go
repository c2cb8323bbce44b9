package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrNoSecret     = errors.New("no signing secret configured")
)

// Claims are the fields the TripTap API reads from a client token
type Claims struct {
	ClientID string
	Exp      int64
}

// Service issues and validates bearer tokens for API calls
type Service struct {
	staticToken string
	jwtSecret   []byte
	clientID    string
	tokenExp    time.Duration
	now         func() time.Time

	mu       sync.Mutex
	cached   string
	cachedAt time.Time
}

// NewService creates a token service. A static token wins over a signing secret;
// with neither, Token returns an empty string and requests go out unauthenticated.
func NewService(staticToken, secret, clientID string, exp time.Duration) *Service {
	if exp <= 0 {
		exp = 15 * time.Minute
	}
	if clientID == "" {
		clientID = "rider-cli"
	}
	return &Service{
		staticToken: staticToken,
		jwtSecret:   []byte(secret),
		clientID:    clientID,
		tokenExp:    exp,
		now:         time.Now,
	}
}

// Token returns the bearer token to attach to the next request.
// Signed tokens are reused until they are within a minute of expiry.
func (s *Service) Token() (string, error) {
	if s.staticToken != "" {
		return s.staticToken, nil
	}
	if len(s.jwtSecret) == 0 {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cached != "" && now.Before(s.cachedAt.Add(s.tokenExp-time.Minute)) {
		return s.cached, nil
	}
	token, err := s.GenerateToken(now)
	if err != nil {
		return "", err
	}
	s.cached, s.cachedAt = token, now
	return token, nil
}

// GenerateToken generates a JWT token for this client
func (s *Service) GenerateToken(now time.Time) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", ErrNoSecret
	}
	claims := jwt.MapClaims{
		"client_id": s.clientID,
		"exp":       now.Add(s.tokenExp).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	if len(s.jwtSecret) == 0 {
		return nil, ErrNoSecret
	}
	// Remove "Bearer " prefix if present
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	clientID, ok := claims["client_id"].(string)
	if !ok || clientID == "" {
		return nil, ErrInvalidToken
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &Claims{ClientID: clientID, Exp: int64(exp)}, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}
