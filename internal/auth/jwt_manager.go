package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("jwt-manager")

// ErrMissingSecret is returned when a manager is created without a signing key
var ErrMissingSecret = errors.New("jwt signing secret is required")

// JWTManager signs and validates HS256 tokens for one issuer
type JWTManager struct {
	signingKey []byte
	algorithm  string
	keyID      string
	issuer     string
	tracer     trace.Tracer
}

// Claims identifies the caller of the console API or of the inference service
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// NewJWTManager creates a manager for issuer signing with secret
func NewJWTManager(secret, issuer string) (*JWTManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	return &JWTManager{
		signingKey: []byte(secret),
		algorithm:  jwt.SigningMethodHS256.Alg(),
		keyID:      "default",
		issuer:     issuer,
		tracer:     tracer,
	}, nil
}

// GenerateToken issues a token for subject valid for ttl
func (jm *JWTManager) GenerateToken(ctx context.Context, subject string, roles []string, ttl time.Duration) (string, time.Time, error) {
	_, span := jm.tracer.Start(ctx, "jwt.generate_token")
	defer span.End()

	span.SetAttributes(attribute.String("jwt.subject", subject))

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    jm.issuer,
			Subject:   subject,
			ID:        fmt.Sprintf("jwt-%d", now.UnixNano()),
		},
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(jm.algorithm), claims)
	token.Header["kid"] = jm.keyID

	tokenString, err := token.SignedString(jm.signingKey)
	if err != nil {
		span.RecordError(err)
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	span.SetAttributes(attribute.String("jwt.expires_at", expiresAt.Format(time.RFC3339)))
	return tokenString, expiresAt, nil
}

// ValidateToken parses tokenString and checks signature, expiry and issuer
func (jm *JWTManager) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	_, span := jm.tracer.Start(ctx, "jwt.validate_token")
	defer span.End()

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jm.algorithm {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if kid, ok := token.Header["kid"].(string); ok && kid != jm.keyID {
			span.SetAttributes(attribute.String("jwt.kid_mismatch", kid))
		}
		return jm.signingKey, nil
	}, jwt.WithIssuer(jm.issuer))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	span.SetAttributes(attribute.String("jwt.subject", claims.Subject))
	return claims, nil
}

// ServiceTokenSource mints bearer tokens for outbound calls and reuses each one
// until it is close to expiring
type ServiceTokenSource struct {
	manager *JWTManager
	subject string
	ttl     time.Duration

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// refreshMargin is how long before expiry a cached token is replaced
const refreshMargin = 30 * time.Second

// NewServiceTokenSource creates a token source for subject
func NewServiceTokenSource(manager *JWTManager, subject string, ttl time.Duration) *ServiceTokenSource {
	return &ServiceTokenSource{
		manager: manager,
		subject: subject,
		ttl:     ttl,
	}
}

// Token returns a valid bearer token
func (s *ServiceTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Until(s.expiresAt) > refreshMargin {
		return s.token, nil
	}

	token, expiresAt, err := s.manager.GenerateToken(ctx, s.subject, nil, s.ttl)
	if err != nil {
		return "", err
	}
	s.token, s.expiresAt = token, expiresAt
	return token, nil
}
