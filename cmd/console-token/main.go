package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/bizmatters/reasoning-console/internal/auth"
	"github.com/bizmatters/reasoning-console/internal/config"
	"github.com/bizmatters/reasoning-console/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	// MaxTokenTTL bounds how long a minted console token stays valid
	MaxTokenTTL = 30 * 24 * time.Hour
	tokenIssuer = "reasoning-console"
)

var (
	subjectRegex = regexp.MustCompile(`^[A-Za-z0-9._@-]{1,64}$`)
	knownRoles   = []string{auth.RoleOperator}
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	subject := flag.String("subject", "", "Token subject, e.g. an operator name (required)")
	roles := flag.String("roles", "", "Comma-separated roles, e.g. operator")
	ttl := flag.Duration("ttl", 12*time.Hour, "Token lifetime")
	flag.Parse()

	// stdout carries the token only
	logger.SetOutput(os.Stderr)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	roleList, err := validateInputs(*subject, *roles, *ttl)
	if err != nil {
		logger.Fatalf("Validation error: %v", err)
	}

	token, expiresAt, err := mintToken(context.Background(), cfg.Console.JWTSecret, *subject, roleList, *ttl)
	if err != nil {
		logger.Fatalf("Failed to mint token: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"subject":    *subject,
		"roles":      roleList,
		"expires_at": expiresAt.Format(time.RFC3339),
	}).Info("Minted console token")
	fmt.Println(token)
}

// validateInputs checks the flags and returns the normalized role list
func validateInputs(subject, roles string, ttl time.Duration) ([]string, error) {
	if !subjectRegex.MatchString(subject) {
		return nil, fmt.Errorf("invalid subject %q", subject)
	}

	if ttl <= 0 || ttl > MaxTokenTTL {
		return nil, fmt.Errorf("ttl must be between 0 and %s, got %s", MaxTokenTTL, ttl)
	}

	var roleList []string
	for _, role := range strings.Split(roles, ",") {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			continue
		}
		if !slices.Contains(knownRoles, role) {
			return nil, fmt.Errorf("unknown role %q", role)
		}
		if !slices.Contains(roleList, role) {
			roleList = append(roleList, role)
		}
	}

	return roleList, nil
}

func mintToken(ctx context.Context, secret, subject string, roles []string, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, fmt.Errorf("console.jwt_secret is not configured: %w", auth.ErrMissingSecret)
	}

	manager, err := auth.NewJWTManager(secret, tokenIssuer)
	if err != nil {
		return "", time.Time{}, err
	}
	return manager.GenerateToken(ctx, subject, roles, ttl)
}
