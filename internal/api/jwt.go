package api

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/logging"
)

var (
	errMissingSubject = errors.New("token has no subject")
	errBotSubject     = errors.New("token subject is reserved for bots")
)

type sessionClaims struct {
	Name string `json:"name"` // display name
	jwt.RegisteredClaims
}

var (
	devSecretOnce sync.Once
	devSecret     []byte
)

// SessionSecret returns the configured signing secret. Without one, an
// in-memory secret is generated so tokens only live as long as the process.
func SessionSecret(configured string) []byte {
	if configured != "" {
		return []byte(configured)
	}
	devSecretOnce.Do(func() {
		devSecret = make([]byte, 32)
		if _, err := crand.Read(devSecret); err != nil {
			logging.Fatal("failed to generate dev session secret", err, nil)
		}
		logging.Warn("no JWT secret configured; using a generated in-memory secret", nil)
	})
	return devSecret
}

func parseAndValidateSession(token string, secret []byte) (*sessionClaims, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return nil, errMissingSubject
	}
	if game.IsBotID(sub) {
		return nil, errBotSubject
	}
	if claims.Name == "" {
		claims.Name = sub
	}
	return &claims, nil
}
