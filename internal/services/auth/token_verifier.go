package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/questlog-backend/internal/platform/ctxutil"
	"github.com/yungbote/questlog-backend/internal/platform/logger"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

type Config struct {
	JWTSecret string `yaml:"jwt_secret"`
	Audience  string `yaml:"audience"`
}

// TokenVerifier checks access tokens issued by the identity provider. Tokens
// are HS256 with the user id in sub.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
	SetContextFromToken(ctx context.Context, token string) (context.Context, error)
}

type tokenVerifier struct {
	log    *logger.Logger
	secret []byte
	parser *jwt.Parser
}

func NewTokenVerifier(log *logger.Logger, cfg Config) (TokenVerifier, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		return nil, fmt.Errorf("auth: jwt secret required")
	}
	if log == nil {
		log = logger.Nop()
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if aud := strings.TrimSpace(cfg.Audience); aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	return &tokenVerifier{
		log:    log.With("service", "TokenVerifier"),
		secret: []byte(secret),
		parser: jwt.NewParser(opts...),
	}, nil
}

func (v *tokenVerifier) Verify(token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, ErrMissingToken
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		v.log.Debug("token rejected", "error", err)
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return userID, nil
}

func (v *tokenVerifier) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	userID, err := v.Verify(token)
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithRequestData(ctxutil.Default(ctx), &ctxutil.RequestData{UserID: userID}), nil
}

// IssueToken signs a token the verifier accepts. Only local tooling uses it;
// production tokens come from the identity provider.
func IssueToken(cfg Config, userID uuid.UUID, ttl time.Duration) (string, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return "", fmt.Errorf("auth: jwt secret required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if aud := strings.TrimSpace(cfg.Audience); aud != "" {
		claims.Audience = jwt.ClaimStrings{aud}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(strings.TrimSpace(cfg.JWTSecret)))
}
