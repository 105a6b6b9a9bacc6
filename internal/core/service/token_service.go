package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/piar/backoffice/internal/metrics"
	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/ports"
)

const defaultTokenTTL = time.Hour

// Claims is the JWT body: the token payload plus registered claims.
type Claims struct {
	AccountID string      `json:"accountId"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 bearer tokens. Signing is a pure
// function of payload, secret, TTL and the clock.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	denylist ports.TokenDenylist
	now      func() time.Time
	log      zerolog.Logger
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithDenylist enables revocation checks on Verify and makes Revoke effective.
func WithDenylist(d ports.TokenDenylist) TokenOption {
	return func(s *TokenService) { s.denylist = d }
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithIssuer sets the iss claim.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) { s.issuer = issuer }
}

// WithTokenLogger sets the logger used for denylist failures.
func WithTokenLogger(log zerolog.Logger) TokenOption {
	return func(s *TokenService) { s.log = log }
}

func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Sign issues a session for payload.
func (s *TokenService) Sign(payload domain.TokenPayload) (domain.Session, error) {
	now := s.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		AccountID: payload.AccountID,
		Email:     payload.Email,
		Role:      payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.AccountID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return domain.Session{}, domain.NewInternalServerError("failed to sign token", nil).WithCause(err)
	}
	return domain.Session{Token: signed, ExpiresAt: expiresAt}, nil
}

// Verify checks signature and expiry, then the denylist when one is configured.
func (s *TokenService) Verify(ctx context.Context, token string) (*domain.TokenPayload, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	if s.denylist != nil {
		revoked, err := s.denylist.IsRevoked(ctx, TokenID(token))
		if err != nil {
			// Fail closed: a token we cannot check is not trusted.
			s.log.Error().Err(err).Msg("token denylist lookup failed")
			metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
			return nil, domain.NewTokenInvalidError("").WithCause(err)
		}
		if revoked {
			metrics.TokenVerificationsTotal.WithLabelValues("revoked").Inc()
			return nil, domain.NewTokenInvalidError("Token has been revoked").WithI18nKey("token_revoked")
		}
	}

	metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()
	return &domain.TokenPayload{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}

// Revoke denylists token until its expiry. Without a denylist it only checks
// the token is currently valid.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	if s.denylist == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.denylist.Revoke(ctx, TokenID(token), ttl); err != nil {
		return domain.NewInternalServerError("failed to revoke token", nil).WithCause(err)
	}
	return nil
}

func (s *TokenService) parse(token string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired()}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			metrics.TokenVerificationsTotal.WithLabelValues("expired").Inc()
			return nil, domain.NewTokenExpiredError("").WithI18nKey("token_expired")
		}
		metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.NewTokenInvalidError("").WithI18nKey("token_invalid").WithCause(err)
	}
	if !parsed.Valid || claims.AccountID == "" {
		metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.NewTokenInvalidError("").WithI18nKey("token_invalid")
	}
	return claims, nil
}

// TokenID is the denylist key for a token: hex SHA-256 of the compact form.
func TokenID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
