package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taskflow-api/internal/config"
	"github.com/taskflow-api/internal/domain"
)

const (
	audienceAccess  = "access"
	audiencePending = "pending_registration"
)

// Claims holds the session JWT payload fields.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// PendingClaims carries a registrant's profile between registration and code verification.
type PendingClaims struct {
	domain.PendingRegistration
	jwt.RegisteredClaims
}

// Provider signs and verifies RS256 JWTs.
type Provider struct {
	privateKey    *rsa.PrivateKey
	publicKey     *rsa.PublicKey
	expiry        time.Duration
	pendingExpiry time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &Provider{
		privateKey:    privKey,
		publicKey:     pubKey,
		expiry:        cfg.JWTExpiry,
		pendingExpiry: cfg.PendingRegistrationTTL,
	}, nil
}

// Expiry is the lifetime of a session token.
func (p *Provider) Expiry() time.Duration { return p.expiry }

// PendingExpiry is the lifetime of a pending registration token.
func (p *Provider) PendingExpiry() time.Duration { return p.pendingExpiry }

func (p *Provider) Sign(userID, role string) (string, error) {
	claims := Claims{
		UserID:           userID,
		Role:             role,
		RegisteredClaims: registered(audienceAccess, p.expiry),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(p.privateKey)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := p.parse(tokenStr, claims, audienceAccess); err != nil {
		return nil, err
	}
	return claims, nil
}

// SignPending signs the pending registration profile.
func (p *Provider) SignPending(pending domain.PendingRegistration) (string, error) {
	claims := PendingClaims{
		PendingRegistration: pending,
		RegisteredClaims:    registered(audiencePending, p.pendingExpiry),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(p.privateKey)
}

// VerifyPending returns the profile carried by a pending registration token.
func (p *Provider) VerifyPending(tokenStr string) (*domain.PendingRegistration, error) {
	claims := &PendingClaims{}
	if err := p.parse(tokenStr, claims, audiencePending); err != nil {
		return nil, err
	}
	return &claims.PendingRegistration, nil
}

func (p *Provider) parse(tokenStr string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	}, jwt.WithAudience(audience))
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token claims")
	}
	return nil
}

func registered(audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}
