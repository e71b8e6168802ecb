package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lborres/coupons/core"
)

// TokenPurpose scopes a signed link token so one kind cannot be replayed as another.
type TokenPurpose string

const (
	PurposeEmailConfirmation TokenPurpose = "email_confirmation"
	PurposePasswordRecovery  TokenPurpose = "password_recovery"

	tokenIssuer = "coupons"
)

// ActionClaims are the claims of an emailed link token.
type ActionClaims struct {
	Purpose TokenPurpose `json:"purpose"`
	// Stamp binds recovery tokens to the credential they were issued for.
	Stamp int64 `json:"stamp,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs the short-lived tokens embedded in emailed links.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

func (ti *TokenIssuer) Issue(purpose TokenPurpose, userID string, stamp int64, ttl time.Duration) (string, error) {
	now := ti.now()
	claims := ActionClaims{
		Purpose: purpose,
		Stamp:   stamp,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", purpose, err)
	}
	return signed, nil
}

// Parse validates signature, expiry and purpose and returns the claims.
// Every failure is reported as core.ErrInvalidToken.
func (ti *TokenIssuer) Parse(token string, purpose TokenPurpose) (*ActionClaims, error) {
	if token == "" {
		return nil, core.ErrTokenRequired
	}

	claims := &ActionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return ti.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: link expired", core.ErrInvalidToken)
		}
		return nil, core.ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.Subject == "" {
		return nil, core.ErrInvalidToken
	}
	return claims, nil
}
