// Package token validates the bearer credentials minted by the authentication
// collaborator. This core trusts the auth layer: a token that verifies against
// the shared signing key identifies the caller, nothing more.
package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	id "idproof/pkg/domain"
	mwauth "idproof/pkg/platform/middleware/auth"
)

type claims struct {
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Validator verifies HS256 tokens signed with the shared key.
type Validator struct {
	signingKey []byte
}

// NewValidator constructs a Validator. The key must match what the auth
// collaborator signs with.
func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies a token, returning the caller's claims.
// The subject must be a valid user UUID.
func (v *Validator) ValidateToken(tokenString string) (*mwauth.Claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	userID, err := id.ParseUserID(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}

	return &mwauth.Claims{
		UserID:    userID,
		SessionID: c.SessionID,
		JTI:       c.ID,
	}, nil
}
