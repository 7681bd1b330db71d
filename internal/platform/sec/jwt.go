// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

/*
Package sec provides identity security services for the platform.

Account lifecycle and token issuing live in the identity host; this service
only ever *verifies* RS256-signed tokens, so it needs nothing but the
public key.

Core Components:

  - AuthClaims: the identity payload embedded in verified tokens.
  - TokenVerifier: RS256 signature and validity checks.
  - Role: hierarchy logic for privilege checks.

The package enforces a strict boundary between infrastructure-level security
and high-level business logic.
*/
package sec

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// # Identity Claims

// AuthClaims represents the payload embedded inside a JWT Access Token.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID   string `json:"uid"`
	Username string `json:"unm"`
	Role     string `json:"rol"`
}

// IsAdmin checks if the user has administrative privileges.
func (c *AuthClaims) IsAdmin() bool {
	return UserRole(c.Role) == RoleAdmin
}

// # Token Verification (RSA)

// TokenVerifier validates JWT tokens signed with RS256 by the identity host.
type TokenVerifier struct {
	publicKey *rsa.PublicKey
	issuer    string
}

// NewTokenVerifier loads the identity host's public key.
func NewTokenVerifier(publicKeyPath, issuer string) (*TokenVerifier, error) {

	// Load the Public Key for verification
	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to parse public key: %w", err)
	}

	return &TokenVerifier{
		publicKey: publicKey,
		issuer:    issuer,
	}, nil
}

// VerifyToken checks the signature and validity of a JWT string.
func (verifier *TokenVerifier) VerifyToken(tokenString string) (*AuthClaims, error) {

	// Parse the token and validate the signing method
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {

		// Ensure the token uses RSA as the signing method
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
		}

		return verifier.publicKey, nil
	}, jwt.WithIssuer(verifier.issuer))

	// Handle parsing/validation errors (e.g. expired, malformed)
	if err != nil {
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	// Extract the claims and check the 'Valid' flag
	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}

	return claims, nil
}
