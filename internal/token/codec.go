// Package token decodes the claims embedded in provider-issued access
// tokens. The provider already verified the signature when it minted the
// token; the bridge only needs the payload, so decoding is deliberately
// unverified and never fails loudly.
package token

import (
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// Claims is the subset of access-token claims the bridge cares about.
type Claims struct {
	Subject      string
	Expiry       int64
	Audience     string
	Role         string
	Email        string
	AppMetadata  map[string]any
	UserMetadata map[string]any
}

type customClaims struct {
	Role         string         `json:"role"`
	Email        string         `json:"email"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// signatureAlgs lists every algorithm the provider is known to sign with,
// legacy shared-secret and current asymmetric keys alike.
var signatureAlgs = []jose.SignatureAlgorithm{
	jose.HS256, jose.HS384, jose.HS512,
	jose.RS256, jose.RS384, jose.RS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.PS256, jose.PS384, jose.PS512,
	jose.EdDSA,
}

// DecodeClaims extracts the claims from raw without verifying the signature.
// Malformed input of any kind yields (nil, false).
func DecodeClaims(raw string) (*Claims, bool) {
	parsed, err := jwt.ParseSigned(raw, signatureAlgs)
	if err != nil {
		return nil, false
	}

	var standard jwt.Claims
	var custom customClaims
	if err := parsed.UnsafeClaimsWithoutVerification(&standard, &custom); err != nil {
		return nil, false
	}

	claims := &Claims{
		Subject:      standard.Subject,
		Role:         custom.Role,
		Email:        custom.Email,
		AppMetadata:  custom.AppMetadata,
		UserMetadata: custom.UserMetadata,
	}
	if standard.Expiry != nil {
		claims.Expiry = int64(*standard.Expiry)
	}
	if len(standard.Audience) > 0 {
		claims.Audience = standard.Audience[0]
	}

	return claims, true
}
