package token

import (
	"crypto"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultKeyFetchTimeout = 5 * time.Second

// allowedAlgorithms is the fixed allow-list of signature algorithms a profile
// may be constructed with.
var allowedAlgorithms = map[string]bool{
	"HS256": true, "HS384": true, "HS512": true,
	"RS256": true, "RS384": true, "RS512": true,
	"ES256": true, "ES384": true, "ES512": true,
}

// ProfileConfig carries the raw material for a signing profile.
type ProfileConfig struct {
	// Algorithm selects the signature algorithm. Must be in the allow-list.
	Algorithm string

	// SigningKey is the shared secret for HS* algorithms, or a PEM-encoded
	// private key for RS*/ES*. Required for symmetric algorithms and for any
	// profile used to issue tokens.
	SigningKey []byte

	// VerificationKey is a PEM-encoded public key for RS*/ES* algorithms.
	VerificationKey []byte

	// JWKSURL points at a remote key set for RS* algorithms. The key id in a
	// presented token's header selects the key.
	JWKSURL string

	// KeyID, when set, is stamped into the header of issued tokens so
	// verifiers can select the matching key from a key set.
	KeyID string

	// Audience and Issuer, when set, are stamped into issued tokens and
	// enforced on decode.
	Audience []string
	Issuer   string

	// Leeway is the permitted clock skew when checking expiry.
	Leeway time.Duration

	// HTTPTimeout bounds remote key-set fetches. Defaults to 5s.
	HTTPTimeout time.Duration
}

// Profile is an immutable signing/verification configuration. Safe for
// concurrent use by any number of simultaneous encode/decode calls.
type Profile struct {
	algorithm string
	keyID     string
	secret    []byte
	signKey   crypto.PrivateKey
	verifyKey crypto.PublicKey
	keySet    *keySetResolver
	audience  []string
	issuer    string
	leeway    time.Duration
}

// NewProfile validates the configuration and parses key material up front.
// Misconfiguration fails here, never at encode/decode time.
func NewProfile(cfg ProfileConfig) (*Profile, error) {
	if !allowedAlgorithms[cfg.Algorithm] {
		return nil, &ConfigError{Msg: fmt.Sprintf("unsupported algorithm %q", cfg.Algorithm)}
	}
	if cfg.Leeway < 0 {
		return nil, &ConfigError{Msg: "leeway must not be negative"}
	}

	p := &Profile{
		algorithm: cfg.Algorithm,
		keyID:     cfg.KeyID,
		audience:  append([]string(nil), cfg.Audience...),
		issuer:    cfg.Issuer,
		leeway:    cfg.Leeway,
	}

	if p.symmetric() {
		if len(cfg.SigningKey) == 0 {
			return nil, &ConfigError{Msg: "signing key is required for " + cfg.Algorithm}
		}
		p.secret = cfg.SigningKey
		return p, nil
	}

	// Asymmetric: some means of obtaining a verification key is mandatory.
	if len(cfg.VerificationKey) == 0 && cfg.JWKSURL == "" {
		return nil, &ConfigError{Msg: "verification key or JWKS URL is required for " + cfg.Algorithm}
	}
	if cfg.JWKSURL != "" {
		if !strings.HasPrefix(cfg.Algorithm, "RS") {
			return nil, &ConfigError{Msg: "remote key sets are supported for RS* algorithms only"}
		}
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = defaultKeyFetchTimeout
		}
		p.keySet = newKeySetResolver(cfg.JWKSURL, timeout)
	}
	if len(cfg.VerificationKey) > 0 {
		key, err := parsePublicKeyPEM(cfg.Algorithm, cfg.VerificationKey)
		if err != nil {
			return nil, &ConfigError{Msg: "invalid verification key", Err: err}
		}
		p.verifyKey = key
	}
	if len(cfg.SigningKey) > 0 {
		key, err := parsePrivateKeyPEM(cfg.Algorithm, cfg.SigningKey)
		if err != nil {
			return nil, &ConfigError{Msg: "invalid signing key", Err: err}
		}
		p.signKey = key
	}
	return p, nil
}

// Algorithm returns the configured algorithm name.
func (p *Profile) Algorithm() string { return p.algorithm }

// Leeway returns the configured clock-skew tolerance.
func (p *Profile) Leeway() time.Duration { return p.leeway }

// CanSign reports whether the profile carries signing key material.
func (p *Profile) CanSign() bool {
	return len(p.secret) > 0 || p.signKey != nil
}

func (p *Profile) symmetric() bool {
	return strings.HasPrefix(p.algorithm, "HS")
}

func (p *Profile) signingMethod() jwt.SigningMethod {
	return jwt.GetSigningMethod(p.algorithm)
}

// signingKey returns key material for encoding in the shape golang-jwt
// expects for the profile's algorithm.
func (p *Profile) signingKey() (any, error) {
	if p.symmetric() {
		return p.secret, nil
	}
	if p.signKey == nil {
		return nil, &ConfigError{Msg: "profile has no signing key"}
	}
	return p.signKey, nil
}

// verificationKey resolves key material for the presented token. For
// symmetric algorithms this is the shared secret; for asymmetric ones either
// the static public key or a key fetched from the remote set by the token
// header's key id.
func (p *Profile) verificationKey(t *jwt.Token) (any, error) {
	if p.symmetric() {
		return p.secret, nil
	}
	if p.keySet != nil {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, newDecodeError(DecodeBadSignature, fmt.Errorf("missing kid in token header"))
		}
		return p.keySet.resolve(kid)
	}
	return p.verifyKey, nil
}

func parsePublicKeyPEM(alg string, pem []byte) (crypto.PublicKey, error) {
	if strings.HasPrefix(alg, "ES") {
		return jwt.ParseECPublicKeyFromPEM(pem)
	}
	return jwt.ParseRSAPublicKeyFromPEM(pem)
}

func parsePrivateKeyPEM(alg string, pem []byte) (crypto.PrivateKey, error) {
	if strings.HasPrefix(alg, "ES") {
		return jwt.ParseECPrivateKeyFromPEM(pem)
	}
	return jwt.ParseRSAPrivateKeyFromPEM(pem)
}
