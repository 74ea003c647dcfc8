package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DecodeOptions toggle the independently switchable verification steps.
// Structural parsing is always performed.
type DecodeOptions struct {
	VerifySignature bool
	VerifyExpiry    bool
}

// StrictDecode verifies signature and expiry; it is the authorization-path
// configuration.
var StrictDecode = DecodeOptions{VerifySignature: true, VerifyExpiry: true}

// LenientDecode verifies the signature but not expiry, so identity stays
// observable from an expired credential. Used by the claims interceptor.
var LenientDecode = DecodeOptions{VerifySignature: true, VerifyExpiry: false}

// Encode serializes claims into a signed three-segment wire string under the
// profile. The profile's audience and issuer, when configured, are stamped
// into the payload. Pure function of its inputs.
func Encode(claims ClaimSet, p *Profile) (string, error) {
	payload := make(jwt.MapClaims, len(claims)+2)
	for k, v := range claims {
		payload[k] = v
	}
	if len(p.audience) == 1 {
		payload[ClaimAudience] = p.audience[0]
	} else if len(p.audience) > 1 {
		payload[ClaimAudience] = p.audience
	}
	if p.issuer != "" {
		payload[ClaimIssuer] = p.issuer
	}

	key, err := p.signingKey()
	if err != nil {
		return "", err
	}
	tok := jwt.NewWithClaims(p.signingMethod(), payload)
	if p.keyID != "" {
		tok.Header["kid"] = p.keyID
	}
	return tok.SignedString(key)
}

// Decode parses and verifies a wire string, returning its claim set. Failures
// are reported as *DecodeError with a stable code, except key-material
// problems which surface as *ConfigError.
func Decode(wire string, p *Profile, opts DecodeOptions) (ClaimSet, error) {
	return DecodeAt(wire, p, opts, time.Now())
}

// DecodeAt is Decode against an explicit current instant.
func DecodeAt(wire string, p *Profile, opts DecodeOptions, now time.Time) (ClaimSet, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{p.algorithm}),
		jwt.WithoutClaimsValidation(),
	)

	var payload jwt.MapClaims
	if opts.VerifySignature {
		parsed, err := parser.ParseWithClaims(wire, jwt.MapClaims{}, p.verificationKey)
		if err != nil {
			return nil, classifyParseError(err)
		}
		payload = parsed.Claims.(jwt.MapClaims)
	} else {
		parsed, _, err := parser.ParseUnverified(wire, jwt.MapClaims{})
		if err != nil {
			return nil, newDecodeError(DecodeMalformed, err)
		}
		payload = parsed.Claims.(jwt.MapClaims)
	}

	claims := ClaimSet(payload)

	if len(p.audience) > 0 {
		if !audienceIntersects(claims[ClaimAudience], p.audience) {
			return nil, newDecodeError(DecodeAudienceMismatch, fmt.Errorf("token audience %v", claims[ClaimAudience]))
		}
	}
	if p.issuer != "" {
		iss, _ := claims.GetString(ClaimIssuer)
		if iss != p.issuer {
			return nil, newDecodeError(DecodeIssuerMismatch, fmt.Errorf("token issuer %q", iss))
		}
	}
	if opts.VerifyExpiry {
		if exp, ok := claims.GetInt64(ClaimExpiry); ok && expiredAt(exp, p.leeway, now) {
			return nil, newDecodeError(DecodeExpired, nil)
		}
	}
	return claims, nil
}

// expiredAt reports whether an exp claim has passed, allowing for leeway.
func expiredAt(exp int64, leeway time.Duration, now time.Time) bool {
	return !time.Unix(exp, 0).After(now.Add(-leeway))
}

func classifyParseError(err error) error {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return de
	}
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return newDecodeError(DecodeBadSignature, err)
	default:
		return newDecodeError(DecodeMalformed, err)
	}
}

func audienceIntersects(claim any, allowed []string) bool {
	var audiences []string
	switch v := claim.(type) {
	case string:
		audiences = []string{v}
	case []string:
		audiences = v
	case []any:
		for _, a := range v {
			if s, ok := a.(string); ok {
				audiences = append(audiences, s)
			}
		}
	}
	for _, a := range audiences {
		for _, want := range allowed {
			if a == want {
				return true
			}
		}
	}
	return false
}
