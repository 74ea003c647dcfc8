package token

import "encoding/json"

// Reserved claim names. "kty" discriminates the token kind, "kid" is the
// unique per-issuance identifier, "exp"/"iat" are epoch seconds.
const (
	ClaimKind     = "kty"
	ClaimTokenID  = "kid"
	ClaimExpiry   = "exp"
	ClaimIssuedAt = "iat"
)

// Domain claims set by callers.
const (
	ClaimUserID   = "user_id"
	ClaimUserType = "user_type"
	ClaimAudience = "aud"
	ClaimIssuer   = "iss"
)

// ClaimSet is a token payload: claim name to JSON-compatible scalar value.
type ClaimSet map[string]any

// GetString returns the named claim if present and string-valued.
func (c ClaimSet) GetString(name string) (string, bool) {
	v, ok := c[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt64 returns the named claim as an integer. Numeric claims decoded from
// JSON arrive as float64; freshly issued ones are int64.
func (c ClaimSet) GetInt64(name string) (int64, bool) {
	switch v := c[name].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

// Clone returns a shallow copy. Claim values are scalars, so a shallow copy
// is a full copy for every claim this package issues.
func (c ClaimSet) Clone() ClaimSet {
	out := make(ClaimSet, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
