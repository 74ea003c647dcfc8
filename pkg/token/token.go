package token

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the two concrete token kinds. Dispatch is static: the
// canonical wire name and default lifetime are fixed per kind at definition
// time.
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

var kindNames = map[Kind]string{
	KindAccess:  "access_token",
	KindRefresh: "refresh_token",
}

var kindLifetimes = map[Kind]time.Duration{
	KindAccess:  10 * time.Minute,
	KindRefresh: 7 * 24 * time.Hour,
}

// Name returns the canonical value of the kty claim for this kind.
func (k Kind) Name() string { return kindNames[k] }

// Lifetime returns the default lifetime for this kind.
func (k Kind) Lifetime() time.Duration { return kindLifetimes[k] }

func (k Kind) String() string { return k.Name() }

// refreshExcludedClaims are not copied when deriving a refresh token; the
// derived token gets fresh values for each.
var refreshExcludedClaims = []string{ClaimExpiry, ClaimKind, ClaimTokenID}

// Token wraps a ClaimSet with kind-specific lifetime and validation rules. A
// token is either freshly issued (Issue) or reconstructed from a wire string
// (Parse). It exclusively owns its claim set; instances are not shared across
// goroutines.
type Token struct {
	kind    Kind
	claims  ClaimSet
	profile *Profile
	expired bool
}

// Issue constructs a fresh token of the given kind with kty, a new unique
// kid, exp and iat populated, plus any caller-supplied extra claims
// (typically user_id and user_type).
func Issue(kind Kind, p *Profile, extra ClaimSet) *Token {
	return IssueAt(kind, p, extra, time.Now(), kind.Lifetime())
}

// IssueAt is Issue with an explicit issuance instant and lifetime.
func IssueAt(kind Kind, p *Profile, extra ClaimSet, now time.Time, lifetime time.Duration) *Token {
	if lifetime <= 0 {
		lifetime = kind.Lifetime()
	}
	t := &Token{
		kind:    kind,
		claims:  make(ClaimSet, len(extra)+4),
		profile: p,
	}
	for k, v := range extra {
		t.claims[k] = v
	}
	// Reserved claims win over anything caller-supplied.
	t.claims[ClaimKind] = kind.Name()
	t.claims[ClaimTokenID] = uuid.NewString()
	t.claims[ClaimExpiry] = now.Add(lifetime).Unix()
	t.claims[ClaimIssuedAt] = now.Unix()
	return t
}

// Parse reconstructs a token of the given kind from a wire string. When the
// options request signature verification, the kind's semantic checks also
// run: the exp claim must be present and the kty claim must equal the kind's
// canonical name. With VerifyExpiry off an expired token is still returned,
// its claims readable, but marked so that validity-requiring operations fail.
func Parse(kind Kind, wire string, p *Profile, opts DecodeOptions) (*Token, error) {
	return ParseAt(kind, wire, p, opts, time.Now())
}

// ParseAt is Parse against an explicit current instant.
func ParseAt(kind Kind, wire string, p *Profile, opts DecodeOptions, now time.Time) (*Token, error) {
	claims, err := DecodeAt(wire, p, opts, now)
	if err != nil {
		return nil, err
	}
	t := &Token{kind: kind, claims: claims, profile: p}
	if opts.VerifySignature {
		if err := t.verify(now, opts.VerifyExpiry); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// verify runs the semantic checks deferred from decoding: exp presence (a
// token with no expiry is never acceptable), expiry passage unless the caller
// opted out, and kty equality with the expected kind.
func (t *Token) verify(now time.Time, enforceExpiry bool) error {
	exp, ok := t.claims.GetInt64(ClaimExpiry)
	if !ok {
		return newDecodeError(DecodeMissingClaim, fmt.Errorf("token has no %s claim", ClaimExpiry))
	}
	if expiredAt(exp, t.profile.leeway, now) {
		if enforceExpiry {
			return newDecodeError(DecodeExpired, nil)
		}
		t.expired = true
	}

	kty, ok := t.claims.GetString(ClaimKind)
	if !ok {
		return newDecodeError(DecodeMissingClaim, fmt.Errorf("token has no %s claim", ClaimKind))
	}
	if kty != t.kind.Name() {
		return newDecodeError(DecodeWrongKind, fmt.Errorf("token is %q, expected %q", kty, t.kind.Name()))
	}
	return nil
}

// Kind returns the token's kind.
func (t *Token) Kind() Kind { return t.kind }

// Claims returns the token's claim set. Lenient callers may read claims even
// from an expired token.
func (t *Token) Claims() ClaimSet { return t.claims }

// Set assigns a claim value.
func (t *Token) Set(name string, value any) { t.claims[name] = value }

// ID returns the kid claim.
func (t *Token) ID() string {
	id, _ := t.claims.GetString(ClaimTokenID)
	return id
}

// ExpiresAt returns the exp claim as a time.
func (t *Token) ExpiresAt() time.Time {
	exp, _ := t.claims.GetInt64(ClaimExpiry)
	return time.Unix(exp, 0)
}

// IssuedAt returns the iat claim as a time.
func (t *Token) IssuedAt() time.Time {
	iat, _ := t.claims.GetInt64(ClaimIssuedAt)
	return time.Unix(iat, 0)
}

// Expired reports whether a leniently parsed token had already expired.
func (t *Token) Expired() bool { return t.expired }

// Serialize signs the token and returns its wire form. May be called any
// number of times.
func (t *Token) Serialize() (string, error) {
	return Encode(t.claims, t.profile)
}

// DeriveRefresh creates a refresh token carrying over every claim of this
// access token except exp, kty and kid, which are freshly assigned. Fails on
// non-access tokens and on tokens that were already expired when parsed.
func (t *Token) DeriveRefresh() (*Token, error) {
	return t.DeriveRefreshAt(time.Now(), KindRefresh.Lifetime())
}

// DeriveRefreshAt is DeriveRefresh with an explicit instant and lifetime.
func (t *Token) DeriveRefreshAt(now time.Time, lifetime time.Duration) (*Token, error) {
	if t.kind != KindAccess {
		return nil, newDecodeError(DecodeWrongKind, fmt.Errorf("cannot derive a refresh token from %q", t.kind))
	}
	if t.expired {
		return nil, newDecodeError(DecodeExpired, fmt.Errorf("cannot derive a refresh token from an expired token"))
	}
	carried := make(ClaimSet, len(t.claims))
	for k, v := range t.claims {
		if excludedFromRefresh(k) {
			continue
		}
		carried[k] = v
	}
	return IssueAt(KindRefresh, t.profile, carried, now, lifetime), nil
}

func excludedFromRefresh(name string) bool {
	for _, c := range refreshExcludedClaims {
		if name == c {
			return true
		}
	}
	return false
}
