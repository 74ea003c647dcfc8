package token

import (
	"testing"
	"time"
)

func TestIssuePopulatesReservedClaims(t *testing.T) {
	p := hsProfile(t, ProfileConfig{})
	now := time.Unix(1_700_000_000, 0)

	tok := IssueAt(KindAccess, p, ClaimSet{ClaimUserID: "u1", ClaimUserType: "farmer"}, now, 0)

	if kty, _ := tok.Claims().GetString(ClaimKind); kty != "access_token" {
		t.Errorf("kty = %q, want access_token", kty)
	}
	if tok.ID() == "" {
		t.Error("kid not populated")
	}
	if got := tok.IssuedAt().Unix(); got != now.Unix() {
		t.Errorf("iat = %d, want %d", got, now.Unix())
	}
	if got := tok.ExpiresAt().Unix(); got != now.Add(KindAccess.Lifetime()).Unix() {
		t.Errorf("exp = %d, want iat+10m", got)
	}
	if id, _ := tok.Claims().GetString(ClaimUserID); id != "u1" {
		t.Errorf("user_id = %q, want u1", id)
	}
}

func TestParseRoundTrip(t *testing.T) {
	p := hsProfile(t, ProfileConfig{})
	tok := Issue(KindAccess, p, ClaimSet{ClaimUserID: "u1"})

	wire, err := tok.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	// Serializing twice must keep producing a decodable wire form.
	if _, err := tok.Serialize(); err != nil {
		t.Fatalf("second Serialize: %v", err)
	}

	back, err := Parse(KindAccess, wire, p, StrictDecode)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if back.ID() != tok.ID() {
		t.Errorf("kid changed across the wire: %q != %q", back.ID(), tok.ID())
	}
	if back.Expired() {
		t.Error("fresh token reported expired")
	}
}

func TestParseKindIntegrity(t *testing.T) {
	p := hsProfile(t, ProfileConfig{})

	accessWire, err := Issue(KindAccess, p, nil).Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	refreshWire, err := Issue(KindRefresh, p, nil).Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	_, err = Parse(KindRefresh, accessWire, p, StrictDecode)
	decodeCode(t, err, DecodeWrongKind)
	_, err = Parse(KindAccess, refreshWire, p, StrictDecode)
	decodeCode(t, err, DecodeWrongKind)
}

func TestParseRequiresExpClaim(t *testing.T) {
	p := hsProfile(t, ProfileConfig{})
	wire, err := Encode(ClaimSet{ClaimKind: KindAccess.Name(), ClaimUserID: "u1"}, p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_, err = Parse(KindAccess, wire, p, LenientDecode)
	decodeCode(t, err, DecodeMissingClaim)
}

func TestLenientParseKeepsExpiredClaimsReadable(t *testing.T) {
	p := hsProfile(t, ProfileConfig{})
	issued := time.Unix(1_700_000_000, 0)
	later := issued.Add(time.Hour)

	wire, err := IssueAt(KindAccess, p, ClaimSet{ClaimUserID: "u1", ClaimUserType: "buyer"}, issued, 0).Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	_, err = ParseAt(KindAccess, wire, p, StrictDecode, later)
	decodeCode(t, err, DecodeExpired)

	tok, err := ParseAt(KindAccess, wire, p, LenientDecode, later)
	if err != nil {
		t.Fatalf("lenient parse: %v", err)
	}
	if !tok.Expired() {
		t.Error("token not marked expired")
	}
	if id, _ := tok.Claims().GetString(ClaimUserID); id != "u1" {
		t.Errorf("user_id = %q, want u1", id)
	}

	// Validity-requiring operations still fail on the expired token.
	_, err = tok.DeriveRefreshAt(later, 0)
	decodeCode(t, err, DecodeExpired)
}

func TestDeriveRefresh(t *testing.T) {
	p := hsProfile(t, ProfileConfig{})
	now := time.Unix(1_700_000_000, 0)

	access := IssueAt(KindAccess, p, ClaimSet{ClaimUserID: "u1", ClaimUserType: "farmer"}, now, 0)
	refresh, err := access.DeriveRefreshAt(now, 0)
	if err != nil {
		t.Fatalf("DeriveRefresh: %v", err)
	}

	if kty, _ := refresh.Claims().GetString(ClaimKind); kty != "refresh_token" {
		t.Errorf("kty = %q, want refresh_token", kty)
	}
	if refresh.ID() == access.ID() || refresh.ID() == "" {
		t.Errorf("refresh kid %q must be fresh (access kid %q)", refresh.ID(), access.ID())
	}
	if id, _ := refresh.Claims().GetString(ClaimUserID); id != "u1" {
		t.Errorf("user_id not carried over: %q", id)
	}
	if role, _ := refresh.Claims().GetString(ClaimUserType); role != "farmer" {
		t.Errorf("user_type not carried over: %q", role)
	}
	wantExp := now.Add(KindRefresh.Lifetime()).Unix()
	if got := refresh.ExpiresAt().Unix(); got != wantExp {
		t.Errorf("refresh exp = %d, want iat+7d (%d)", got, wantExp)
	}

	// Only access tokens derive refresh tokens.
	if _, err := refresh.DeriveRefreshAt(now, 0); CodeOf(err) != DecodeWrongKind {
		t.Errorf("deriving from a refresh token: got %v, want wrong_kind", err)
	}
}

func TestIssuerPair(t *testing.T) {
	p := hsProfile(t, ProfileConfig{})
	now := time.Unix(1_700_000_000, 0)
	issuer, err := NewIssuer(p, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	pair, err := issuer.IssuePair(Principal{ID: "abc123", Role: "buyer"})
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	access, err := ParseAt(KindAccess, pair.Access, p, StrictDecode, now)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	refresh, err := ParseAt(KindRefresh, pair.Refresh, p, StrictDecode, now)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}

	for _, tok := range []*Token{access, refresh} {
		if id, _ := tok.Claims().GetString(ClaimUserID); id != "abc123" {
			t.Errorf("%s user_id = %q, want abc123", tok.Kind(), id)
		}
		if role, _ := tok.Claims().GetString(ClaimUserType); role != "buyer" {
			t.Errorf("%s user_type = %q, want buyer", tok.Kind(), role)
		}
	}
	if access.ID() == refresh.ID() {
		t.Error("access and refresh share a kid")
	}

	// The access token dies after its lifetime; the refresh one outlives it.
	after := now.Add(KindAccess.Lifetime() + time.Second)
	if _, err := ParseAt(KindAccess, pair.Access, p, StrictDecode, after); CodeOf(err) != DecodeExpired {
		t.Errorf("access token after 10m: got %v, want expired", err)
	}
	if _, err := ParseAt(KindRefresh, pair.Refresh, p, StrictDecode, after); err != nil {
		t.Errorf("refresh token after 10m: %v", err)
	}
}

func TestIssuerRequiresSigningKey(t *testing.T) {
	verifyOnly, err := NewProfile(ProfileConfig{Algorithm: "RS256", JWKSURL: "http://keys.local/jwks"})
	if err != nil {
		t.Fatalf("NewProfile: %v", err)
	}
	if _, err := NewIssuer(verifyOnly); err == nil {
		t.Fatal("expected ConfigError for verify-only profile")
	}
}
