package token

import "time"

// Principal is the external identity a token represents. The issuer only
// reads its identifier and role; it never persists or mutates principals.
type Principal struct {
	ID   string
	Role string
}

// Pair is an access/refresh wire-string pair as returned to clients.
type Pair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// Issuer mints access/refresh token pairs for authenticated principals. It is
// pure orchestration: no persistence, no side effects beyond key material
// usage.
type Issuer struct {
	profile    *Profile
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithAccessLifetime overrides the access token lifetime.
func WithAccessLifetime(d time.Duration) IssuerOption {
	return func(i *Issuer) {
		if d > 0 {
			i.accessTTL = d
		}
	}
}

// WithRefreshLifetime overrides the refresh token lifetime.
func WithRefreshLifetime(d time.Duration) IssuerOption {
	return func(i *Issuer) {
		if d > 0 {
			i.refreshTTL = d
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer builds an issuer over a profile that must carry signing key
// material.
func NewIssuer(p *Profile, opts ...IssuerOption) (*Issuer, error) {
	if !p.CanSign() {
		return nil, &ConfigError{Msg: "issuer requires a profile with a signing key"}
	}
	i := &Issuer{
		profile:    p,
		accessTTL:  KindAccess.Lifetime(),
		refreshTTL: KindRefresh.Lifetime(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// IssuePair issues an access token for the principal, derives its refresh
// token and serializes both.
func (i *Issuer) IssuePair(principal Principal) (Pair, error) {
	now := i.now()
	access := IssueAt(KindAccess, i.profile, ClaimSet{
		ClaimUserID:   principal.ID,
		ClaimUserType: principal.Role,
	}, now, i.accessTTL)

	refresh, err := access.DeriveRefreshAt(now, i.refreshTTL)
	if err != nil {
		return Pair{}, err
	}

	accessWire, err := access.Serialize()
	if err != nil {
		return Pair{}, err
	}
	refreshWire, err := refresh.Serialize()
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: accessWire, Refresh: refreshWire}, nil
}
