package token

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"
)

const keySetRefreshInterval = 5 * time.Minute

// keySetResolver fetches RSA public keys from a remote JWKS endpoint and
// caches them by key id. Fetch failures and timeouts surface as ConfigError;
// the serving path must never hang on key resolution.
type keySetResolver struct {
	url    string
	client *http.Client

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	fetched time.Time
}

func newKeySetResolver(url string, timeout time.Duration) *keySetResolver {
	return &keySetResolver{
		url:    url,
		client: &http.Client{Timeout: timeout},
		keys:   make(map[string]*rsa.PublicKey),
	}
}

func (r *keySetResolver) resolve(kid string) (*rsa.PublicKey, error) {
	r.mu.RLock()
	key, ok := r.keys[kid]
	fresh := time.Since(r.fetched) < keySetRefreshInterval
	r.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	keys, err := r.fetch()
	if err != nil {
		return nil, &ConfigError{Msg: "key resolution failed", Err: err}
	}

	r.mu.Lock()
	r.keys = keys
	r.fetched = time.Now()
	key, ok = r.keys[kid]
	r.mu.Unlock()

	if !ok {
		return nil, &ConfigError{Msg: "key resolution failed", Err: fmt.Errorf("key %s not found in key set", kid)}
	}
	return key, nil
}

func (r *keySetResolver) fetch() (map[string]*rsa.PublicKey, error) {
	resp, err := r.client.Get(r.url)
	if err != nil {
		return nil, fmt.Errorf("fetch key set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key set endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read key set response: %w", err)
	}

	var doc struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse key set: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAComponents(k.N, k.E)
		if err != nil {
			return nil, fmt.Errorf("parse key %s: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}
	return keys, nil
}

func parseRSAComponents(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}
