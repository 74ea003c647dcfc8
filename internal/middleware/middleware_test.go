package middleware

import (
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/farmgate/farmgate/internal/ratelimit"
	"github.com/farmgate/farmgate/pkg/config"
	"github.com/farmgate/farmgate/pkg/token"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testProfile(t *testing.T) *token.Profile {
	t.Helper()
	p, err := token.NewProfile(token.ProfileConfig{
		Algorithm:  "HS256",
		SigningKey: []byte("middleware-test-secret-0123456789"),
	})
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	return p
}

func accessTokenFor(t *testing.T, p *token.Profile, userID, userType string) string {
	t.Helper()
	tok := token.Issue(token.KindAccess, p, token.ClaimSet{
		token.ClaimUserID:   userID,
		token.ClaimUserType: userType,
	})
	wire, err := tok.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return wire
}

func expiredAccessTokenFor(t *testing.T, p *token.Profile, userID, userType string) string {
	t.Helper()
	tok := token.IssueAt(token.KindAccess, p, token.ClaimSet{
		token.ClaimUserID:   userID,
		token.ClaimUserType: userType,
	}, time.Now().Add(-time.Hour), time.Minute)
	wire, err := tok.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return wire
}

func identityRouter(p *token.Profile) *gin.Engine {
	r := gin.New()
	r.Use(AssociateClaims(p, quietLogger()))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "user_type": GetUserType(c)})
	})
	return r
}

func doGet(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAssociateClaimsAnnotatesIdentity(t *testing.T) {
	p := testProfile(t)
	r := identityRouter(p)

	w := doGet(r, "/whoami", "Bearer "+accessTokenFor(t, p, "abc123", "buyer"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if want := `"user_id":"abc123"`; !contains(body, want) {
		t.Fatalf("body %q missing %q", body, want)
	}
	if want := `"user_type":"buyer"`; !contains(body, want) {
		t.Fatalf("body %q missing %q", body, want)
	}
}

func TestAssociateClaimsUnsetWithoutCredential(t *testing.T) {
	p := testProfile(t)
	r := identityRouter(p)

	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer not.a.token"} {
		w := doGet(r, "/whoami", header)
		if w.Code != http.StatusOK {
			t.Fatalf("header %q: status = %d, want 200", header, w.Code)
		}
		if !contains(w.Body.String(), `"user_id":"unset"`) {
			t.Fatalf("header %q: expected unset identity, got %s", header, w.Body.String())
		}
	}
}

func TestAssociateClaimsReadsExpiredToken(t *testing.T) {
	p := testProfile(t)
	r := identityRouter(p)

	w := doGet(r, "/whoami", "Bearer "+expiredAccessTokenFor(t, p, "abc123", "farmer"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !contains(w.Body.String(), `"user_id":"abc123"`) {
		t.Fatalf("expected expired token identity to be readable, got %s", w.Body.String())
	}
}

func TestAssociateClaimsUnsetOnForgedSignature(t *testing.T) {
	p := testProfile(t)
	other, err := token.NewProfile(token.ProfileConfig{
		Algorithm:  "HS256",
		SigningKey: []byte("a-completely-different-secret-key"),
	})
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	r := identityRouter(p)

	w := doGet(r, "/whoami", "Bearer "+accessTokenFor(t, other, "mallory", "farmer"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !contains(w.Body.String(), `"user_id":"unset"`) {
		t.Fatalf("forged token must not annotate identity, got %s", w.Body.String())
	}
}

// Randomized garbage in the Authorization header must never panic or abort
// the request, only degrade to the unset identity.
func TestAssociateClaimsNeverFaultsOnGarbage(t *testing.T) {
	p := testProfile(t)
	r := identityRouter(p)
	rng := rand.New(rand.NewSource(42))

	alphabet := []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789+/=._- \t")
	for i := 0; i < 10000; i++ {
		n := rng.Intn(120)
		b := make([]byte, n)
		for j := range b {
			b[j] = alphabet[rng.Intn(len(alphabet))]
		}
		header := "Bearer " + string(b)
		if i%3 == 0 {
			header = string(b)
		}
		w := doGet(r, "/whoami", header)
		if w.Code != http.StatusOK {
			t.Fatalf("iteration %d header %q: status = %d, want 200", i, header, w.Code)
		}
	}
}

func gatedRouter(p *token.Profile) *gin.Engine {
	r := gin.New()
	r.GET("/farmer", RequireFarmer(p, quietLogger()), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/buyer", RequireBuyer(p, quietLogger()), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/any", RequireAuth(p, quietLogger()), func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		id, _ := claims.GetString(token.ClaimUserID)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func TestRequireRoleMatrix(t *testing.T) {
	p := testProfile(t)
	r := gatedRouter(p)

	farmer := "Bearer " + accessTokenFor(t, p, "f1", "farmer")
	buyer := "Bearer " + accessTokenFor(t, p, "b1", "buyer")

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"farmer on farmer route", "/farmer", farmer, http.StatusOK},
		{"buyer on farmer route", "/farmer", buyer, http.StatusForbidden},
		{"buyer on buyer route", "/buyer", buyer, http.StatusOK},
		{"farmer on buyer route", "/buyer", farmer, http.StatusForbidden},
		{"farmer on open route", "/any", farmer, http.StatusOK},
		{"buyer on open route", "/any", buyer, http.StatusOK},
		{"missing header", "/farmer", "", http.StatusUnauthorized},
		{"garbage token", "/farmer", "Bearer junk", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doGet(r, tc.path, tc.header)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestRequireRoleRejectsExpired(t *testing.T) {
	p := testProfile(t)
	r := gatedRouter(p)

	w := doGet(r, "/any", "Bearer "+expiredAccessTokenFor(t, p, "f1", "farmer"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireRoleRejectsRefreshToken(t *testing.T) {
	p := testProfile(t)
	r := gatedRouter(p)

	tok := token.Issue(token.KindRefresh, p, token.ClaimSet{
		token.ClaimUserID:   "f1",
		token.ClaimUserType: "farmer",
	})
	wire, err := tok.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	w := doGet(r, "/farmer", "Bearer "+wire)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuthExposesClaims(t *testing.T) {
	p := testProfile(t)
	r := gatedRouter(p)

	w := doGet(r, "/any", "Bearer "+accessTokenFor(t, p, "abc123", "buyer"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !contains(w.Body.String(), `"user_id":"abc123"`) {
		t.Fatalf("expected claims on context, got %s", w.Body.String())
	}
}

func TestRateLimitLogin(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{}
	cfg.RateLimit.Login = config.Bucket{RequestsPerMinute: 60, BurstSize: 1}
	lim := ratelimit.NewTokenBucketLimiter(rdb)

	r := gin.New()
	r.POST("/login", RateLimitLogin(lim, cfg), func(c *gin.Context) { c.Status(http.StatusOK) })

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:4444"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := post(); w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", w.Code)
	}
	w := post()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c.Request.Context()))
	})

	w := doGet(r, "/", "")
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id header")
	}
	if w.Body.String() != w.Header().Get("X-Request-Id") {
		t.Fatalf("context id %q != header id %q", w.Body.String(), w.Header().Get("X-Request-Id"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "supplied-id")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	if w2.Header().Get("X-Request-Id") != "supplied-id" {
		t.Fatalf("expected supplied request id to be preserved")
	}
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
