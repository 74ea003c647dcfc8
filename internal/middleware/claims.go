package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/farmgate/farmgate/internal/metrics"
	"github.com/farmgate/farmgate/pkg/token"

	"github.com/gin-gonic/gin"
)

// ClaimUnset is the identity value attached when no trusted claim is
// available: missing header, wrong scheme, undecodable token, or a token
// that simply lacks the claim.
const ClaimUnset = "unset"

const (
	ctxKeyUserID   = "user_id"
	ctxKeyUserType = "user_type"
)

// Identity is the request-scoped identity annotation placed on the request
// context for consumers below the gin layer.
type Identity struct {
	UserID   string
	UserType string
}

type identityKey struct{}

// BindIdentity stores the identity on a context.
func BindIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the identity stored by AssociateClaims.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// AssociateClaims annotates every request with the identity carried by its
// bearer credential, if any. The decode is lenient: the signature must check
// out, but an expired token still reveals who it belonged to; the expiry
// decision belongs to the role gates. Decode failures of any sort degrade to
// the unset identity. The middleware never aborts a request.
func AssociateClaims(profile *token.Profile, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		id := Identity{UserID: ClaimUnset, UserType: ClaimUnset}

		if wire := bearerToken(c.GetHeader("Authorization")); wire != "" {
			tok, err := token.Parse(token.KindAccess, wire, profile, token.LenientDecode)
			if err != nil {
				observeDecodeFailure(err, "lenient", logger)
			} else {
				if v, ok := tok.Claims().GetString(token.ClaimUserID); ok {
					id.UserID = v
				}
				if v, ok := tok.Claims().GetString(token.ClaimUserType); ok {
					id.UserType = v
				}
			}
		}

		c.Set(ctxKeyUserID, id.UserID)
		c.Set(ctxKeyUserType, id.UserType)
		c.Request = c.Request.WithContext(BindIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// GetUserID returns the annotated user id, or ClaimUnset.
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ClaimUnset
}

// GetUserType returns the annotated user type, or ClaimUnset.
func GetUserType(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserType); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ClaimUnset
}

// bearerToken extracts the credential from an Authorization header, or ""
// if the header is absent or not bearer-schemed.
func bearerToken(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func observeDecodeFailure(err error, path string, logger *slog.Logger) {
	var ce *token.ConfigError
	if errors.As(err, &ce) {
		// Misconfiguration is an operator problem, never a quiet per-request one.
		logger.Error("token verification misconfigured", "path", path, "error", ce)
		metrics.TokenDecodeFailuresTotal.WithLabelValues("config_error", path).Inc()
		return
	}
	metrics.TokenDecodeFailuresTotal.WithLabelValues(string(token.CodeOf(err)), path).Inc()
}
