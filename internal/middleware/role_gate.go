package middleware

import (
	"log/slog"
	"net/http"

	"github.com/farmgate/farmgate/internal/metrics"
	"github.com/farmgate/farmgate/pkg/domain"
	"github.com/farmgate/farmgate/pkg/token"

	"github.com/gin-gonic/gin"
)

const ctxKeyClaims = "tokenClaims"

// anyRole authorizes any authenticated principal regardless of user type.
const anyRole = ""

// RequireFarmer gates a route to farmers.
func RequireFarmer(profile *token.Profile, logger *slog.Logger) gin.HandlerFunc {
	return requireRole(profile, string(domain.RoleFarmer), logger)
}

// RequireBuyer gates a route to buyers.
func RequireBuyer(profile *token.Profile, logger *slog.Logger) gin.HandlerFunc {
	return requireRole(profile, string(domain.RoleBuyer), logger)
}

// RequireAuth gates a route to any authenticated principal.
func RequireAuth(profile *token.Profile, logger *slog.Logger) gin.HandlerFunc {
	return requireRole(profile, anyRole, logger)
}

// requireRole strictly decodes the bearer credential (signature and expiry
// both enforced) and rejects the request unless the token's user_type matches
// the required role. Decode failures are 401; a valid credential with the
// wrong role is 403.
func requireRole(profile *token.Profile, role string, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	roleLabel := role
	if roleLabel == anyRole {
		roleLabel = "any"
	}
	return func(c *gin.Context) {
		wire := bearerToken(c.GetHeader("Authorization"))
		if wire == "" {
			metrics.AuthorizationsTotal.WithLabelValues(roleLabel, "unauthorized").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer credential"})
			return
		}

		tok, err := token.Parse(token.KindAccess, wire, profile, token.StrictDecode)
		if err != nil {
			observeDecodeFailure(err, "strict", logger)
			metrics.AuthorizationsTotal.WithLabelValues(roleLabel, "unauthorized").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired credential"})
			return
		}

		userType, _ := tok.Claims().GetString(token.ClaimUserType)
		if role != anyRole && userType != role {
			metrics.AuthorizationsTotal.WithLabelValues(roleLabel, "forbidden").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}

		metrics.AuthorizationsTotal.WithLabelValues(roleLabel, "allowed").Inc()
		c.Set(ctxKeyClaims, tok.Claims())
		c.Next()
	}
}

// GetClaims returns the strictly verified claims a role gate attached.
func GetClaims(c *gin.Context) (token.ClaimSet, bool) {
	v, ok := c.Get(ctxKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(token.ClaimSet)
	return claims, ok
}
