package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

// RouteClass is the static classification of a request path.
type RouteClass int

const (
	RoutePublic RouteClass = iota
	RouteUser
	RouteAdmin
	RouteDefault
)

const (
	loginRedirectPath  = "/"
	deniedRedirectPath = "/denied"
	sessionCookieName  = "auth_token"
)

var publicExact = map[string]bool{
	"/":              true,
	"/login":         true,
	"/auth-redirect": true,
	"/denied":        true,
	"/healthz":       true,
}

var publicPrefixes = []string{
	"/api/auth/",
}

// Routes a signed-in but not yet registered user must still reach to
// finish registration.
var registrationExact = map[string]bool{
	"/api/users/me":  true,
	"/user/registro": true,
}

var adminPrefixes = []string{
	"/admin",
	"/api/admin",
}

var userPrefixes = []string{
	"/user",
	"/api/users",
	"/api/startups",
	"/api/convocatorias",
	"/api/postulaciones",
	"/api/impacto",
	"/api/documentos",
}

// ClassifyRoute maps a path to its route class. The mapping is static
// configuration: admin wins over user so /api/admin/... never falls through
// to a user prefix.
func ClassifyRoute(path string) RouteClass {
	if publicExact[path] {
		return RoutePublic
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return RoutePublic
		}
	}
	for _, p := range adminPrefixes {
		if matchesPrefix(path, p) {
			return RouteAdmin
		}
	}
	for _, p := range userPrefixes {
		if matchesPrefix(path, p) {
			return RouteUser
		}
	}
	return RouteDefault
}

// matchesPrefix matches "/admin" against "/admin" and "/admin/..." but not
// "/administrators".
func matchesPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// AccessGate decides {allow, redirect-to-login, redirect-to-denied} for every
// request before any handler runs. Page routes are redirected; /api/ routes
// receive JSON errors. The gate never touches persistent state: the decision
// is a pure function of (path, role, is_registered) once the session cookie
// has been resolved, and any failure resolving it counts as no session.
func AccessGate(secretKey string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		class := ClassifyRoute(path)

		// Rule 1: public routes pass regardless of session state.
		if class == RoutePublic {
			c.Next()
			return
		}

		claims, err := resolveSession(c, secretKey)

		// Rule 2: no valid session. Token decode failures land here too,
		// so a broken upstream or tampered cookie fails closed.
		if err != nil {
			logger.Debug("Access gate: no valid session",
				zap.String("path", path),
				zap.Error(err),
			)
			rejectUnauthenticated(c, path)
			return
		}

		// Rule 3: registration is a precondition for everything non-public,
		// except the routes that complete registration itself.
		if !claims.IsRegistered {
			if registrationExact[path] {
				setSessionContext(c, claims)
				c.Next()
				return
			}
			if isAPIPath(path) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "registration required"})
				return
			}
			c.Redirect(http.StatusFound, loginRedirectPath)
			c.Abort()
			return
		}

		switch class {
		case RouteAdmin:
			// Rule 4: admin-scoped paths require the admin role.
			if claims.Role != models.RoleAdmin {
				logger.Warn("Access gate: admin route denied",
					zap.String("path", path),
					zap.String("user_id", claims.UserID),
					zap.String("role", string(claims.Role)),
				)
				rejectForbidden(c, path)
				return
			}
		case RouteUser:
			// Rule 5: user-scoped paths; admins inherit user access.
			if claims.Role != models.RoleUsuario && claims.Role != models.RoleAdmin {
				rejectForbidden(c, path)
				return
			}
		}

		// Rule 6: anything unclassified is allowed for registered sessions.
		setSessionContext(c, claims)
		c.Next()
	}
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

func rejectUnauthenticated(c *gin.Context, path string) {
	if isAPIPath(path) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.Redirect(http.StatusFound, loginRedirectPath)
	c.Abort()
}

func rejectForbidden(c *gin.Context, path string) {
	if isAPIPath(path) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return
	}
	c.Redirect(http.StatusFound, deniedRedirectPath)
	c.Abort()
}

// resolveSession decodes and validates the auth_token cookie. Every failure
// mode returns an error; callers must treat that as an absent session.
func resolveSession(c *gin.Context, secretKey string) (*models.Claims, error) {
	token, err := c.Cookie(sessionCookieName)
	if err != nil || token == "" {
		return nil, fmt.Errorf("missing session cookie: %w", models.ErrUnauthenticated)
	}
	return ValidateSessionToken(token, secretKey)
}

// ValidateSessionToken parses the signed session token and returns its claims.
// Shared by the gate and by handlers that re-verify the session server-side.
func ValidateSessionToken(tokenString, secretKey string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secretKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid session token: %w", models.ErrUnauthenticated)
	}
	if _, err := models.ParseRole(string(claims.Role)); err != nil {
		return nil, fmt.Errorf("session carries unknown role: %w", models.ErrUnauthenticated)
	}
	return claims, nil
}

func setSessionContext(c *gin.Context, claims *models.Claims) {
	c.Set("claims", claims)
	c.Set("user_id", claims.UserID)
	c.Set("email", claims.Email)
	c.Set("role", string(claims.Role))
}

// VerifySession is the session-verification helper handlers call at the top of
// every protected operation. It re-validates the cookie even when the gate
// already did, so a handler never trusts the gate implicitly.
func VerifySession(c *gin.Context, secretKey string) (*models.Claims, error) {
	if claims := ClaimsFromContext(c); claims != nil {
		return claims, nil
	}
	return resolveSession(c, secretKey)
}

// ClaimsFromContext returns the session claims the gate stored, or nil for
// anonymous requests on public/default routes.
func ClaimsFromContext(c *gin.Context) *models.Claims {
	v, ok := c.Get("claims")
	if !ok {
		return nil
	}
	claims, ok := v.(*models.Claims)
	if !ok {
		return nil
	}
	return claims
}
