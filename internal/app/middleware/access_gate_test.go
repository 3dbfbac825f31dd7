package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

const testSecret = "access-gate-test-secret"

func signToken(t *testing.T, secret string, claims *models.Claims) string {
	t.Helper()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	claims.IssuedAt = jwt.NewNumericDate(time.Now())
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func gatedRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AccessGate(testSecret, zap.NewNop()))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.GET("/", ok)
	r.GET("/healthz", ok)
	r.GET("/denied", ok)
	r.GET("/api/auth/login", ok)
	r.GET("/api/users/me", ok)
	r.GET("/api/startups", ok)
	r.GET("/user/dashboard", ok)
	r.GET("/api/admin/usuarios", ok)
	r.GET("/admin/panel", ok)
	r.GET("/about", ok)
	return r
}

func doRequest(r *gin.Engine, path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: cookie})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestClassifyRoute(t *testing.T) {
	cases := []struct {
		path string
		want RouteClass
	}{
		{"/", RoutePublic},
		{"/login", RoutePublic},
		{"/healthz", RoutePublic},
		{"/api/auth/callback", RoutePublic},
		{"/api/admin/usuarios", RouteAdmin},
		{"/admin", RouteAdmin},
		{"/admin/panel", RouteAdmin},
		{"/administrators", RouteDefault},
		{"/api/startups", RouteUser},
		{"/api/startups/123", RouteUser},
		{"/user/dashboard", RouteUser},
		{"/api/users/me", RouteUser},
		{"/about", RouteDefault},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyRoute(tc.path), tc.path)
	}
}

func TestAccessGatePublicRoutes(t *testing.T) {
	r := gatedRouter(t)

	for _, path := range []string{"/", "/healthz", "/api/auth/login"} {
		w := doRequest(r, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestAccessGateNoSession(t *testing.T) {
	r := gatedRouter(t)

	t.Run("APIGets401JSON", func(t *testing.T) {
		w := doRequest(r, "/api/startups", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"authentication required"}`, w.Body.String())
	})

	t.Run("PageRedirectsToLogin", func(t *testing.T) {
		w := doRequest(r, "/user/dashboard", "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})
}

func TestAccessGateTamperedToken(t *testing.T) {
	r := gatedRouter(t)

	token := signToken(t, "some-other-secret", &models.Claims{
		UserID: "u1", Role: models.RoleAdmin, IsRegistered: true,
	})
	w := doRequest(r, "/api/admin/usuarios", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccessGateUnknownRoleFailsClosed(t *testing.T) {
	r := gatedRouter(t)

	token := signToken(t, testSecret, &models.Claims{
		UserID: "u1", Role: models.Role("superuser"), IsRegistered: true,
	})
	w := doRequest(r, "/api/startups", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccessGateUnregistered(t *testing.T) {
	r := gatedRouter(t)
	token := signToken(t, testSecret, &models.Claims{
		UserID: "u1", Role: models.RoleUsuario, IsRegistered: false,
	})

	t.Run("APIGets403", func(t *testing.T) {
		w := doRequest(r, "/api/startups", token)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"registration required"}`, w.Body.String())
	})

	t.Run("PageRedirects", func(t *testing.T) {
		w := doRequest(r, "/user/dashboard", token)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	t.Run("CanStillReachProfileEndpoint", func(t *testing.T) {
		w := doRequest(r, "/api/users/me", token)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

// Registration is checked before the role, so an admin session that never
// completed the profile is treated like any other unregistered session.
func TestAccessGateUnregisteredAdmin(t *testing.T) {
	r := gatedRouter(t)
	token := signToken(t, testSecret, &models.Claims{
		UserID: "a1", Role: models.RoleAdmin, IsRegistered: false,
	})

	t.Run("AdminPageRedirects", func(t *testing.T) {
		w := doRequest(r, "/admin/panel", token)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	t.Run("AdminAPIGets403", func(t *testing.T) {
		w := doRequest(r, "/api/admin/usuarios", token)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"registration required"}`, w.Body.String())
	})

	t.Run("UserPageRedirects", func(t *testing.T) {
		w := doRequest(r, "/user/dashboard", token)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})
}

func TestAccessGateRoleEnforcement(t *testing.T) {
	r := gatedRouter(t)
	usuario := signToken(t, testSecret, &models.Claims{
		UserID: "u1", Role: models.RoleUsuario, IsRegistered: true,
	})
	admin := signToken(t, testSecret, &models.Claims{
		UserID: "a1", Role: models.RoleAdmin, IsRegistered: true,
	})

	t.Run("UsuarioOnUserRoute", func(t *testing.T) {
		w := doRequest(r, "/api/startups", usuario)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("UsuarioOnAdminAPI", func(t *testing.T) {
		w := doRequest(r, "/api/admin/usuarios", usuario)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"insufficient role"}`, w.Body.String())
	})

	t.Run("UsuarioOnAdminPage", func(t *testing.T) {
		w := doRequest(r, "/admin/panel", usuario)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/denied", w.Header().Get("Location"))
	})

	t.Run("AdminOnAdminRoute", func(t *testing.T) {
		w := doRequest(r, "/api/admin/usuarios", admin)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("AdminInheritsUserRoutes", func(t *testing.T) {
		w := doRequest(r, "/api/startups", admin)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("UnclassifiedRouteAllowsRegistered", func(t *testing.T) {
		w := doRequest(r, "/about", usuario)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("UnclassifiedRouteRejectsAnonymous", func(t *testing.T) {
		w := doRequest(r, "/about", "")
		assert.Equal(t, http.StatusFound, w.Code)
	})
}

func TestValidateSessionToken(t *testing.T) {
	t.Run("ValidToken", func(t *testing.T) {
		token := signToken(t, testSecret, &models.Claims{
			UserID: "u1", Email: "u1@example.com", Role: models.RoleUsuario, IsRegistered: true,
		})
		claims, err := ValidateSessionToken(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		assert.Equal(t, models.RoleUsuario, claims.Role)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		claims := &models.Claims{UserID: "u1", Role: models.RoleUsuario}
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = ValidateSessionToken(signed, testSecret)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		_, err := ValidateSessionToken("not-a-jwt", testSecret)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})
}
