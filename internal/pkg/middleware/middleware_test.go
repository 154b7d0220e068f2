package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nepeats/internal/pkg/config"
	"nepeats/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(TraceMiddleware())
	auth := r.Group("", AuthMiddleware())
	auth.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserID(c)+"|"+CurrentRole(c))
	})
	auth.GET("/admin", AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	auth.GET("/kitchen", RequireRole(RoleRestaurant, RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func bearer(t *testing.T, userID, role string) string {
	token, err := utils.GenerateToken(userID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	config.GlobalConfig.JWT.Secret = "0123456789abcdef0123456789abcdef"
	r := newRouter()

	t.Run("Missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("Malformed header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Token abc")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Valid token sets identity", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", bearer(t, "user-1", RoleCustomer))
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1|customer", w.Body.String())
	})

	t.Run("Role checks", func(t *testing.T) {
		cases := []struct {
			path string
			role string
			want int
		}{
			{"/admin", RoleCustomer, http.StatusForbidden},
			{"/admin", RoleAdmin, http.StatusNoContent},
			{"/kitchen", RoleRestaurant, http.StatusNoContent},
			{"/kitchen", RoleCustomer, http.StatusForbidden},
		}
		for _, tc := range cases {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Header.Set("Authorization", bearer(t, "user-1", tc.role))
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code, "%s as %s", tc.path, tc.role)
		}
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(NewIPRateLimiter(1, 2)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
