package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/geulbit/geulbit-api/internal/models"
)

func runGuard(t *testing.T, guard gin.HandlerFunc, claims *models.JWTClaims, paramID string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if paramID != "" {
		c.Params = gin.Params{{Key: "id", Value: paramID}}
	}
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}
	guard(c)
	return w, !c.IsAborted()
}

func TestRequireRoles(t *testing.T) {
	guard := RequireRoles(models.RoleTeacher, models.RoleAdmin)

	_, passed := runGuard(t, guard, &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}, "")
	assert.True(t, passed)

	w, passed := runGuard(t, guard, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, "")
	assert.False(t, passed)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, passed = runGuard(t, guard, nil, "")
	assert.False(t, passed)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSelfOrRoles(t *testing.T) {
	guard := SelfOrRoles(models.RoleTeacher, models.RoleAdmin)

	_, passed := runGuard(t, guard, &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}, "s1")
	assert.True(t, passed)

	_, passed = runGuard(t, guard, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, "s1")
	assert.True(t, passed)

	w, passed := runGuard(t, guard, &models.JWTClaims{UserID: "s2", Role: models.RoleStudent}, "s1")
	assert.False(t, passed)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
