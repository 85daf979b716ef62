package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ppisng/ppis-api/internal/models"
)

func performWithClaims(t *testing.T, claims *models.JWTClaims, paramID string, mw gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if paramID != "" {
		c.Params = gin.Params{{Key: "id", Value: paramID}}
	}
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	mw(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return rec
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}
	rec := performWithClaims(t, claims, "", RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRBACRejectsOtherRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	rec := performWithClaims(t, claims, "", RequireRoles(models.RoleAdmin, models.RoleFormTeacher))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRBACSelfAccess(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}

	rec := performWithClaims(t, claims, "u1", RBAC(string(models.RoleAdmin), "SELF"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = performWithClaims(t, claims, "someone-else", RBAC(string(models.RoleAdmin), "SELF"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRBACOwnedResolvesStudentOwnership(t *testing.T) {
	// A reconciled account: profile "a1" owns student row "s1".
	resolve := func(ctx context.Context, profileID string) (string, error) {
		if profileID == "a1" {
			return "s1", nil
		}
		return "", errors.New("no student for profile")
	}
	mw := RBACOwned(resolve, string(models.RoleAdmin), string(models.RoleFormTeacher), "SELF")

	claims := &models.JWTClaims{UserID: "a1", Role: models.RoleStudent}
	rec := performWithClaims(t, claims, "s1", mw)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Someone else's student row stays off limits.
	rec = performWithClaims(t, claims, "s2", mw)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A profile with no student row gets no self access at all.
	other := &models.JWTClaims{UserID: "b9", Role: models.RoleStudent}
	rec = performWithClaims(t, other, "s1", mw)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRBACMissingClaims(t *testing.T) {
	rec := performWithClaims(t, nil, "", RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
