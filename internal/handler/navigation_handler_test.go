package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/agrisentry/biosecure-api/internal/middleware"
	"github.com/agrisentry/biosecure-api/internal/models"
)

func TestNavigationGuardRequiresRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewNavigationHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/navigation/guard", nil)

	handler.Guard(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNavigationGuardAnonymousRedirectsToLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewNavigationHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/navigation/guard?route=/farmer-dashboard", nil)

	handler.Guard(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, false, envelope.Data["allow"])
	assert.Equal(t, "/login", envelope.Data["redirect_to"])
}

func TestNavigationGuardOffRoleRedirectsToLanding(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewNavigationHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/navigation/guard?route=/national-dashboard", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "farmer-1", Role: models.RoleFarmer})

	handler.Guard(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, false, envelope.Data["allow"])
	assert.Equal(t, "/farmer-dashboard", envelope.Data["redirect_to"])
}

func TestNavigationGuardAllowsOwnDashboard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewNavigationHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/navigation/guard?route=/vet-dashboard", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "vet-1", Role: models.RoleVet})

	handler.Guard(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Data["allow"])
}
