package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/middleware"
	"github.com/agrisentry/biosecure-api/internal/models"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error map[string]interface{} `json:"error"`
}

type fakeDashboardSrv struct {
	farmerResp   *dto.FarmerDashboardResponse
	farmerHit    bool
	nationalResp *dto.NationalDashboardResponse
	calls        []string
}

func (f *fakeDashboardSrv) Farmer(context.Context, *models.JWTClaims) (*dto.FarmerDashboardResponse, bool, error) {
	f.calls = append(f.calls, "farmer")
	return f.farmerResp, f.farmerHit, nil
}

func (f *fakeDashboardSrv) Vet(context.Context, *models.JWTClaims) (*dto.VetDashboardResponse, bool, error) {
	f.calls = append(f.calls, "vet")
	return &dto.VetDashboardResponse{}, false, nil
}

func (f *fakeDashboardSrv) Extension(context.Context, *models.JWTClaims) (*dto.ExtensionDashboardResponse, bool, error) {
	f.calls = append(f.calls, "extension")
	return &dto.ExtensionDashboardResponse{}, false, nil
}

func (f *fakeDashboardSrv) District(context.Context, *models.JWTClaims) (*dto.DistrictDashboardResponse, bool, error) {
	f.calls = append(f.calls, "district")
	return &dto.DistrictDashboardResponse{}, false, nil
}

func (f *fakeDashboardSrv) National(context.Context, *models.JWTClaims) (*dto.NationalDashboardResponse, bool, error) {
	f.calls = append(f.calls, "national")
	return f.nationalResp, false, nil
}

func TestDashboardHandlerRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerRoutesByRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[models.UserRole]string{
		models.RoleFarmer:        "farmer",
		models.RoleVet:           "vet",
		models.RoleExtension:     "extension",
		models.RoleDistrictAdmin: "district",
		models.RoleNationalAdmin: "national",
	}
	for role, want := range cases {
		service := &fakeDashboardSrv{
			farmerResp:   &dto.FarmerDashboardResponse{},
			nationalResp: &dto.NationalDashboardResponse{},
		}
		handler := NewDashboardHandler(service)

		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: role})

		handler.Me(c)

		assert.Equal(t, http.StatusOK, rec.Code, string(role))
		assert.Equal(t, []string{want}, service.calls, string(role))
	}
}

func TestDashboardHandlerReportsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeDashboardSrv{
		farmerResp: &dto.FarmerDashboardResponse{},
		farmerHit:  true,
	}
	handler := NewDashboardHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "farmer-1", Role: models.RoleFarmer})

	handler.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}
