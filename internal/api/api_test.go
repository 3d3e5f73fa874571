package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/winterveil/parkslot-backend/internal/auth"
	"github.com/winterveil/parkslot-backend/internal/parking"
	"github.com/winterveil/parkslot-backend/internal/payment"
	"github.com/winterveil/parkslot-backend/internal/pricing"
	"github.com/winterveil/parkslot-backend/internal/report"
)

func newTestRouter(t *testing.T) (*gin.Engine, *auth.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := parking.NewMemStore()
	hasher := auth.NewBcryptPasswordHasherWithCost(bcrypt.MinCost)
	hash, err := hasher.Hash("admin123")
	require.NoError(t, err)
	require.NoError(t, store.Seed(context.Background(), 3, parking.Credential{
		Username:     "admin",
		PasswordHash: hash,
		Role:         "superadmin",
	}))

	logger := zap.NewNop()
	engine := parking.NewService(store, pricing.NewCalculator(5.00), payment.NewStub(logger), logger)
	jwtManager := auth.NewJWTManager("test-secret", time.Minute)

	router := NewRouter(Config{
		Engine:      engine,
		Reports:     report.NewService(store),
		AuthService: auth.NewService(store, hasher),
		JWTManager:  jwtManager,
	})
	return router, jwtManager
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAvailableSlotsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/v1/slots/available", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp AvailableSlotsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []int64{1, 2, 3}, resp.SlotIDs)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestBookAndReleaseFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/bookings", BookRequest{
		SlotID:          1,
		UserID:          "alice",
		VehicleNumber:   "KA-01-1234",
		DurationMinutes: 90,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var booked BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booked))
	assert.Equal(t, int64(1), booked.SlotID)
	assert.InDelta(t, 7.50, booked.Amount, 1e-9)

	// Slot 1 no longer listed.
	w = doJSON(t, router, http.MethodGet, "/v1/slots/available", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var avail AvailableSlotsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &avail))
	assert.Equal(t, []int64{2, 3}, avail.SlotIDs)

	// Double-booking conflicts.
	w = doJSON(t, router, http.MethodPost, "/v1/bookings", BookRequest{
		SlotID: 1, UserID: "bob", VehicleNumber: "B", DurationMinutes: 30,
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	// Release frees the slot.
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/bookings/%d/release", booked.BookingID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var released BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &released))
	assert.Equal(t, "completed", released.Status)

	// Releasing again reports not found.
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/bookings/%d/release", booked.BookingID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookValidationErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/bookings", BookRequest{
		SlotID: 1, UserID: "alice", VehicleNumber: "A", DurationMinutes: -5,
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/bookings", BookRequest{
		SlotID: 1, VehicleNumber: "A", DurationMinutes: 30,
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserBookingsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/bookings", BookRequest{
		SlotID: 2, UserID: "alice", VehicleNumber: "A", DurationMinutes: 45,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/bookings?user_id=alice", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp BookingListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, "active", resp.Bookings[0].Status)

	// Missing user id is rejected.
	w = doJSON(t, router, http.MethodGet, "/v1/bookings", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginIssuesToken(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/auth/login", LoginRequest{
		Username: "admin", Password: "admin123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "superadmin", resp.Role)

	w = doJSON(t, router, http.MethodPost, "/v1/auth/login", LoginRequest{
		Username: "admin", Password: "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminEndpointsRequireToken(t *testing.T) {
	router, jwtManager := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/v1/admin/stats", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwtManager.GenerateAccessToken("admin", "superadmin")
	require.NoError(t, err)

	w = doJSON(t, router, http.MethodGet, "/v1/admin/stats", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var stats StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.TotalBookings)
}

func TestAdminBookingsAndStats(t *testing.T) {
	router, jwtManager := newTestRouter(t)
	token, err := jwtManager.GenerateAccessToken("admin", "superadmin")
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/v1/bookings", BookRequest{
		SlotID: 1, UserID: "alice", VehicleNumber: "A", DurationMinutes: 60,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/admin/bookings?status=active", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var list BookingListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Bookings, 1)

	// Unknown status is a bad request.
	w = doJSON(t, router, http.MethodGet, "/v1/admin/bookings?status=bogus", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Malformed date is a bad request.
	w = doJSON(t, router, http.MethodGet, "/v1/admin/bookings?date=03-10-2026", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/admin/stats", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalBookings)
	assert.Equal(t, 1, stats.ActiveBookings)
	assert.InDelta(t, 5.00, stats.RevenueToday, 1e-9)
}

func TestAdminSlotManagement(t *testing.T) {
	router, jwtManager := newTestRouter(t)
	token, err := jwtManager.GenerateAccessToken("admin", "superadmin")
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/v1/admin/slots", AddSlotRequest{VehicleType: "ev"}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	var added AddSlotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))
	assert.Equal(t, int64(4), added.SlotID)

	w = doJSON(t, router, http.MethodPatch, "/v1/admin/slots/4/active", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var toggled ToggleSlotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggled))
	assert.False(t, toggled.Active)

	// The deactivated slot drops out of availability.
	w = doJSON(t, router, http.MethodGet, "/v1/slots/available", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var avail AvailableSlotsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &avail))
	assert.Equal(t, []int64{1, 2, 3}, avail.SlotIDs)

	w = doJSON(t, router, http.MethodGet, "/v1/admin/slots", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var slots SlotListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	assert.Len(t, slots.Slots, 4)

	// Toggling an unknown slot reports not found.
	w = doJSON(t, router, http.MethodPatch, "/v1/admin/slots/99/active", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
