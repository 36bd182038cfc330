package api

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"radar_backend/internal/config"
	"radar_backend/internal/db"
	"radar_backend/internal/domain"
	"radar_backend/internal/market"
	"radar_backend/internal/service"
	"radar_backend/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() { gin.SetMode(gin.TestMode) }

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	rdb    *redis.Client
	cfg    *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(conn))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWTSecret:         "test-secret",
		JWTTTL:            time.Hour,
		CommissionAmount:  decimal.NewFromInt(300),
		TrialDays:         30,
		ReferralBaseURL:   "https://exzakvibe.com",
		DashboardCacheTTL: time.Minute,
		ExtensionAPIURL:   "http://localhost:3000/api",
		DeviceTokenTTL:    time.Hour,
		TrustedProxies:    []string{"127.0.0.1"},
	}
	hasher := &utils.BcryptHasher{Cost: bcrypt.MinCost}
	router := NewRouter(Deps{
		Config:    cfg,
		DB:        conn,
		Redis:     rdb,
		Auth:      service.NewAuthService(conn, rdb, hasher, cfg),
		Dashboard: service.NewDashboardService(conn, rdb, cfg.DashboardCacheTTL),
		Referrals: service.NewReferralService(conn, rdb),
		Wallet:    service.NewWalletService(conn, rdb),
		Admin:     service.NewAdminService(conn, rdb),
		Notes:     service.NewNotificationService(conn),
		Extension: service.NewExtensionService(cfg, rdb),
		Market:    market.NewService(market.NewClient("http://127.0.0.1:1", "", time.Second), market.NewActivityFeed(rdb)),
	})
	return &testServer{t: t, router: router, db: conn, rdb: rdb, cfg: cfg}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) signupAndLogin(name, email string, extra map[string]any) (string, uint) {
	s.t.Helper()
	body := map[string]any{"name": name, "email": email, "password": "pw123456"}
	for k, v := range extra {
		body[k] = v
	}
	w := s.do(http.MethodPost, "/api/auth/signup", "", body)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": "pw123456"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	out := decode(s.t, w)
	user := out["user"].(map[string]any)
	return out["token"].(string), uint(user["id"].(float64))
}

func TestReferralFlow(t *testing.T) {
	s := newTestServer(t)
	refToken, refID := s.signupAndLogin("Referrer", "ref@example.com", nil)

	w := s.do(http.MethodPost, "/api/user/referral-code", refToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	code := decode(t, w)["code"].(string)

	w = s.do(http.MethodPost, "/api/user/referral-code/validate", "", map[string]string{"code": code})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["valid"])

	w = s.do(http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "Friend", "email": "friend@example.com", "password": "pw", "referralCode": code,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, true, out["success"])
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(http.MethodGet, "/api/user/dashboard", refToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	dash := decode(t, w)
	assert.Equal(t, float64(300), dash["walletBalance"])
	assert.Equal(t, float64(1), dash["referralCount"])
	assert.Len(t, dash["referrals"], 1)

	w = s.do(http.MethodPost, "/api/wallet/withdraw", refToken, map[string]any{"amount": 120, "account": "JazzCash"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(180), decode(t, w)["newBalance"])

	w = s.do(http.MethodPost, "/api/wallet/withdraw", refToken, map[string]any{"amount": "500", "account": "JazzCash"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Insufficient funds", decode(t, w)["error"])

	w = s.do(http.MethodGet, "/api/user/me", refToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(refID), decode(t, w)["id"])
}

func TestNotificationRoutes(t *testing.T) {
	s := newTestServer(t)
	refToken, _ := s.signupAndLogin("Referrer", "ref@example.com", nil)

	w := s.do(http.MethodGet, "/api/notifications", refToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, true, out["success"])
	data := out["data"].(map[string]any)
	assert.Empty(t, data["notifications"])
	assert.Equal(t, float64(0), data["unreadCount"])

	w = s.do(http.MethodPost, "/api/user/referral-code", refToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	code := decode(t, w)["code"].(string)
	w = s.do(http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "Friend", "email": "friend@example.com", "password": "pw", "referralCode": code,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/notifications", refToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decode(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(1), data["unreadCount"])
	notes := data["notifications"].([]any)
	require.Len(t, notes, 1)
	assert.Equal(t, "Commission earned", notes[0].(map[string]any)["title"])

	w = s.do(http.MethodPost, "/api/notifications/read", refToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Notifications marked read", decode(t, w)["message"])

	w = s.do(http.MethodGet, "/api/notifications", refToken, nil)
	data = decode(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(0), data["unreadCount"])

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/notifications", "", nil).Code)
}

func TestAuthErrors(t *testing.T) {
	s := newTestServer(t)
	s.signupAndLogin("Ali", "ali@example.com", nil)

	w := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ali@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["error"])

	w = s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"name": "Ali", "email": "ALI@example.com", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", decode(t, w)["error"])

	w = s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"name": "Coach", "email": "coach@example.com", "password": "pw", "role": "trainer"})
	require.Equal(t, http.StatusOK, w.Code)
	coachID := decode(t, w)["user"].(map[string]any)["id"].(float64)

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "coach@example.com", "password": "pw"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/user/approval-status?userId="+idString(coachID), "", nil)
	assert.Equal(t, false, decode(t, w)["approved"])
	w = s.do(http.MethodGet, "/api/user/approval-status?userId=abc", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["approved"])

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/user/dashboard", "", nil).Code)
}

func idString(id float64) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestDeletedUserDashboardIsNotFound(t *testing.T) {
	s := newTestServer(t)
	token, id := s.signupAndLogin("Ali", "ali@example.com", nil)
	require.NoError(t, s.db.Delete(&domain.User{}, id).Error)

	w := s.do(http.MethodGet, "/api/user/dashboard", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decode(t, w)["error"])
}

func TestExtensionDownloadAndRevoke(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signupAndLogin("Ali", "ali@example.com", nil)

	w := s.do(http.MethodGet, "/api/extension/download", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=ex_zakvibe_pro.zip", w.Header().Get("Content-Disposition"))
	deviceID := w.Header().Get("X-Device-Id")
	require.NotEmpty(t, deviceID)

	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"manifest.json", "background.js", "popup.html"}, names)

	device, _, err := utils.GenerateDeviceJWT(1, "ali@example.com", domain.RoleUser, s.cfg.JWTSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/extension/download", device, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/wallet/withdraw", device, map[string]any{"amount": 1, "account": "x"}).Code)

	w = s.do(http.MethodDelete, "/api/extension/devices/"+deviceID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodDelete, "/api/extension/devices/unknown", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	userToken, userID := s.signupAndLogin("Ali", "ali@example.com", nil)
	adminToken, _ := s.signupAndLogin("Boss", "boss@example.com", nil)
	require.NoError(t, s.db.Model(&domain.User{}).Where("email = ?", "boss@example.com").Update("role", domain.RoleAdmin).Error)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/admin/users", userToken, nil).Code)

	w := s.do(http.MethodGet, "/api/admin/users?page=1&page_size=10", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, float64(2), out["total"])
	assert.NotContains(t, w.Body.String(), "passwordHash")

	path := "/api/admin/users/" + idString(float64(userID))
	w = s.do(http.MethodPatch, path+"/block", adminToken, map[string]bool{"blocked": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["isBlocked"])
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, path+"/block", adminToken, map[string]any{}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, "/api/admin/users/abc/block", adminToken, map[string]bool{"blocked": true}).Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ali@example.com", "password": "pw123456"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	// Tokens issued before the block stop working too
	w = s.do(http.MethodGet, "/api/user/dashboard", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Account blocked", decode(t, w)["error"])
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/notifications", userToken, nil).Code)

	w = s.do(http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["blocked"])

	w = s.do(http.MethodGet, "/api/admin/users/search?q=ali", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ali@example.com", decode(t, w)["email"])

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/admin/transactions?user_id=x", adminToken, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/admin/transactions", adminToken, nil).Code)

	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, path, adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, path, adminToken, nil).Code)
}

func TestCalculators(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/xray/profit-calculator", "", map[string]any{
		"sellPrice": 30, "costPrice": "10", "fbaFees": 5,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"refFee":4.5,"totalFees":9.5,"profitPerUnit":10.5,"totalProfit":10.5,"margin":35,"roi":105}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/xray/profit-calculator", "", []int{1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"refFee":0,"totalFees":0,"profitPerUnit":0,"totalProfit":0,"margin":0,"roi":0}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/xray/sales-estimate?bsr=5000&category=Toys", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, float64(5000), out["bsr"])
	assert.Equal(t, "Toys", out["category"])
	assert.Contains(t, out, "estimatedSales")
}

func TestMarketEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/market/analyze", "", map[string]any{
		"keyword": "yoga mat",
		"products": []map[string]any{
			{"title": "Acme Yoga Mat", "asin": "B001", "price": 25, "bsr": 1000, "reviews": 500, "rating": 4.5},
			{"title": "Zen Yoga Mat", "asin": "B002", "price": "30", "bsr": 8000, "reviews": 40, "rating": 4.1},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, true, out["success"])
	assert.Nil(t, out["error"])
	data := out["data"].(map[string]any)
	assert.Equal(t, "yoga mat", data["keyword"])
	assert.Equal(t, market.SourceExtension, data["dataSource"])

	w = s.do(http.MethodGet, "/api/market/activity", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"].(map[string]any)["activities"], 1)

	w = s.do(http.MethodGet, "/api/market/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["data"].(map[string]any)["totalScans"])

	// Keyword searches need the market data provider
	w = s.do(http.MethodPost, "/api/market/analyze", "", map[string]any{"keyword": "yoga mat"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	out = decode(t, w)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Market analysis service is not configured", out["error"])

	w = s.do(http.MethodPost, "/api/market/analyze", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/market/sourcing", "", map[string]any{"query": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok","redis":"ok"}`, w.Body.String())
}
