package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"authhub/internal/blacklist"
	"authhub/internal/domain"
	"authhub/internal/modules/token"
	jwtpkg "authhub/internal/pkg/jwt"
)

// memoryTokenStore backs a real token.Service in handler tests.
type memoryTokenStore struct {
	records map[string]*domain.RefreshToken
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{records: make(map[string]*domain.RefreshToken)}
}

func (r *memoryTokenStore) Create(ctx context.Context, t *domain.RefreshToken) error {
	cp := *t
	r.records[t.Token] = &cp
	return nil
}

func (r *memoryTokenStore) GetByToken(ctx context.Context, tok string) (*domain.RefreshToken, error) {
	rec, ok := r.records[tok]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *memoryTokenStore) Revoke(ctx context.Context, tok, byIP string) (bool, error) {
	rec, ok := r.records[tok]
	if !ok || rec.RevokedAt != nil {
		return false, nil
	}
	now := time.Now()
	rec.RevokedAt = &now
	rec.RevokedByIP = byIP
	return true, nil
}

func (r *memoryTokenStore) SetReplacedBy(ctx context.Context, tok, successor string) error {
	if rec, ok := r.records[tok]; ok {
		rec.ReplacedByToken = successor
	}
	return nil
}

func (r *memoryTokenStore) RevokeAllByUser(ctx context.Context, userID int64) error {
	now := time.Now()
	for _, rec := range r.records {
		if rec.UserID == userID && rec.RevokedAt == nil {
			rec.RevokedAt = &now
		}
	}
	return nil
}

func newHandlerSetup(t *testing.T, userRepo *mockUserRepo) (*gin.Engine, *token.Service) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	tokenService := token.NewService(
		newMemoryTokenStore(),
		blacklist.New(rdb),
		jwtpkg.New("handler-test-secret"),
		15*time.Minute,
		7*24*time.Hour,
	)
	service := NewService(userRepo, tokenService, &captureNotifier{}, nil, 5, 15*time.Minute, 24*time.Hour, 10*time.Minute)
	handler := NewHandler(service, tokenService, false, 3600)

	router := gin.New()
	v1 := router.Group("/api/v1")
	handler.RegisterPublicRoutes(v1)
	return router, tokenService
}

func findCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	res := w.Result()
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHandler_Register(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("ExistsByEmail", mock.Anything, "new@example.com").Return(false, nil)
	userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	userRepo.On("SetVerificationSecret", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	router, _ := newHandlerSetup(t, userRepo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/register",
		strings.NewReader(`{"name":"N","email":"new@example.com","password":"longenough1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "new@example.com")
}

func TestHandler_Register_Conflict(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("ExistsByEmail", mock.Anything, "dup@example.com").Return(true, nil)

	router, _ := newHandlerSetup(t, userRepo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/register",
		strings.NewReader(`{"name":"N","email":"dup@example.com","password":"longenough1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "EMAIL_EXISTS")
}

func TestHandler_Register_ShortPassword(t *testing.T) {
	router, _ := newHandlerSetup(t, new(mockUserRepo))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/register",
		strings.NewReader(`{"name":"N","email":"x@example.com","password":"short"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func loginUserRepo(t *testing.T) *mockUserRepo {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	userRepo := new(mockUserRepo)
	userRepo.On("GetByEmail", mock.Anything, "user@example.com").Return(&domain.User{
		ID:           10,
		Email:        "user@example.com",
		PasswordHash: string(hashed),
		Role:         domain.RoleUser,
		IsActive:     true,
	}, nil)
	userRepo.On("RecordSuccessfulLogin", mock.Anything, int64(10), mock.Anything).Return(nil)
	return userRepo
}

func loginRequest() *http.Request {
	req := httptest.NewRequest("POST", "/api/v1/auth/login",
		strings.NewReader(`{"email":"user@example.com","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandler_Login_SetsRefreshCookie(t *testing.T) {
	router, _ := newHandlerSetup(t, loginUserRepo(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequest())

	assert.Equal(t, http.StatusOK, w.Code)

	cookie := findCookie(t, w, refreshCookieName)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestHandler_Login_WrongPassword(t *testing.T) {
	userRepo := loginUserRepo(t)
	userRepo.On("RecordFailedLogin", mock.Anything, int64(10), mock.Anything, mock.Anything).Return(nil)
	router, _ := newHandlerSetup(t, userRepo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/login",
		strings.NewReader(`{"email":"user@example.com","password":"wrong-password"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}

func TestHandler_Refresh_ViaCookie(t *testing.T) {
	router, _ := newHandlerSetup(t, loginUserRepo(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequest())
	cookie := findCookie(t, w, refreshCookieName)
	require.NotNil(t, cookie)

	w = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/refresh-tokens", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	rotated := findCookie(t, w, refreshCookieName)
	require.NotNil(t, rotated)
	assert.NotEqual(t, cookie.Value, rotated.Value)
}

func TestHandler_Refresh_ViaBody(t *testing.T) {
	router, _ := newHandlerSetup(t, loginUserRepo(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequest())

	var loginResp struct {
		Data struct {
			Tokens token.Pair `json:"tokens"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	refresh := loginResp.Data.Tokens.RefreshToken
	require.NotEmpty(t, refresh)

	w = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/refresh-tokens",
		strings.NewReader(`{"refresh_token":"`+refresh+`"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_Refresh_ConsumedTokenRejected(t *testing.T) {
	router, _ := newHandlerSetup(t, loginUserRepo(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequest())
	cookie := findCookie(t, w, refreshCookieName)
	require.NotNil(t, cookie)

	w = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/refresh-tokens", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Replaying the consumed token fails and clears the cookie.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/v1/auth/refresh-tokens", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	cleared := findCookie(t, w, refreshCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestHandler_Refresh_MissingToken(t *testing.T) {
	router, _ := newHandlerSetup(t, new(mockUserRepo))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/auth/refresh-tokens", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Logout_RevokesRefreshToken(t *testing.T) {
	router, tokenService := newHandlerSetup(t, loginUserRepo(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequest())
	cookie := findCookie(t, w, refreshCookieName)
	require.NotNil(t, cookie)

	w = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	_, err := tokenService.Rotate(context.Background(), cookie.Value, "")
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestHandler_ForgotPassword_AlwaysAccepts(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)

	router, _ := newHandlerSetup(t, userRepo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/forgot-password",
		strings.NewReader(`{"email":"nobody@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
