package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/estatehub/backoffice/internal/config"
	"github.com/estatehub/backoffice/internal/db"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:app_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}

	cfg := config.Default()
	cfg.JWT.Secret = "test-secret"
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.Uploads.Dir = filepath.Join(t.TempDir(), "uploads")
	if mutate != nil {
		mutate(&cfg)
	}

	s, errNew := New(&cfg, conn, nil)
	if errNew != nil {
		t.Fatalf("new server: %v", errNew)
	}
	if errDir := s.images.EnsureDir(); errDir != nil {
		t.Fatalf("ensure upload dir: %v", errDir)
	}
	return s, conn
}

func doJSON(t *testing.T, s *Server, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &out); errDecode != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), errDecode)
	}
	return out
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &out); errDecode != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), errDecode)
	}
	return out
}

func provision(t *testing.T, s *Server, username, role string) {
	t.Helper()
	_, errCreate := s.CreateAdmin(context.Background(), CreateAdminParams{
		Username: username,
		Email:    username + "@x.com",
		Password: "Secret1!",
		Role:     role,
	})
	if errCreate != nil {
		t.Fatalf("create admin %s: %v", username, errCreate)
	}
}

func login(t *testing.T, s *Server, username string) (string, string) {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/auth/login", gin.H{"email": username + "@x.com", "password": "Secret1!"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", username, rec.Code, rec.Body.String())
	}
	body := decodeMap(t, rec)
	return body["accessToken"].(string), body["refreshToken"].(string)
}

func TestRegisterDisabledByDefault(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice", "email": "alice@x.com", "password": "Secret1!",
	}, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeMap(t, rec); body["code"] != "registration_disabled" || body["error"] != "Registration is disabled" {
		t.Fatalf("unexpected body: %v", body)
	}

	for _, raw := range []string{"", "{not json"} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		rec = httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden || decodeMap(t, rec)["code"] != "registration_disabled" {
			t.Fatalf("body %q: expected 403 registration_disabled, got %d %s", raw, rec.Code, rec.Body.String())
		}
	}
}

func TestMalformedAuthBodies(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *config.Config) { cfg.Auth.AllowRegistration = true })

	for _, path := range []string{"/api/auth/register", "/api/auth/login"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, rec.Code)
		}
		if body := decodeMap(t, rec); body["code"] != "bad_request" || body["error"] != "Invalid request body" {
			t.Fatalf("%s: unexpected body %v", path, body)
		}
	}
}

func TestRegisterThenLockoutEndToEnd(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *config.Config) { cfg.Auth.AllowRegistration = true })

	rec := doJSON(t, s, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice", "email": "alice@x.com", "password": "Secret1!",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeMap(t, rec)
	if body["accessToken"] == "" || body["refreshToken"] == "" || body["message"] != "Admin registered successfully" {
		t.Fatalf("unexpected register body: %v", body)
	}
	if body["expiresIn"] != float64(config.DefaultAccessTokenTTL.Seconds()) {
		t.Fatalf("expiresIn = %v, want %v", body["expiresIn"], config.DefaultAccessTokenTTL.Seconds())
	}
	if adminBody, ok := body["admin"].(map[string]any); !ok || adminBody["role"] != "admin" {
		t.Fatalf("expected admin role in body: %v", body)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/auth/register", gin.H{
		"username": "al", "email": "nope", "password": "short",
	}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid registration, got %d", rec.Code)
	}
	if errs, ok := decodeMap(t, rec)["errors"].([]any); !ok || len(errs) != 3 {
		t.Fatalf("expected three validation errors, got %s", rec.Body.String())
	}

	wrong := gin.H{"email": "alice@x.com", "password": "Wrong1!pass"}
	for i := 1; i <= 4; i++ {
		rec = doJSON(t, s, http.MethodPost, "/api/auth/login", wrong, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, rec.Code)
		}
	}
	rec = doJSON(t, s, http.MethodPost, "/api/auth/login", wrong, "")
	if rec.Code != http.StatusLocked {
		t.Fatalf("attempt 5: expected 423, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/auth/login", gin.H{"email": "alice@x.com", "password": "Secret1!"}, "")
	if rec.Code != http.StatusLocked {
		t.Fatalf("expected correct password to stay locked, got %d", rec.Code)
	}
	if code := decodeMap(t, rec)["code"]; code != "account_locked" {
		t.Fatalf("expected account_locked code, got %v", code)
	}
}

func TestRefreshReuseEndToEnd(t *testing.T) {
	s, _ := newTestServer(t, nil)
	provision(t, s, "bob", "admin")
	_, token := login(t, s, "bob")

	rec := doJSON(t, s, http.MethodPost, "/api/auth/refresh", gin.H{"refreshToken": token}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("first refresh: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	token2 := decodeMap(t, rec)["refreshToken"].(string)
	if token2 == "" || token2 == token {
		t.Fatalf("expected rotated token, got %q", token2)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/auth/refresh", gin.H{"refreshToken": token}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("reuse: expected 401, got %d", rec.Code)
	}
	if code := decodeMap(t, rec)["code"]; code != "token_reuse_detected" {
		t.Fatalf("expected token_reuse_detected, got %v", code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/auth/refresh", gin.H{"refreshToken": token2}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("successor after reuse: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/auth/refresh", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing token: expected 400, got %d", rec.Code)
	}
}

func TestSessionEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)
	provision(t, s, "carol", "admin")
	access, refresh := login(t, s, "carol")

	if rec := doJSON(t, s, http.MethodGet, "/api/auth/me", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me without token: expected 401, got %d", rec.Code)
	}
	rec := doJSON(t, s, http.MethodGet, "/api/auth/me", nil, "garbage")
	if rec.Code != http.StatusUnauthorized || decodeMap(t, rec)["code"] != "invalid_token" {
		t.Fatalf("me with bad token: got %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, s, http.MethodGet, "/api/auth/me", nil, access)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rec.Code)
	}
	me := decodeMap(t, rec)
	if me["username"] != "carol" || me["lastLoginAt"] == nil {
		t.Fatalf("unexpected me body: %v", me)
	}
	if _, leaked := me["password"]; leaked {
		t.Fatalf("password leaked in me body")
	}

	rec = doJSON(t, s, http.MethodGet, "/api/auth/events", nil, access)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "login_success") {
		t.Fatalf("events: got %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/auth/revoke-all-sessions", nil, access)
	if rec.Code != http.StatusOK || decodeMap(t, rec)["message"] != "All sessions revoked" {
		t.Fatalf("revoke-all: got %d %s", rec.Code, rec.Body.String())
	}
	if rec = doJSON(t, s, http.MethodPost, "/api/auth/refresh", gin.H{"refreshToken": refresh}, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after revoke-all: expected 401, got %d", rec.Code)
	}

	_, refresh = login(t, s, "carol")
	for i := 0; i < 2; i++ {
		if rec = doJSON(t, s, http.MethodPost, "/api/auth/logout", gin.H{"refreshToken": refresh}, ""); rec.Code != http.StatusNoContent {
			t.Fatalf("logout %d: expected 204, got %d", i, rec.Code)
		}
	}
	if rec = doJSON(t, s, http.MethodPost, "/api/auth/logout", nil, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("logout without body: expected 204, got %d", rec.Code)
	}
}

func TestUnlockRequiresSuperAdmin(t *testing.T) {
	s, _ := newTestServer(t, nil)
	provision(t, s, "dave", "admin")
	provision(t, s, "root", "super-admin")
	adminAccess, _ := login(t, s, "dave")
	superAccess, _ := login(t, s, "root")

	for _, target := range []string{"/api/auth/unlock/1", "/api/auth/unlock/999"} {
		rec := doJSON(t, s, http.MethodPost, target, nil, adminAccess)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s as admin: expected 403, got %d", target, rec.Code)
		}
	}

	rec := doJSON(t, s, http.MethodPost, "/api/auth/unlock/1", nil, superAccess)
	if rec.Code != http.StatusOK {
		t.Fatalf("unlock as super-admin: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeMap(t, rec); body["message"] != "Account unlocked" {
		t.Fatalf("unexpected unlock body: %v", body)
	}
	if rec = doJSON(t, s, http.MethodPost, "/api/auth/unlock/999", nil, superAccess); rec.Code != http.StatusNotFound {
		t.Fatalf("unlock missing admin: expected 404, got %d", rec.Code)
	}
}

func multipartRequest(t *testing.T, method, path, token string, fields map[string]string, fileName string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if errField := writer.WriteField(key, value); errField != nil {
			t.Fatalf("write field: %v", errField)
		}
	}
	if fileName != "" {
		part, errPart := writer.CreateFormFile("image", fileName)
		if errPart != nil {
			t.Fatalf("create form file: %v", errPart)
		}
		_, _ = part.Write([]byte("fake image bytes"))
	}
	if errClose := writer.Close(); errClose != nil {
		t.Fatalf("close multipart: %v", errClose)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestProjectLifecycleWithImages(t *testing.T) {
	s, _ := newTestServer(t, nil)
	provision(t, s, "erin", "admin")
	access, _ := login(t, s, "erin")
	router := s.Router()

	fields := map[string]string{"name": "Harbor View", "description": "Waterfront flats"}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, http.MethodPost, "/api/projects", "", fields, "a.png"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, http.MethodPost, "/api/projects", access, fields, "harbor.png"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeMap(t, rec)
	firstURL, _ := created["imageUrl"].(string)
	if !strings.HasPrefix(firstURL, "/uploads/") || !strings.HasSuffix(firstURL, "-harbor.png") {
		t.Fatalf("unexpected image url %q", firstURL)
	}
	firstPath := filepath.Join(s.images.Dir(), filepath.Base(firstURL))
	if _, errStat := os.Stat(firstPath); errStat != nil {
		t.Fatalf("expected stored image: %v", errStat)
	}
	id := int(created["id"].(float64))

	staticRec := doJSON(t, s, http.MethodGet, firstURL, nil, "")
	if staticRec.Code != http.StatusOK || staticRec.Body.String() != "fake image bytes" {
		t.Fatalf("static upload: got %d %q", staticRec.Code, staticRec.Body.String())
	}

	public := decodeList(t, doJSON(t, s, http.MethodGet, "/api/projects", nil, ""))
	if len(public) != 1 {
		t.Fatalf("expected one project, got %v", public)
	}
	if _, ok := public[0]["createdAt"]; ok {
		t.Fatalf("anonymous listing must not expose createdAt: %v", public[0])
	}
	authed := decodeList(t, doJSON(t, s, http.MethodGet, "/api/projects", nil, access))
	if _, ok := authed[0]["createdAt"]; !ok {
		t.Fatalf("authenticated listing should expose createdAt: %v", authed[0])
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, http.MethodPut, fmt.Sprintf("/api/projects/%d", id), access,
		map[string]string{"name": "Harbor View II"}, "harbor2.png"))
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeMap(t, rec)
	if updated["name"] != "Harbor View II" || updated["description"] != "Waterfront flats" {
		t.Fatalf("unexpected update body: %v", updated)
	}
	if _, errStat := os.Stat(firstPath); !os.IsNotExist(errStat) {
		t.Fatalf("expected replaced image removed, stat err %v", errStat)
	}
	secondPath := filepath.Join(s.images.Dir(), filepath.Base(updated["imageUrl"].(string)))

	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/projects/%d", id), nil, access)
	if rec.Code != http.StatusOK || decodeMap(t, rec)["message"] != "Project deleted" {
		t.Fatalf("delete: got %d %s", rec.Code, rec.Body.String())
	}
	if _, errStat := os.Stat(secondPath); !os.IsNotExist(errStat) {
		t.Fatalf("expected image removed on delete, stat err %v", errStat)
	}
	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/projects/%d", id), nil, access)
	if rec.Code != http.StatusNotFound || decodeMap(t, rec)["error"] != "Project not found" {
		t.Fatalf("second delete: got %d %s", rec.Code, rec.Body.String())
	}
}

func TestClientsJSONBody(t *testing.T) {
	s, _ := newTestServer(t, nil)
	provision(t, s, "fay", "admin")
	access, _ := login(t, s, "fay")

	rec := doJSON(t, s, http.MethodPost, "/api/clients", gin.H{"name": "Ana"}, access)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("incomplete client: expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodPost, "/api/clients", gin.H{
		"name": "Ana", "designation": "CEO", "description": "Great team",
	}, access)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create client: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if imageURL := decodeMap(t, rec)["imageUrl"]; imageURL != nil {
		t.Fatalf("expected null image url, got %v", imageURL)
	}

	clients := decodeList(t, doJSON(t, s, http.MethodGet, "/api/clients", nil, ""))
	if len(clients) != 1 || clients[0]["designation"] != "CEO" {
		t.Fatalf("unexpected clients: %v", clients)
	}
	if rec = doJSON(t, s, http.MethodPut, "/api/clients/42", gin.H{"name": "x"}, access); rec.Code != http.StatusNotFound {
		t.Fatalf("update missing client: expected 404, got %d", rec.Code)
	}
}

func TestContactAndNewsletter(t *testing.T) {
	s, _ := newTestServer(t, nil)
	provision(t, s, "gil", "admin")
	access, _ := login(t, s, "gil")

	rec := doJSON(t, s, http.MethodPost, "/api/contact", gin.H{"fullName": "Ravi", "email": "r@x.com"}, "")
	if rec.Code != http.StatusBadRequest || decodeMap(t, rec)["error"] != "All fields are required" {
		t.Fatalf("incomplete contact: got %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, s, http.MethodPost, "/api/contact", gin.H{
		"fullName": "Ravi", "email": "r@x.com", "mobileNumber": "9876543210", "city": "Pune",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("contact: expected 201, got %d", rec.Code)
	}
	contactID := int(decodeMap(t, rec)["id"].(float64))

	if rec = doJSON(t, s, http.MethodGet, "/api/contact", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous contact list: expected 401, got %d", rec.Code)
	}
	if contacts := decodeList(t, doJSON(t, s, http.MethodGet, "/api/contact", nil, access)); len(contacts) != 1 {
		t.Fatalf("expected one contact, got %v", contacts)
	}
	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/contact/%d", contactID), nil, access)
	if rec.Code != http.StatusOK || decodeMap(t, rec)["message"] != "Submission deleted" {
		t.Fatalf("delete contact: got %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/contact/%d", contactID), nil, access)
	if rec.Code != http.StatusNotFound || decodeMap(t, rec)["error"] != "Submission not found" {
		t.Fatalf("delete missing contact: got %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/newsletter", gin.H{}, "")
	if rec.Code != http.StatusBadRequest || decodeMap(t, rec)["error"] != "Email is required" {
		t.Fatalf("empty newsletter: got %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, s, http.MethodPost, "/api/newsletter", gin.H{"email": "Reader@x.com"}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("subscribe: expected 201, got %d", rec.Code)
	}
	subID := int(decodeMap(t, rec)["id"].(float64))
	rec = doJSON(t, s, http.MethodPost, "/api/newsletter", gin.H{"email": "reader@x.com"}, "")
	if rec.Code != http.StatusBadRequest || decodeMap(t, rec)["error"] != "Email already subscribed" {
		t.Fatalf("duplicate subscribe: got %d %s", rec.Code, rec.Body.String())
	}
	if subs := decodeList(t, doJSON(t, s, http.MethodGet, "/api/newsletter", nil, access)); len(subs) != 1 {
		t.Fatalf("expected one subscription, got %v", subs)
	}
	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/newsletter/%d", subID), nil, access)
	if rec.Code != http.StatusOK || decodeMap(t, rec)["message"] != "Subscription deleted" {
		t.Fatalf("unsubscribe: got %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/newsletter/%d", subID), nil, access)
	if rec.Code != http.StatusNotFound || decodeMap(t, rec)["error"] != "Subscription not found" {
		t.Fatalf("delete missing subscription: got %d %s", rec.Code, rec.Body.String())
	}
}

func TestLoginRateLimit(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *config.Config) { cfg.RateLimit.LoginMax = 2 })

	body := gin.H{"email": "nobody@x.com", "password": "Secret1!"}
	for i := 0; i < 2; i++ {
		rec := doJSON(t, s, http.MethodPost, "/api/auth/login", body, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
		if rec.Header().Get("RateLimit-Limit") != "2" {
			t.Fatalf("expected RateLimit-Limit header, got %q", rec.Header().Get("RateLimit-Limit"))
		}
	}
	rec := doJSON(t, s, http.MethodPost, "/api/auth/login", body, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if msg := decodeMap(t, rec)["error"]; msg != "Too many login attempts, please try again later" {
		t.Fatalf("unexpected 429 message %v", msg)
	}
	if rec.Header().Get("RateLimit-Remaining") != "0" {
		t.Fatalf("expected zero remaining, got %q", rec.Header().Get("RateLimit-Remaining"))
	}
}

func TestHealthMetricsAndNotFound(t *testing.T) {
	s, conn := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/api/health", nil, "")
	if rec.Code != http.StatusOK || decodeMap(t, rec)["status"] != "OK" {
		t.Fatalf("health: got %d %s", rec.Code, rec.Body.String())
	}
	if rec = doJSON(t, s, http.MethodGet, "/api/nope", nil, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown api route: expected 404, got %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/metrics", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "estatehub_http_requests_total") {
		t.Fatalf("metrics: got %d", rec.Code)
	}

	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("sql handle: %v", errDB)
	}
	_ = sqlDB.Close()
	if rec = doJSON(t, s, http.MethodGet, "/api/health", nil, ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("health with closed db: expected 503, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *config.Config) { cfg.Server.CORSOrigins = []string{"https://estate.example"} })

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "https://estate.example")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight: expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://estate.example" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS header for foreign origin, got %q", got)
	}
}

func TestSeedDefaultAdmin(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *config.Config) { cfg.Seed.Enabled = true })
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if errSeed := s.SeedDefaultAdmin(ctx); errSeed != nil {
			t.Fatalf("seed %d: %v", i, errSeed)
		}
	}
	count, errCount := s.admins.Count(ctx)
	if errCount != nil || count != 1 {
		t.Fatalf("expected one admin, got %d (%v)", count, errCount)
	}
	rec := doJSON(t, s, http.MethodPost, "/api/auth/login", gin.H{
		"email": config.DefaultAdminEmail, "password": config.DefaultAdminPassword,
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login as seeded admin: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSeedSkippedWhenDisabled(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ctx := context.Background()
	if errSeed := s.SeedDefaultAdmin(ctx); errSeed != nil {
		t.Fatalf("seed: %v", errSeed)
	}
	if count, _ := s.admins.Count(ctx); count != 0 {
		t.Fatalf("expected no admins, got %d", count)
	}
}

func TestCreateAdminValidation(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ctx := context.Background()

	if _, errCreate := s.CreateAdmin(ctx, CreateAdminParams{
		Username: "root", Email: "root@x.com", Password: "Secret1!", Role: "owner",
	}); errCreate == nil {
		t.Fatalf("expected unknown role to fail")
	}
	if _, errCreate := s.CreateAdmin(ctx, CreateAdminParams{
		Username: "root", Email: "root@x.com", Password: "weak",
	}); errCreate == nil {
		t.Fatalf("expected weak password to fail")
	}
	view, errCreate := s.CreateAdmin(ctx, CreateAdminParams{
		Username: "root", Email: "Root@X.com", Password: "Secret1!", Role: "super-admin",
	})
	if errCreate != nil {
		t.Fatalf("create super-admin: %v", errCreate)
	}
	if view.Role != "super-admin" || view.Email != "root@x.com" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if _, errCreate = s.CreateAdmin(ctx, CreateAdminParams{
		Username: "root", Email: "root@x.com", Password: "Secret1!",
	}); errCreate == nil {
		t.Fatalf("expected duplicate admin to fail")
	}
}

func TestIsAPIRoute(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"/api":          true,
		"/api/projects": true,
		"/apiary":       false,
		"/uploads/a":    false,
	}
	for path, want := range cases {
		if got := isAPIRoute(path); got != want {
			t.Fatalf("isAPIRoute(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestOpenRedisAndRedisBackedLimits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	if client, errOpen := openRedis(ctx, " "); errOpen != nil || client != nil {
		t.Fatalf("empty url: expected nil client, got %v %v", client, errOpen)
	}
	if _, errOpen := openRedis(ctx, "mysql://nope"); errOpen == nil {
		t.Fatalf("expected error for non-redis url")
	}

	mr := miniredis.RunT(t)
	client, errOpen := openRedis(ctx, "redis://"+mr.Addr()+"/0")
	if errOpen != nil {
		t.Fatalf("open redis: %v", errOpen)
	}
	defer func() { _ = client.Close() }()

	dsn := fmt.Sprintf("file:app_redis_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errDB := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errDB != nil {
		t.Fatalf("open db: %v", errDB)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	cfg := config.Default()
	cfg.JWT.Secret = "test-secret"
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.Auth.AllowRegistration = true
	cfg.RateLimit.RegisterMax = 1
	cfg.Uploads.Dir = t.TempDir()
	s, errNew := New(&cfg, conn, client)
	if errNew != nil {
		t.Fatalf("new server: %v", errNew)
	}
	if len(s.memories) != 0 {
		t.Fatalf("expected redis limiters, got %d memory limiters", len(s.memories))
	}

	body := gin.H{"username": "zed", "email": "zed@x.com", "password": "Secret1!"}
	if rec := doJSON(t, s, http.MethodPost, "/api/auth/register", body, ""); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec := doJSON(t, s, http.MethodPost, "/api/auth/register", body, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second register: expected 429, got %d", rec.Code)
	}
	if msg := decodeMap(t, rec)["error"]; msg != "Too many registration attempts, please try again later" {
		t.Fatalf("unexpected 429 message %v", msg)
	}
	if keys := mr.Keys(); len(keys) != 1 || !strings.HasPrefix(keys[0], "estatehub:ratelimit:register:") {
		t.Fatalf("unexpected redis keys %v", keys)
	}
}
