package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"facetimer/backend/internal/clock"
	"facetimer/backend/internal/repository"
	"facetimer/backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(handlers...)
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserID(c)})
	})
	return engine
}

func serve(engine http.Handler, req *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestRateLimitPerClient(t *testing.T) {
	engine := newEngine(RateLimit(1, 2))

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(engine, req).Code
	}

	for i := 0; i < 2; i++ {
		if code := request("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	if code := request("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if code := request("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other client should not be limited, got %d", code)
	}
}

func TestRateLimitBody(t *testing.T) {
	engine := newEngine(RateLimit(1, 1))
	serve(engine, httptest.NewRequest(http.MethodGet, "/ping", nil))
	recorder := serve(engine, httptest.NewRequest(http.MethodGet, "/ping", nil))

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Error.Code != "rate_limited" {
		t.Fatalf("expected rate_limited, got %q", body.Error.Code)
	}
	if recorder.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimitDisabled(t *testing.T) {
	engine := newEngine(RateLimit(0, 0))
	for i := 0; i < 50; i++ {
		if code := serve(engine, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code; code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		origin     string
		wantOrigin string
	}{
		{"listed origin", []string{"http://localhost:5173"}, "http://localhost:5173", "http://localhost:5173"},
		{"unlisted origin", []string{"http://localhost:5173"}, "http://evil.test", ""},
		{"wildcard", []string{"*"}, "http://anywhere.test", "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newEngine(CORS(tt.allowed))
			req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
			req.Header.Set("Origin", tt.origin)
			recorder := serve(engine, req)

			if recorder.Code != http.StatusNoContent {
				t.Fatalf("expected 204, got %d", recorder.Code)
			}
			if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("expected allow-origin %q, got %q", tt.wantOrigin, got)
			}
			if !strings.Contains(recorder.Header().Get("Access-Control-Allow-Methods"), "DELETE") {
				t.Fatal("expected DELETE in allowed methods")
			}
		})
	}
}

func TestAuth(t *testing.T) {
	authService := service.NewAuthService(repository.NewMemoryUserRepository(), clock.System{}, "secret", time.Hour)
	result, apiErr := authService.Register(t.Context(), "a@example.com", "123456")
	if apiErr != nil {
		t.Fatalf("register: %v", apiErr)
	}
	engine := newEngine(Auth(authService))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + result.Token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			recorder := serve(engine, req)
			if recorder.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, recorder.Code, recorder.Body.String())
			}
			if tt.status == http.StatusOK && !strings.Contains(recorder.Body.String(), result.User.ID) {
				t.Fatalf("expected user id in body, got %s", recorder.Body.String())
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	engine := newEngine(RequestLogger(logger))

	serve(engine, httptest.NewRequest(http.MethodGet, "/ping", nil))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "request" || entry["path"] != "/ping" || entry["method"] != "GET" {
		t.Fatalf("unexpected log entry %v", entry)
	}
	if status, ok := entry["status"].(float64); !ok || int(status) != http.StatusOK {
		t.Fatalf("expected status 200, got %v", entry["status"])
	}
}
