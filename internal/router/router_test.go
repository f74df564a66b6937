package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"facetimer/backend/internal/clock"
	"facetimer/backend/internal/handler"
	"facetimer/backend/internal/repository"
	"facetimer/backend/internal/router"
	"facetimer/backend/internal/service"
	"facetimer/backend/internal/testutil"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type timerBody struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	InitialSeconds   int    `json:"initialSeconds"`
	RemainingSeconds int    `json:"remainingSeconds"`
	Status           string `json:"status"`
	ResetCount       int    `json:"resetCount"`
}

type timerEnvelope struct {
	Timer timerBody `json:"timer"`
}

type stateEnvelope struct {
	State struct {
		Timer   timerBody `json:"timer"`
		Urgency struct {
			Level               string  `json:"level"`
			Expression          string  `json:"expression"`
			Hex                 string  `json:"hex"`
			RemainingPercentage float64 `json:"remainingPercentage"`
		} `json:"urgency"`
	} `json:"state"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Timer timerBody `json:"timer"`
		} `json:"details"`
	} `json:"error"`
}

func TestTimerLifecycle(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "user1@example.com", "123456")

	created := createTimer(t, engine, user.Token, map[string]interface{}{"name": "Plank", "durationSeconds": 10})
	if created.Status != "active" || created.RemainingSeconds != 10 || created.Name != "Plank" {
		t.Fatalf("unexpected created timer %+v", created)
	}
	base := "/api/timers/" + created.ID

	ticked := timerAction(t, engine, user.Token, base+"/tick", map[string]int{"deltaSeconds": 6}, http.StatusOK)
	if ticked.RemainingSeconds != 4 {
		t.Fatalf("expected 4 remaining, got %d", ticked.RemainingSeconds)
	}

	state := getState(t, engine, user.Token, created.ID)
	if state.State.Urgency.Level != "medium" || state.State.Urgency.Expression != "concerned" {
		t.Fatalf("unexpected urgency %+v", state.State.Urgency)
	}

	paused := timerAction(t, engine, user.Token, base+"/pause", nil, http.StatusOK)
	if paused.Status != "paused" {
		t.Fatalf("expected paused, got %s", paused.Status)
	}

	// Ticking a paused timer changes nothing.
	still := timerAction(t, engine, user.Token, base+"/tick", map[string]int{"deltaSeconds": 100}, http.StatusOK)
	if still.RemainingSeconds != 4 || still.Status != "paused" {
		t.Fatalf("paused timer changed on tick: %+v", still)
	}

	status, raw := requestJSON(t, engine, http.MethodPost, base+"/pause", user.Token, nil)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on double pause, got %d", status)
	}
	conflict := decodeError(t, raw)
	if conflict.Error.Code != "invalid_transition" || conflict.Error.Details.Timer.Status != "paused" {
		t.Fatalf("unexpected conflict %+v", conflict.Error)
	}

	timerAction(t, engine, user.Token, base+"/resume", nil, http.StatusOK)
	reset := timerAction(t, engine, user.Token, base+"/reset", nil, http.StatusOK)
	if reset.RemainingSeconds != 10 || reset.ResetCount != 1 || reset.Status != "active" {
		t.Fatalf("unexpected reset timer %+v", reset)
	}

	// Empty body ticks by one second.
	one := timerAction(t, engine, user.Token, base+"/tick", nil, http.StatusOK)
	if one.RemainingSeconds != 9 {
		t.Fatalf("expected default tick of 1, got %d remaining", one.RemainingSeconds)
	}

	expired := timerAction(t, engine, user.Token, base+"/tick", map[string]int{"deltaSeconds": 9}, http.StatusOK)
	if expired.Status != "expired" || expired.RemainingSeconds != 0 {
		t.Fatalf("expected expired, got %+v", expired)
	}

	status, raw = requestJSON(t, engine, http.MethodPost, base+"/reset", user.Token, nil)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 resetting expired timer, got %d", status)
	}
	if code := decodeError(t, raw).Error.Code; code != "cannot_reset_expired" {
		t.Fatalf("expected cannot_reset_expired, got %s", code)
	}

	status, raw = requestJSON(t, engine, http.MethodGet, base+"/events?limit=2", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for events, got %d", status)
	}
	var events struct {
		Events []struct {
			Type         string `json:"type"`
			UrgencyLevel string `json:"urgencyLevel"`
		} `json:"events"`
	}
	if err := json.Unmarshal(raw, &events); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(events.Events) != 2 || events.Events[0].Type != "expired" || events.Events[1].Type != "reset" {
		t.Fatalf("unexpected events %+v", events.Events)
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, base, user.Token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", status)
	}
	for _, path := range []string{base, base + "/state"} {
		status, raw = requestJSON(t, engine, http.MethodGet, path, user.Token, nil)
		if status != http.StatusNotFound || decodeError(t, raw).Error.Code != "timer_not_found" {
			t.Fatalf("GET %s after delete: expected timer_not_found, got %d %s", path, status, raw)
		}
	}
	status, _ = requestJSON(t, engine, http.MethodPost, base+"/tick", user.Token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 ticking deleted timer, got %d", status)
	}
}

func TestTimersAreScopedToOwner(t *testing.T) {
	engine := setupTestEngine(t)
	owner := registerUser(t, engine, "owner@example.com", "123456")
	other := registerUser(t, engine, "other@example.com", "123456")

	created := createTimer(t, engine, owner.Token, map[string]int{"durationSeconds": 30})
	base := "/api/timers/" + created.ID

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, base},
		{http.MethodGet, base + "/state"},
		{http.MethodGet, base + "/events"},
		{http.MethodPost, base + "/tick"},
		{http.MethodPost, base + "/pause"},
		{http.MethodPost, base + "/reset"},
		{http.MethodDelete, base},
	} {
		status, raw := requestJSON(t, engine, tc.method, tc.path, other.Token, nil)
		if status != http.StatusNotFound || decodeError(t, raw).Error.Code != "timer_not_found" {
			t.Fatalf("%s %s by another user: expected timer_not_found, got %d %s", tc.method, tc.path, status, raw)
		}
	}

	status, raw := requestJSON(t, engine, http.MethodGet, "/api/timers", other.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 listing timers, got %d", status)
	}
	var list struct {
		Timers []timerBody `json:"timers"`
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(list.Timers) != 0 {
		t.Fatalf("expected other user to see no timers, got %d", len(list.Timers))
	}

	still := getState(t, engine, owner.Token, created.ID)
	if still.State.Timer.RemainingSeconds != 30 || still.State.Timer.Status != "active" {
		t.Fatalf("other user's requests changed the timer: %+v", still.State.Timer)
	}
}

func TestCreateTimerValidation(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "user1@example.com", "123456")

	defaulted := createTimer(t, engine, user.Token, nil)
	if defaulted.InitialSeconds != 60 || defaulted.Name != "Timer" {
		t.Fatalf("expected 60s default timer, got %+v", defaulted)
	}

	for _, seconds := range []int{0, -1, 3601} {
		status, raw := requestJSON(t, engine, http.MethodPost, "/api/timers", user.Token, map[string]int{"durationSeconds": seconds})
		if status != http.StatusBadRequest || decodeError(t, raw).Error.Code != "invalid_duration" {
			t.Fatalf("duration %d: expected invalid_duration, got %d %s", seconds, status, raw)
		}
	}

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/timers", user.Token, "not an object")
	if status != http.StatusBadRequest || decodeError(t, raw).Error.Code != "invalid_json" {
		t.Fatalf("expected invalid_json, got %d %s", status, raw)
	}

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/timers", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 listing timers, got %d", status)
	}
	var list struct {
		Timers []timerBody `json:"timers"`
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(list.Timers) != 1 {
		t.Fatalf("expected only the defaulted timer stored, got %d", len(list.Timers))
	}
}

func TestNegativeTickRejected(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "user1@example.com", "123456")
	created := createTimer(t, engine, user.Token, map[string]int{"durationSeconds": 30})

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/timers/"+created.ID+"/tick", user.Token, map[string]int{"deltaSeconds": -5})
	if status != http.StatusBadRequest || decodeError(t, raw).Error.Code != "invalid_delta" {
		t.Fatalf("expected invalid_delta, got %d %s", status, raw)
	}
}

func TestTimersRequireAuth(t *testing.T) {
	engine := setupTestEngine(t)
	status, _ := requestJSON(t, engine, http.MethodGet, "/api/timers", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
}

func TestUrgencyEndpoint(t *testing.T) {
	engine := setupTestEngine(t)

	tests := []struct {
		query string
		level string
		hex   string
	}{
		{"remaining=51&initial=100", "low", "#00ff00"},
		{"remaining=50&initial=100", "medium", "#ffff00"},
		{"remaining=25&initial=100", "high", "#ffa500"},
		{"remaining=10&initial=100", "critical", "#ff0000"},
		{"remaining=5&initial=0", "critical", "#ff0000"},
	}
	for _, tt := range tests {
		status, raw := requestJSON(t, engine, http.MethodGet, "/api/urgency?"+tt.query, "", nil)
		if status != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tt.query, status)
		}
		var resp struct {
			Urgency struct {
				Level string `json:"level"`
				Hex   string `json:"hex"`
			} `json:"urgency"`
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			t.Fatalf("unmarshal urgency: %v", err)
		}
		if resp.Urgency.Level != tt.level || resp.Urgency.Hex != tt.hex {
			t.Fatalf("%s: expected %s %s, got %+v", tt.query, tt.level, tt.hex, resp.Urgency)
		}
	}

	status, raw := requestJSON(t, engine, http.MethodGet, "/api/urgency?remaining=x&initial=10", "", nil)
	if status != http.StatusBadRequest || decodeError(t, raw).Error.Code != "invalid_query" {
		t.Fatalf("expected invalid_query, got %d %s", status, raw)
	}

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/urgency/levels/HIGH", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for level lookup, got %d", status)
	}
	var level struct {
		Level struct {
			Level      string `json:"level"`
			Expression string `json:"expression"`
		} `json:"level"`
	}
	if err := json.Unmarshal(raw, &level); err != nil {
		t.Fatalf("unmarshal level: %v", err)
	}
	if level.Level.Level != "high" || level.Level.Expression != "stressed" {
		t.Fatalf("unexpected level %+v", level.Level)
	}

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/urgency/levels/panic", "", nil)
	if status != http.StatusBadRequest || decodeError(t, raw).Error.Code != "invalid_level" {
		t.Fatalf("expected invalid_level, got %d %s", status, raw)
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/timers/abc", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestHealth(t *testing.T) {
	engine := setupTestEngine(t)
	status, raw := requestJSON(t, engine, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK || !bytes.Contains(raw, []byte(`"ok"`)) {
		t.Fatalf("unexpected health response %d %s", status, raw)
	}
}

func setupTestEngine(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := testutil.OpenTestDB(t)
	logger := testutil.DiscardLogger()

	authService := service.NewAuthService(repository.NewUserRepository(database), clock.System{}, "test-secret", 24*time.Hour)
	timerService := service.NewTimerService(
		repository.NewTimerRepository(database),
		clock.System{},
		service.Limits{MaxDurationSeconds: 3600},
		logger,
	)

	return router.New(
		authService,
		handler.NewAuthHandler(authService),
		handler.NewTimerHandler(timerService, 60),
		handler.NewUrgencyHandler(),
		router.Options{
			CORSOrigins: []string{"http://localhost:5173"},
			Logger:      logger,
		},
	)
}

func registerUser(t *testing.T, server http.Handler, email, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func createTimer(t *testing.T, server http.Handler, token string, body interface{}) timerBody {
	t.Helper()
	status, raw := requestJSON(t, server, http.MethodPost, "/api/timers", token, body)
	if status != http.StatusCreated {
		t.Fatalf("create timer failed with status %d: %s", status, string(raw))
	}
	var resp timerEnvelope
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal timer response: %v", err)
	}
	return resp.Timer
}

func timerAction(t *testing.T, server http.Handler, token, path string, body interface{}, want int) timerBody {
	t.Helper()
	status, raw := requestJSON(t, server, http.MethodPost, path, token, body)
	if status != want {
		t.Fatalf("POST %s: expected %d, got %d: %s", path, want, status, string(raw))
	}
	var resp timerEnvelope
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal timer response: %v", err)
	}
	return resp.Timer
}

func getState(t *testing.T, server http.Handler, token, id string) stateEnvelope {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodGet, "/api/timers/"+id+"/state", token, nil)
	if status != http.StatusOK {
		t.Fatalf("get state failed with status %d: %s", status, string(body))
	}
	var stateResp stateEnvelope
	if err := json.Unmarshal(body, &stateResp); err != nil {
		t.Fatalf("unmarshal state response: %v", err)
	}
	return stateResp
}

func decodeError(t *testing.T, raw []byte) apiErrorEnvelope {
	t.Helper()
	var resp apiErrorEnvelope
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal error response %s: %v", string(raw), err)
	}
	return resp
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
