package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/matching"
	"github.com/sayu/sayu-backend/internal/middleware"
	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/response"
	"github.com/sayu/sayu-backend/internal/service"
	"github.com/sayu/sayu-backend/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

// withUser stands in for the JWT middleware.
func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{UserID: userID})
		c.Next()
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		deps       map[string]Pinger
		wantStatus int
		wantCode   response.ErrCode
	}{
		{"all up", map[string]Pinger{"postgres": up, "redis": up}, http.StatusOK, ""},
		{"redis down", map[string]Pinger{"postgres": up, "redis": down}, http.StatusServiceUnavailable, response.ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &SystemHandler{deps: tt.deps, log: zerolog.Nop()}
			r := gin.New()
			r.GET("/health", h.Health)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			env := decode(t, w)
			if tt.wantCode == "" {
				if env.Error != nil {
					t.Errorf("unexpected error %+v", env.Error)
				}
				return
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestCompatibilityEndpoint(t *testing.T) {
	matrix, err := matching.DefaultMatrix()
	if err != nil {
		t.Fatal(err)
	}
	svc := service.NewMatchService(matching.NewEngine(matrix, nil, 0), nil, nil, nil, nil, 0, zerolog.Nop())
	h := NewMatchHandler(svc, zerolog.Nop())

	r := gin.New()
	r.GET("/api/v1/compatibility/:host/:candidate", h.Compatibility)

	tests := []struct {
		path       string
		wantStatus int
		wantScore  int
		wantCode   response.ErrCode
	}{
		{"/api/v1/compatibility/LAEF/SREF", http.StatusOK, 85, ""},
		{"/api/v1/compatibility/laef/laef", http.StatusOK, 90, ""},
		{"/api/v1/compatibility/LAEF/QQQQ", http.StatusBadRequest, 0, response.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			env := decode(t, w)
			if tt.wantCode != "" {
				if env.Error == nil || env.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want %s", env.Error, tt.wantCode)
				}
				return
			}
			var data struct {
				Compatibility model.CompatibilityResult `json:"compatibility"`
			}
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatal(err)
			}
			if data.Compatibility.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", data.Compatibility.Score, tt.wantScore)
			}
		})
	}
}

type stubProfiles map[string]*model.PersonalityProfile

func (s stubProfiles) Get(_ context.Context, userID string) (*model.PersonalityProfile, error) {
	if p, ok := s[userID]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("profile", userID)
}

func TestGetProfile(t *testing.T) {
	profiles := stubProfiles{"u1": {UserID: "u1", TypeCode: "SREC", Confidence: 0.625, UpdatedAt: time.Now()}}
	h := NewProfileHandler(service.NewProfileService(profiles), nil, zerolog.Nop())

	tests := []struct {
		user       string
		wantStatus int
		wantCode   response.ErrCode
	}{
		{"u1", http.StatusOK, ""},
		{"u2", http.StatusNotFound, response.ErrNoProfile},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			r := gin.New()
			r.GET("/api/v1/profile", withUser(tt.user), h.GetProfile)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			env := decode(t, w)
			if tt.wantCode != "" && (env.Error == nil || env.Error.Code != tt.wantCode) {
				t.Errorf("error = %+v, want %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestRecommendationQueryValidation(t *testing.T) {
	h := NewProfileHandler(nil, nil, zerolog.Nop())
	r := gin.New()
	r.GET("/api/v1/recommendations", withUser("u1"), h.GetRecommendations)

	for _, q := range []string{"?kind=sculpture", "?limit=0", "?limit=500"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations"+q, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, w.Code)
		}
	}
}

func TestBuildUpgraderOrigins(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"allow all in dev", nil, "https://evil.example", true},
		{"listed origin", []string{"https://sayu.app"}, "https://SAYU.app", true},
		{"unlisted origin", []string{"https://sayu.app"}, "https://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := buildUpgrader(tt.allowed)
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			req.Header.Set("Origin", tt.origin)
			if got := up.CheckOrigin(req); got != tt.want {
				t.Errorf("CheckOrigin = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{90 * time.Second, "1m 30s"},
		{3*time.Hour + 5*time.Minute, "3h 5m 0s"},
		{50 * time.Hour, "2d 2h 0m 0s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
