// AngelaMos | 2026
// handler_test.go

package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelamos/blux-portal/internal/quest"
)

func newTestRouter(t *testing.T, plat *stubPlatform) (chi.Router, Repository) {
	t.Helper()

	repo := NewMemoryRepository()
	svc := NewService(
		repo,
		plat,
		quest.Engine{AdsRequired: 15, DailyLimit: 5},
		NewLocker(),
		30*24*time.Hour,
	)

	router := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(router)
	return router, repo
}

func doJSON(
	t *testing.T,
	router chi.Router,
	method, path string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("success = false, body: %v", envelope)
	}
	return envelope.Data
}

func TestRegisterEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubPlatform{valid: true})

	w := doJSON(t, router, http.MethodPost, "/users", map[string]string{
		"username": "alice",
		"password": "correct-horse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", w.Code, w.Body.String())
	}

	data := decodeData(t, w)
	if data["username"] != "alice" || data["role"] != "user" {
		t.Errorf("data = %v", data)
	}
	if _, leaked := data["password_hash"]; leaked {
		t.Error("password hash leaked in response")
	}

	// Same username again conflicts.
	w = doJSON(t, router, http.MethodPost, "/users", map[string]string{
		"username": "alice",
		"password": "correct-horse",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}
}

func TestRegisterEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(t, &stubPlatform{valid: true})

	tests := []struct {
		name string
		body map[string]string
	}{
		{"short username", map[string]string{"username": "al", "password": "correct-horse"}},
		{"short password", map[string]string{"username": "alice", "password": "short"}},
		{"non-alphanumeric username", map[string]string{"username": "al ice!", "password": "correct-horse"}},
		{"missing fields", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/users", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestRegisterEndpointUnknownIdentity(t *testing.T) {
	router, _ := newTestRouter(t, &stubPlatform{valid: false})

	w := doJSON(t, router, http.MethodPost, "/users", map[string]string{
		"username": "nobody",
		"password": "correct-horse",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubPlatform{valid: true})

	w := doJSON(t, router, http.MethodPost, "/users", map[string]string{
		"username": "alice",
		"password": "correct-horse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/users/login", map[string]string{
		"username": "alice",
		"password": "correct-horse",
	})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/users/login", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", w.Code)
	}
}

func TestProgressEndpointAwardsToken(t *testing.T) {
	router, _ := newTestRouter(t, &stubPlatform{valid: true})

	w := doJSON(t, router, http.MethodPost, "/users", map[string]string{
		"username": "alice",
		"password": "correct-horse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPatch, "/users/alice", map[string]any{
		"game_completed": true,
		"ads_watched":    15,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	data := decodeData(t, w)
	if data["token_count"].(float64) != 1 {
		t.Errorf("token_count = %v, want 1", data["token_count"])
	}
	if data["daily_quest_count"].(float64) != 1 {
		t.Errorf("daily_quest_count = %v, want 1", data["daily_quest_count"])
	}
}

func TestProgressEndpointUnknownUser(t *testing.T) {
	router, _ := newTestRouter(t, &stubPlatform{valid: true})

	w := doJSON(t, router, http.MethodPatch, "/users/ghost", map[string]any{
		"ads_watched": 3,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRestartEndpointAtDailyCap(t *testing.T) {
	router, repo := newTestRouter(t, &stubPlatform{valid: true})

	w := doJSON(t, router, http.MethodPost, "/users", map[string]string{
		"username": "alice",
		"password": "correct-horse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}

	ctx := context.Background()
	now := time.Now()
	stored, _ := repo.GetByUsername(ctx, "alice")
	stored.DailyQuestCount = 5
	stored.LastQuestCompletedAt = &now
	if err := repo.Update(ctx, stored); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	w = doJSON(t, router, http.MethodPost, "/users/alice/quest/restart", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429, body: %s", w.Code, w.Body.String())
	}
}
