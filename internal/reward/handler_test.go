// AngelaMos | 2026
// handler_test.go

package reward

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelamos/blux-portal/internal/user"
)

func newTestRouter(t *testing.T) (chi.Router, user.Repository) {
	t.Helper()

	svc, repo := newTestService(t)
	router := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(router)
	return router, repo
}

func postJSON(
	t *testing.T,
	router chi.Router,
	path string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	r := httptest.NewRequest(http.MethodPost, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestGenerateCodeEndpoint(t *testing.T) {
	router, repo := newTestRouter(t)
	seedUser(t, repo, &user.User{Username: "alice", TokenCount: 10})

	w := postJSON(t, router, "/users/alice/token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Success bool                 `json:"success"`
		Data    GenerateCodeResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !codePattern.MatchString(envelope.Data.Token) {
		t.Errorf("token = %q, want redemption code format", envelope.Data.Token)
	}
	if envelope.Data.RemainingTokens != 0 {
		t.Errorf("remaining_tokens = %d, want 0", envelope.Data.RemainingTokens)
	}
}

func TestGenerateCodeEndpointInsufficientTokens(t *testing.T) {
	router, repo := newTestRouter(t)
	seedUser(t, repo, &user.User{Username: "bob", TokenCount: 3})

	w := postJSON(t, router, "/users/bob/token", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string         `json:"code"`
			Details map[string]int `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != "INSUFFICIENT_TOKENS" {
		t.Errorf("error code = %q, want INSUFFICIENT_TOKENS", envelope.Error.Code)
	}
	if envelope.Error.Details["tokens_needed"] != 7 {
		t.Errorf("tokens_needed = %d, want 7", envelope.Error.Details["tokens_needed"])
	}
}

func TestGenerateCodeEndpointUnknownUser(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(t, router, "/users/ghost/token", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestVerifyCodeEndpoint(t *testing.T) {
	router, repo := newTestRouter(t)
	code := "BLUX-AAAA-BBBB-CCCC"
	seedUser(t, repo, &user.User{
		Username:       "alice",
		RedemptionCode: &code,
	})

	w := postJSON(t, router, "/verify-token", map[string]string{
		"username": "alice",
		"token":    code,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Success bool               `json:"success"`
		Data    VerifyCodeResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Redeemed || envelope.Data.Username != "alice" {
		t.Errorf("data = %+v", envelope.Data)
	}

	// A second submission of the same code is refused.
	w = postJSON(t, router, "/verify-token", map[string]string{
		"username": "alice",
		"token":    code,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("replay status = %d, want 400", w.Code)
	}
}

func TestVerifyCodeEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(t, router, "/verify-token", map[string]string{
		"username": "alice",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing token status = %d, want 400", w.Code)
	}
}
