// AngelaMos | 2026
// handler.go

package reward

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/angelamos/blux-portal/internal/core"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/users/{username}/token", h.GenerateCode)
	r.Post("/verify-token", h.VerifyCode)
}

type GenerateCodeResponse struct {
	Token           string `json:"token"`
	RemainingTokens int    `json:"remaining_tokens"`
}

type VerifyCodeRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20"`
	Token    string `json:"token"    validate:"required"`
}

type VerifyCodeResponse struct {
	Username string `json:"username"`
	Redeemed bool   `json:"redeemed"`
}

func (h *Handler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	redemption, err := h.service.GenerateCode(r.Context(), username)
	if err != nil {
		var insufficient *InsufficientTokensError
		switch {
		case errors.As(err, &insufficient):
			core.JSONError(w, core.NewAppError(
				http.StatusBadRequest,
				"INSUFFICIENT_TOKENS",
				insufficient.Error(),
			).WithDetails(map[string]int{
				"tokens_needed": insufficient.Needed,
			}))
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "user")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, GenerateCodeResponse{
		Token:           redemption.Code,
		RemainingTokens: redemption.RemainingTokens,
	})
}

func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.Verify(r.Context(), req.Username, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "user")
		case errors.Is(err, core.ErrCodeInvalid):
			core.BadRequest(w, "invalid or already redeemed code")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, VerifyCodeResponse{
		Username: u.Username,
		Redeemed: true,
	})
}
