package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tokobase/tokobase/internal/observability"
	"github.com/tokobase/tokobase/internal/platform/httpx"
	"github.com/tokobase/tokobase/internal/session"
	"github.com/tokobase/tokobase/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	sessions  *session.Manager
	csrf      *shared.CSRFManager
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *session.Manager, csrf *shared.CSRFManager, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		sessions:  sessions,
		csrf:      csrf,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CSRFToken string `json:"csrf_token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", httpx.LoginFailedDetail)
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrAccountInactive):
			// Same user-facing message as a bad password; only logs differ.
			h.logger.Info("login rejected", slog.String("reason", "inactive"))
			h.metrics.ObserveLogin("inactive")
			httpx.RespondError(w, err)
		case errors.Is(err, shared.ErrInvalidCredentials):
			h.logger.Info("login rejected", slog.String("reason", "invalid"))
			h.metrics.ObserveLogin("invalid")
			httpx.RespondError(w, err)
		default:
			h.logger.Error("login", slog.Any("error", err))
			h.metrics.ObserveLogin("error")
			httpx.RespondError(w, err)
		}
		return
	}

	h.metrics.ObserveLogin("success")
	h.sessions.WriteCookie(w, token)
	httpx.JSON(w, http.StatusOK, loginResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CSRFToken: h.csrf.TokenFor(token),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := h.sessions.TokenFromRequest(r)
	var actorID int64
	if sess := session.FromContext(r.Context()); sess != nil {
		actorID = sess.UserID
	}
	if err := h.service.Logout(r.Context(), token, actorID); err != nil {
		h.logger.Warn("logout", slog.Any("error", err))
	}
	h.sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, shared.ErrSessionInvalid)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":    sess.UserID,
		"csrf_token": h.csrf.TokenFor(sess.Token),
	})
}
