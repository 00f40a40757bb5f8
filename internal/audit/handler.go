package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tokobase/tokobase/internal/platform/httpx"
	"github.com/tokobase/tokobase/internal/rbac"
	"github.com/tokobase/tokobase/internal/shared"
)

const defaultListLimit = 100

// Handler exposes the audit trail, read-only, behind view_audit.
type Handler struct {
	logger *slog.Logger
	repo   RepositoryPort
	guard  rbac.Guard
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, repo RepositoryPort, guard rbac.Guard) *Handler {
	return &Handler{logger: logger, repo: repo, guard: guard}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ActionViewAudit))
		r.Get("/", h.listEntries)
	})
}

type entryResponse struct {
	ID         int64          `json:"id"`
	ActorID    int64          `json:"actor_id"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}
	entries, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list audit entries", slog.Any("error", err))
		httpx.RespondError(w, shared.WrapStorage("list audit entries", err))
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entryResponse{
			ID:         entry.ID,
			ActorID:    entry.ActorID,
			Action:     entry.Action,
			Entity:     entry.Entity,
			EntityID:   entry.EntityID,
			Meta:       entry.Meta,
			OccurredAt: entry.OccurredAt,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}
