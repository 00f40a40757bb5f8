package shops

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tokobase/tokobase/internal/platform/httpx"
	"github.com/tokobase/tokobase/internal/rbac"
	"github.com/tokobase/tokobase/internal/shared"
)

// Handler exposes shop endpoints. Reads require view_shops, writes require
// manage_shops.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     rbac.Guard
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers shop routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ActionViewShops))
		r.Get("/", h.listShops)
		r.Get("/{shopID}", h.getShop)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ActionManageShops))
		r.Post("/", h.createShop)
		r.Put("/{shopID}", h.updateShop)
	})
}

type shopResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
}

type createShopRequest struct {
	Name    string `json:"name" validate:"required,max=128"`
	Address string `json:"address" validate:"max=255"`
}

type updateShopRequest struct {
	Name     string `json:"name" validate:"required,max=128"`
	Address  string `json:"address" validate:"max=255"`
	IsActive bool   `json:"is_active"`
}

func toShopResponse(shop Shop) shopResponse {
	return shopResponse{ID: shop.ID, Name: shop.Name, Address: shop.Address, IsActive: shop.IsActive, UpdatedAt: shop.UpdatedAt}
}

func (h *Handler) listShops(w http.ResponseWriter, r *http.Request) {
	shops, err := h.service.ListShops(r.Context())
	if err != nil {
		h.logger.Error("list shops", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]shopResponse, 0, len(shops))
	for _, shop := range shops {
		out = append(out, toShopResponse(shop))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getShop(w http.ResponseWriter, r *http.Request) {
	shopID, err := strconv.ParseInt(chi.URLParam(r, "shopID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid shop id")
		return
	}
	shop, err := h.service.GetShop(r.Context(), shopID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toShopResponse(shop))
}

func (h *Handler) createShop(w http.ResponseWriter, r *http.Request) {
	var req createShopRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	shop, err := h.service.CreateShop(r.Context(), req.Name, req.Address)
	if err != nil {
		if shared.IsStorageError(err) {
			h.logger.Error("create shop", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, toShopResponse(shop))
}

func (h *Handler) updateShop(w http.ResponseWriter, r *http.Request) {
	shopID, err := strconv.ParseInt(chi.URLParam(r, "shopID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid shop id")
		return
	}
	var req updateShopRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	shop, err := h.service.UpdateShop(r.Context(), shopID, req.Name, req.Address, req.IsActive)
	if err != nil {
		if shared.IsStorageError(err) || errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, err)
			return
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, toShopResponse(shop))
}
