package sales

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
	"github.com/tokobase/tokobase/internal/session"
	"github.com/tokobase/tokobase/internal/shared"
)

// Handler exposes sale record endpoints. Reads require view_sales, writes
// require edit_sales.
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

// MountRoutes registers sale record routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ActionViewSales))
		r.Get("/shops/{shopID}", h.listByShop)
		r.Get("/{saleID}", h.getSale)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.ActionEditSales))
		r.Post("/shops/{shopID}", h.createSale)
		r.Put("/{saleID}", h.updateSale)
		r.Delete("/{saleID}", h.deleteSale)
	})
}

type saleResponse struct {
	ID     int64     `json:"id"`
	ShopID int64     `json:"shop_id"`
	UserID int64     `json:"user_id"`
	Amount float64   `json:"amount"`
	SoldAt time.Time `json:"sold_at"`
	Note   string    `json:"note"`
}

type saleRequest struct {
	Amount float64   `json:"amount" validate:"required,gt=0"`
	SoldAt time.Time `json:"sold_at"`
	Note   string    `json:"note" validate:"max=255"`
}

func toSaleResponse(rec SaleRecord) saleResponse {
	return saleResponse{ID: rec.ID, ShopID: rec.ShopID, UserID: rec.UserID, Amount: rec.Amount, SoldAt: rec.SoldAt, Note: rec.Note}
}

func (h *Handler) listByShop(w http.ResponseWriter, r *http.Request) {
	shopID, err := strconv.ParseInt(chi.URLParam(r, "shopID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid shop id")
		return
	}
	recs, err := h.service.ListByShop(r.Context(), shopID)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]saleResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toSaleResponse(rec))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid sale id")
		return
	}
	rec, err := h.service.Get(r.Context(), saleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSaleResponse(rec))
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	shopID, err := strconv.ParseInt(chi.URLParam(r, "shopID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid shop id")
		return
	}
	var req saleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var actorID int64
	if sess := session.FromContext(r.Context()); sess != nil {
		actorID = sess.UserID
	}
	rec, err := h.service.Create(r.Context(), actorID, shopID, req.Amount, req.SoldAt, req.Note)
	if err != nil {
		h.respondServiceError(w, "create sale", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toSaleResponse(rec))
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid sale id")
		return
	}
	var req saleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rec, err := h.service.Update(r.Context(), saleID, req.Amount, req.SoldAt, req.Note)
	if err != nil {
		h.respondServiceError(w, "update sale", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSaleResponse(rec))
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid sale id")
		return
	}
	if err := h.service.Delete(r.Context(), saleID); err != nil {
		h.respondServiceError(w, "delete sale", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, err)
	case shared.IsStorageError(err):
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	}
}
