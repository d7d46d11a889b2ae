package products

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ekahanny/souvenir-tracking-be/internal/platform/httpx"
)

// Handler wires HTTP endpoints for product master data.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers product routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.list)
	r.Post("/products", h.create)
	r.Get("/products/{id}", h.get)
	r.Put("/products/{id}", h.update)
	r.Delete("/products/{id}", h.remove)
}

type createProductRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=150"`
	CategoryID *int64 `json:"category_id" validate:"omitempty,gt=0"`
	Unit       string `json:"unit" validate:"omitempty,max=10"`
}

type updateProductRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=150"`
	CategoryID *int64  `json:"category_id" validate:"omitempty,gt=0"`
	Unit       *string `json:"unit"`
}

type productResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID *int64 `json:"category_id,omitempty"`
	Unit       string `json:"unit"`
	UnitLabel  string `json:"unit_label"`
	Stock      int64  `json:"stock"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Search: r.URL.Query().Get("search")}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "category_id must be an integer")
			return
		}
		filter.CategoryID = &id
	}

	products, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	result := make([]productResponse, 0, len(products))
	for _, product := range products {
		result = append(result, toProductResponse(product))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": result})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProductResponse(product))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	product, err := h.service.Create(r.Context(), CreateInput{
		Name:       req.Name,
		CategoryID: req.CategoryID,
		Unit:       req.Unit,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req updateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	product, err := h.service.Update(r.Context(), id, UpdateInput{
		Name:       req.Name,
		CategoryID: req.CategoryID,
		Unit:       req.Unit,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProductResponse(product))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
	case errors.Is(err, ErrDuplicateName):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "product name already exists")
	case errors.Is(err, ErrInvalidUnit):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Unit", err.Error())
	case errors.Is(err, ErrHasMovements):
		httpx.Problem(w, http.StatusConflict, "Conflict", "product has ledger entries")
	default:
		h.logger.Error("product request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func toProductResponse(product Product) productResponse {
	return productResponse{
		ID:         product.ID,
		Name:       product.Name,
		CategoryID: product.CategoryID,
		Unit:       string(product.Unit),
		UnitLabel:  product.Unit.Label(),
		Stock:      product.Stock,
	}
}
