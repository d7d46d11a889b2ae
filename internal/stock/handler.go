package stock

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ekahanny/souvenir-tracking-be/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the stock ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs stock handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/logs", h.list)
	r.Post("/logs", h.create)
	r.Get("/logs/{id}", h.show)
	r.Put("/logs/{id}", h.revise)
	r.Delete("/logs/{id}", h.remove)
}

// MountLotRoutes registers the per-product lot listing.
func (h *Handler) MountLotRoutes(r chi.Router) {
	r.Get("/products/{id}/lots", h.listLots)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	occurredAt, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}

	var entry LedgerEntry
	if req.Inbound {
		var expiry *time.Time
		if req.Expiry != nil {
			parsed, err := time.Parse(dateLayout, *req.Expiry)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expiry must be YYYY-MM-DD")
				return
			}
			expiry = &parsed
		}
		entry, err = h.service.RecordInbound(r.Context(), InboundInput{
			ProductName: req.ProductName,
			Qty:         req.Qty,
			Expiry:      expiry,
			OccurredAt:  occurredAt,
		})
	} else {
		entry, err = h.service.RecordOutbound(r.Context(), OutboundInput{
			ProductName:  req.ProductName,
			Qty:          req.Qty,
			OccurredAt:   occurredAt,
			ActivityName: req.ActivityName,
			PIC:          req.PIC,
		})
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := EntryFilter{}
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "product_id must be numeric")
			return
		}
		filter.ProductID = &id
	}
	if raw := r.URL.Query().Get("direction"); raw != "" {
		direction := Direction(raw)
		if direction != DirectionIn && direction != DirectionOut {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "direction must be IN or OUT")
			return
		}
		filter.Direction = &direction
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}

	entries, err := h.service.ListEntries(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	result := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, toEntryResponse(entry))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"logs": result})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	entry, err := h.service.GetEntry(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) revise(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	var req reviseEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := ReviseInput{Qty: req.Qty, ActivityName: req.ActivityName, PIC: req.PIC}
	if req.Date != nil {
		occurredAt, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
			return
		}
		input.OccurredAt = &occurredAt
	}

	entry, err := h.service.ReviseEntry(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	if err := h.service.DeleteEntry(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"msg": "entry deleted"})
}

func (h *Handler) listLots(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	lots, err := h.service.ListLots(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	result := make([]lotResponse, 0, len(lots))
	for _, lot := range lots {
		result = append(result, toLotResponse(lot))
	}
	httpx.JSON(w, http.StatusOK, result)
}

// respondError maps the stock error taxonomy onto HTTP statuses. Ledger
// inconsistencies keep their own title so operators can alert on them
// instead of treating them as ordinary server errors.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoEligibleStock):
		httpx.Problem(w, http.StatusUnprocessableEntity, "No Eligible Stock", err.Error())
	case errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrProductRequired),
		errors.Is(err, ErrActivityRequired), errors.Is(err, ErrDateBeforeFirstInbound):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInconsistentLedger):
		h.logger.Error("ledger inconsistency detected", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Ledger Inconsistency", err.Error())
	default:
		h.logger.Error("stock operation failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
