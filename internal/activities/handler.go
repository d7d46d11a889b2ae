package activities

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ekahanny/souvenir-tracking-be/internal/platform/httpx"
)

// Handler wires HTTP endpoints for activity lookups.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers activity routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/activities", h.list)
	r.Get("/activities/{id}", h.get)
}

type activityResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	PIC  string `json:"pic"`
}

type usageResponse struct {
	EntryID     int64  `json:"entry_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Qty         int64  `json:"qty"`
	Date        string `json:"date"`
}

type detailResponse struct {
	activityResponse
	Usages []usageResponse `json:"usages"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	activities, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list activities", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	result := make([]activityResponse, 0, len(activities))
	for _, activity := range activities {
		result = append(result, activityResponse{ID: activity.ID, Name: activity.Name, PIC: activity.PIC})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"activities": result})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "activity id must be an integer")
		return
	}
	detail, err := h.service.GetDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "activity not found")
			return
		}
		h.logger.Error("get activity", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	resp := detailResponse{
		activityResponse: activityResponse{ID: detail.ID, Name: detail.Name, PIC: detail.PIC},
		Usages:           make([]usageResponse, 0, len(detail.Usages)),
	}
	for _, usage := range detail.Usages {
		resp.Usages = append(resp.Usages, usageResponse{
			EntryID:     usage.EntryID,
			ProductID:   usage.ProductID,
			ProductName: usage.ProductName,
			Qty:         usage.Qty,
			Date:        usage.OccurredAt.Format("2006-01-02"),
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}
