package labor

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/platform/httpx"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/shared"
)

// Handler wires the reconciliation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) recordCost(w http.ResponseWriter, r *http.Request) {
	quotationID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req RecordLaborRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	record, err := h.service.RecordCost(r.Context(), quotationID, req, actorID(r))
	if err != nil {
		h.logger.Error("record labor cost", slog.Int64("quotation_id", quotationID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, record)
}

func (h *Handler) listCosts(w http.ResponseWriter, r *http.Request) {
	quotationID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	records, err := h.service.ListCosts(r.Context(), quotationID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) updateCost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "recordID")
	if !ok {
		return
	}
	var req UpdateLaborRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	record, err := h.service.UpdateCost(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update labor cost", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, record)
}

func (h *Handler) deleteCost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "recordID")
	if !ok {
		return
	}
	if err := h.service.DeleteCost(r.Context(), id); err != nil {
		h.logger.Error("delete labor cost", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reconciliation(w http.ResponseWriter, r *http.Request) {
	quotationID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rec, err := h.service.Reconcile(r.Context(), quotationID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) companySummary(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil || companyID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "company_id is required")
		return
	}
	summary, err := h.service.CompanySummary(r.Context(), companyID)
	if err != nil {
		h.logger.Error("company reconciliation summary", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid "+param)
		return 0, false
	}
	return id, true
}

func actorID(r *http.Request) int64 {
	if actor := shared.ActorFromContext(r.Context()); actor != nil {
		return actor.UserID
	}
	return 0
}
