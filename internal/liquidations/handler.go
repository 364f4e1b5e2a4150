package liquidations

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/platform/httpx"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/shared"
)

// Handler wires the liquidation endpoints.
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

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateLiquidationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	liq, err := h.service.Create(r.Context(), req, actorID(r))
	if err != nil {
		h.logger.Error("create liquidation", slog.Int64("person_id", req.PersonID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, liq)
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	personID, role, ok := personQuery(w, r)
	if !ok {
		return
	}
	balance, err := h.service.Balance(r.Context(), personID, role)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	personID, role, ok := personQuery(w, r)
	if !ok {
		return
	}
	liqs, err := h.service.List(r.Context(), personID, role)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"liquidations": liqs})
}

func (h *Handler) personBalance(w http.ResponseWriter, r *http.Request) {
	personID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || personID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "person id must be positive")
		return
	}
	role := Role(r.URL.Query().Get("role"))
	if !role.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "role must be seller or worker")
		return
	}
	balance, err := h.service.Balance(r.Context(), personID, role)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func personQuery(w http.ResponseWriter, r *http.Request) (int64, Role, bool) {
	personID, err := strconv.ParseInt(r.URL.Query().Get("person_id"), 10, 64)
	if err != nil || personID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "person_id is required")
		return 0, "", false
	}
	role := Role(r.URL.Query().Get("role"))
	if !role.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "role must be seller or worker")
		return 0, "", false
	}
	return personID, role, true
}

func actorID(r *http.Request) int64 {
	if actor := shared.ActorFromContext(r.Context()); actor != nil {
		return actor.UserID
	}
	return 0
}
