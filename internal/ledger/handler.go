package ledger

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/campusledger/campusledger/internal/platform/httpx"
)

// Handler exposes student statements over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/statement", h.showStatement)
}

func (h *Handler) showStatement(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Year", "year must be numeric")
			return
		}
		year = parsed
	}

	stmt, err := h.service.Statement(r.Context(), studentID, year)
	if err != nil {
		h.logger.Error("compute statement", slog.Any("error", err), slog.String("student_id", studentID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stmt)
}
