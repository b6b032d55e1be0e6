package registry

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/campusledger/campusledger/internal/platform/httpx"
)

const defaultSearchLimit = 25

// Handler exposes registry lookups over HTTP.
type Handler struct {
	logger *slog.Logger
	store  Store
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, store Store) *Handler {
	return &Handler{logger: logger, store: store}
}

// MountRoutes registers registry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.search)
}

type studentResponse struct {
	AdmissionNumber string `json:"admissionNumber"`
	PinNumber       string `json:"pinNumber,omitempty"`
	Name            string `json:"name"`
	College         string `json:"college,omitempty"`
	Course          string `json:"course,omitempty"`
	Branch          string `json:"branch,omitempty"`
	Batch           string `json:"batch,omitempty"`
	CurrentYear     int    `json:"currentYear,omitempty"`
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "q parameter is required")
		return
	}
	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	students, err := h.store.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("student search", slog.Any("error", err), slog.String("query", query))
		httpx.RespondError(w, err)
		return
	}
	out := make([]studentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, studentResponse{
			AdmissionNumber: s.AdmissionNumber,
			PinNumber:       s.PinNumber,
			Name:            s.Name,
			College:         s.College,
			Course:          s.Course,
			Branch:          s.Branch,
			Batch:           s.Batch,
			CurrentYear:     s.CurrentYear,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}
