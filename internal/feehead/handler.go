package feehead

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusledger/campusledger/internal/platform/httpx"
)

// Handler exposes the fee-head catalog over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listHeads)
	r.Post("/", h.createHead)
}

type headResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

func (h *Handler) listHeads(w http.ResponseWriter, r *http.Request) {
	heads, err := h.service.Catalog(r.Context())
	if err != nil {
		h.logger.Error("list fee heads", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]headResponse, 0, len(heads))
	for _, head := range heads {
		out = append(out, headResponse{ID: head.ID, Name: head.Name, Code: head.Code})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createHead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	head, err := h.service.CreateHead(r.Context(), req.Name, req.Code)
	if err != nil {
		h.logger.Error("create fee head", slog.Any("error", err), slog.String("name", req.Name))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, headResponse{ID: head.ID, Name: head.Name, Code: head.Code})
}
