package importer

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/campusledger/campusledger/internal/platform/httpx"
	"github.com/campusledger/campusledger/internal/shared"
)

const maxUploadBytes = 20 << 20 // 20 MiB

// Handler exposes the import workflow over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers import routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/preview", h.preview)
	r.Post("/commit", h.commit)
	r.Get("/template", h.template)
}

func parseUploadType(raw string) (UploadType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", string(UploadDue):
		return UploadDue, nil
	case string(UploadPayment):
		return UploadPayment, nil
	default:
		return "", shared.NewError(shared.KindValidation, "upload_type must be DUE or PAYMENT")
	}
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "request is not a valid multipart form")
		return
	}

	uploadType, err := parseUploadType(r.FormValue("upload_type"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pendingMode := strings.EqualFold(r.FormValue("pending_mode"), "true")

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "missing file field")
		return
	}
	defer file.Close()

	preview, err := h.service.Preview(r.Context(), file, header.Filename, uploadType, pendingMode)
	if err != nil {
		h.logger.Error("import preview", slog.Any("error", err), slog.String("filename", header.Filename))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, preview)
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	result, err := h.service.Commit(r.Context(), req)
	if err != nil {
		h.logger.Error("import commit", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) template(w http.ResponseWriter, r *http.Request) {
	uploadType, err := parseUploadType(r.URL.Query().Get("type"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	f, err := h.service.Template(r.Context(), uploadType)
	if err != nil {
		h.logger.Error("import template", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", templateFilename(uploadType)))
	if err := f.Write(w); err != nil {
		h.logger.Error("import template write", slog.Any("error", err))
	}
}
