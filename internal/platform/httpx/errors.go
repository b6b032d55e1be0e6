package httpx

import (
	"errors"
	"net/http"

	"github.com/campusledger/campusledger/internal/shared"
)

// RespondError maps typed domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch shared.KindOf(err) {
	case shared.KindValidation:
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case shared.KindNotFound:
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case shared.KindDuplicateKey:
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case shared.KindStore:
		Problem(w, http.StatusInternalServerError, "Storage Error", err.Error())
	default:
		if errors.Is(err, shared.ErrNotFound) {
			Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
