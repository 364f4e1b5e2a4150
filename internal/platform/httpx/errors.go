package httpx

import (
	"errors"
	"net/http"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var (
		validationErr *shared.ValidationError
		configErr     *shared.ConfigurationError
		numberingErr  *shared.NumberingConflictError
		partialErr    *shared.PartialAcceptanceError
	)
	switch {
	case errors.As(err, &validationErr):
		Problem(w, http.StatusBadRequest, "Validation Failed", validationErr.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.As(err, &numberingErr):
		Problem(w, http.StatusConflict, "Numbering Conflict", numberingErr.Error())
	case errors.As(err, &configErr):
		Problem(w, http.StatusUnprocessableEntity, "Configuration Missing", configErr.Error())
	case errors.As(err, &partialErr):
		Problem(w, http.StatusConflict, "Acceptance Incomplete", partialErr.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
