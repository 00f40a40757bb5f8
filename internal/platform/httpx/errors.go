package httpx

import (
	"errors"
	"net/http"

	"github.com/tokobase/tokobase/internal/shared"
)

// Generic login failure shown to users. Inactive accounts get the same text
// so responses never reveal which check failed.
const LoginFailedDetail = "Email atau password tidak valid"

// RespondError maps domain errors to RFC7807 responses. Storage errors and
// anything unrecognized collapse to a bare 500.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrAccountInactive):
		Problem(w, http.StatusUnauthorized, "Unauthorized", LoginFailedDetail)
	case errors.Is(err, shared.ErrSessionInvalid), errors.Is(err, shared.ErrSessionExpired):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "Sesi tidak valid, silakan masuk kembali")
	case errors.Is(err, shared.ErrPermissionDenied):
		Problem(w, http.StatusForbidden, "Forbidden", "")
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "")
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
