// Package admin contiene los controllers de la API administrativa del
// directorio (/v1/admin/...). Los controllers sólo decodifican DTOs y
// mapean errores; la lógica vive en internal/directory.
package admin

import (
	"encoding/json"
	"net/http"

	httperrors "github.com/dropDatabas3/hellodir/internal/http/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httperrors.WriteError(w, r, httperrors.ErrBadRequest.WithDetail("invalid JSON body"))
		return false
	}
	return true
}
