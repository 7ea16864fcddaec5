package ports

import (
	"net/http"
)

func MakeHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
