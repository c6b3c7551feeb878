package investments

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type pathParamKey string

func pathID(r *http.Request, param string) string {
	if id, ok := r.Context().Value(pathParamKey(param)).(uuid.UUID); ok {
		return id.String()
	}
	return r.PathValue(param)
}

// ValidatePathParams rejects requests whose id path params are not UUIDs
// and stores the parsed values on the context.
func (h *Handler) ValidatePathParams(next http.Handler, params ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, param := range params {
			paramValue := r.PathValue(param)
			if paramValue == "" {
				h.respondError(w, http.StatusBadRequest, capitalize(param+" is required"))
				return
			}

			parsedUUID, err := uuid.Parse(paramValue)
			if err != nil {
				logger.Debug().Str("param", param).Str("value", paramValue).Msg("invalid path param")
				if param == "investmentID" {
					h.respondError(w, http.StatusNotFound, "Investment not found")
				} else {
					h.respondError(w, http.StatusBadRequest, "Invalid "+param+" format")
				}
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), pathParamKey(param), parsedUUID))
		}
		next.ServeHTTP(w, r)
	})
}
