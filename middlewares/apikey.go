package middlewares

import (
	"crypto/subtle"
	"net/http"

	"github.com/LexiconIndonesia/jobscout-service/common/utils"
)

// ApiKey rejects requests whose X-API-KEY header does not match the
// configured backend key. An empty configured key disables the check,
// which is the local development default.
func ApiKey(backendKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if backendKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-API-KEY")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(backendKey)) != 1 {
				utils.WriteError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
