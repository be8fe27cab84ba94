package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/staffdesk/staffdesk-backend-go/internal/handler/http/response"
)

// AuthRequired rejects requests without a verified access token. Stream
// tokens are scoped to the event stream and are not valid here.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.Unauthorized(w, "Missing or invalid token")
				return
			}

			if tokenType, _ := claims["type"].(string); tokenType == "stream" {
				response.Unauthorized(w, "Stream token not valid for this endpoint")
				return
			}

			if userID, _ := claims["user_id"].(string); userID == "" {
				response.Unauthorized(w, "Missing or invalid token")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
