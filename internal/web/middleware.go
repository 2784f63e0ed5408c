package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/blogclient/internal/session"
)

// ProfileKey is the cookie session key holding the browser's profile id.
const ProfileKey = "profile"

type key struct{}

// GetStore returns the session store of the browser making the request.
func GetStore(ctx context.Context) (session.Store, bool) {
	s, ok := ctx.Value(key{}).(session.Store)
	return s, ok
}

// ProfileMiddleware makes sure every browser carries a profile id, issuing one on its first
// visit, and puts the profile's store in the request context.
func ProfileMiddleware(handler *Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := handler.SessionManager.Load(r)
			profile, err := s.GetString(ProfileKey)
			if err != nil {
				log.Warn().Err(err).Msg("unreadable session cookie; issuing a new profile")
				profile = ""
			}

			if profile == "" {
				profile = uuid.NewString()
				if err = s.PutString(w, ProfileKey, profile); err != nil {
					log.Error().Err(err).Msg("failed to store profile id")
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				log.Debug().Str("profile", profile).Msg("issued new profile")
			}

			ctx := context.WithValue(r.Context(), key{}, handler.stores.For(profile))
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger logs every request once it has been served.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Debug().
				Str("request id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("request served")
		}()
		next.ServeHTTP(ww, r)
	})
}
