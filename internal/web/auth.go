package web

import (
	"net/http"
	"strings"

	"github.com/sidereusnuntius/blogclient/internal/controller"
	"github.com/sidereusnuntius/blogclient/internal/session"
)

// Register and Login use the endpoint typed in the form when there is one, like the rest of
// the page does.
func Register(h *Handler) http.HandlerFunc {
	return h.form(func(r *http.Request, st session.Store) (controller.Snapshot, error) {
		return h.controller.Register(r.Context(), st,
			strings.TrimSpace(r.Form.Get("api-base-url")),
			strings.TrimSpace(r.Form.Get("username")),
			r.Form.Get("password"))
	})
}

func Login(h *Handler) http.HandlerFunc {
	return h.form(func(r *http.Request, st session.Store) (controller.Snapshot, error) {
		return h.controller.Login(r.Context(), st,
			strings.TrimSpace(r.Form.Get("api-base-url")),
			strings.TrimSpace(r.Form.Get("username")),
			r.Form.Get("password"))
	})
}

func Logout(h *Handler) http.HandlerFunc {
	return h.form(func(r *http.Request, st session.Store) (controller.Snapshot, error) {
		return h.controller.Logout(r.Context(), st)
	})
}
