package web

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Mount(r chi.Router) {
	r.Use(middleware.RequestID, middleware.Recoverer)
	if h.Config.Debug {
		r.Use(RequestLogger)
	}
	r.Use(ProfileMiddleware(h))

	r.Get(HomeRoute, Home(h))
	r.Post(EndpointRoute, UpdateEndpoint(h))
	r.Post(RegisterRoute, Register(h))
	r.Post(LoginRoute, Login(h))
	r.Post(LogoutRoute, Logout(h))
	r.Get(SortRoute, SortPosts(h))
	r.Get(SearchRoute, SearchPosts(h))

	r.Route(PostsPath, func(r chi.Router) {
		r.Post("/", AddPost(h))
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/update", UpdatePost(h))
			r.Post("/delete", DeletePost(h))
			r.Post("/comments", AddComment(h))
			r.Post("/tags", AddTag(h))
			r.Post("/categories", AddCategory(h))
		})
	})

	h.MountStaticRoutes(r)
}

func (h *Handler) MountStaticRoutes(r chi.Router) {
	if h.Config.StaticDir == "" {
		return
	}
	wd, _ := os.Getwd()
	dir := h.Config.StaticDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(wd, dir)
	}
	f := os.DirFS(dir)

	fileServer := http.FileServer(http.FS(f))
	r.Handle("/static/{name}", http.StripPrefix(
		"/static/",
		fileServer,
	))
}
