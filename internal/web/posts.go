package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/blogclient/internal/client"
	"github.com/sidereusnuntius/blogclient/internal/controller"
	"github.com/sidereusnuntius/blogclient/internal/domain"
	"github.com/sidereusnuntius/blogclient/templates"
	"github.com/sidereusnuntius/blogclient/internal/session"
)

const PageTitle = "Blog"

// Home loads the collection through the stored endpoint. A browser without one gets the
// configured default, if any; otherwise nothing is fetched.
func Home(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		st, _ := GetStore(ctx)

		var endpoint string
		if _, ok := st.Endpoint(ctx); !ok {
			if h.Config.Endpoint == "" {
				h.renderPage(w, r, st, h.controller.Current(st))
				return
			}
			endpoint = h.Config.Endpoint
		}

		snap, _ := h.controller.Refresh(ctx, st, endpoint)
		h.renderPage(w, r, st, snap)
	}
}

func UpdateEndpoint(h *Handler) http.HandlerFunc {
	return h.form(func(r *http.Request, st session.Store) (controller.Snapshot, error) {
		return h.controller.Refresh(r.Context(), st, strings.TrimSpace(r.Form.Get("api-base-url")))
	})
}

func SortPosts(h *Handler) http.HandlerFunc {
	return h.form(func(r *http.Request, st session.Store) (controller.Snapshot, error) {
		return h.controller.ApplySort(r.Context(), st, r.Form.Get("sort-by"), r.Form.Get("sort-direction"))
	})
}

func SearchPosts(h *Handler) http.HandlerFunc {
	return h.form(func(r *http.Request, st session.Store) (controller.Snapshot, error) {
		return h.controller.ApplySearch(r.Context(), st, domain.SearchFilters{
			Title:   strings.TrimSpace(r.Form.Get("search-title")),
			Content: strings.TrimSpace(r.Form.Get("search-content")),
			Author:  strings.TrimSpace(r.Form.Get("search-author")),
			Date:    strings.TrimSpace(r.Form.Get("search-date")),
		})
	})
}

func AddPost(h *Handler) http.HandlerFunc {
	return h.form(func(r *http.Request, st session.Store) (controller.Snapshot, error) {
		return h.controller.Create(r.Context(), st, domain.PostFields{
			Title:      r.Form.Get("post-title"),
			Content:    r.Form.Get("post-content"),
			Author:     r.Form.Get("post-author"),
			Tags:       SplitList(r.Form.Get("post-tags")),
			Categories: SplitList(r.Form.Get("post-categories")),
		})
	})
}

func UpdatePost(h *Handler) http.HandlerFunc {
	return h.postForm(func(r *http.Request, st session.Store, id int64) (controller.Snapshot, error) {
		suffix := strconv.FormatInt(id, 10)
		return h.controller.Update(r.Context(), st, id, domain.PostFields{
			Title:      r.Form.Get(templates.UpdateTitle + suffix),
			Content:    r.Form.Get(templates.UpdateContent + suffix),
			Author:     r.Form.Get(templates.UpdateAuthor + suffix),
			Date:       strings.TrimSpace(r.Form.Get(templates.UpdateDate + suffix)),
			Tags:       SplitList(r.Form.Get(templates.UpdateTags + suffix)),
			Categories: SplitList(r.Form.Get(templates.UpdateCategories + suffix)),
		})
	})
}

func DeletePost(h *Handler) http.HandlerFunc {
	return h.postForm(func(r *http.Request, st session.Store, id int64) (controller.Snapshot, error) {
		return h.controller.Remove(r.Context(), st, id)
	})
}

func AddComment(h *Handler) http.HandlerFunc {
	return h.postForm(func(r *http.Request, st session.Store, id int64) (controller.Snapshot, error) {
		suffix := strconv.FormatInt(id, 10)
		return h.controller.Comment(r.Context(), st, id,
			strings.TrimSpace(r.Form.Get(templates.CommentAuthor+suffix)),
			strings.TrimSpace(r.Form.Get(templates.CommentContent+suffix)))
	})
}

func AddTag(h *Handler) http.HandlerFunc {
	return h.postForm(func(r *http.Request, st session.Store, id int64) (controller.Snapshot, error) {
		tag := strings.TrimSpace(r.Form.Get(templates.TagField + strconv.FormatInt(id, 10)))
		return h.controller.AddTag(r.Context(), st, id, tag)
	})
}

func AddCategory(h *Handler) http.HandlerFunc {
	return h.postForm(func(r *http.Request, st session.Store, id int64) (controller.Snapshot, error) {
		category := strings.TrimSpace(r.Form.Get(templates.CategoryField + strconv.FormatInt(id, 10)))
		return h.controller.AddCategory(r.Context(), st, id, category)
	})
}

type action func(r *http.Request, st session.Store) (controller.Snapshot, error)

// form parses the request form, runs f and renders whatever the view displays afterwards.
// Failures have already been logged by the controller and only affect the status code.
func (h *Handler) form(f action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		st, _ := GetStore(ctx)
		if err := r.ParseForm(); err != nil {
			log.Debug().Err(err).Msg("failed to parse form body")
			w.WriteHeader(http.StatusBadRequest)
			h.renderPage(w, r, st, h.controller.Current(st))
			return
		}

		snap, err := f(r, st)
		if code := GetCode(err); code != http.StatusOK {
			w.WriteHeader(code)
		}
		h.renderPage(w, r, st, snap)
	}
}

// postForm is form for the routes acting on the post named by the id URL parameter.
func (h *Handler) postForm(f func(r *http.Request, st session.Store, id int64) (controller.Snapshot, error)) http.HandlerFunc {
	return h.form(func(r *http.Request, st session.Store) (controller.Snapshot, error) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			return h.controller.Current(st), client.ErrNotFound
		}
		return f(r, st, id)
	})
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, st session.Store, snap controller.Snapshot) {
	ctx := r.Context()
	endpoint, _ := st.Endpoint(ctx)
	if endpoint == "" {
		endpoint = h.Config.Endpoint
	}
	_, authenticated := st.Token(ctx)

	var stylesheet string
	if h.Config.StaticDir != "" {
		stylesheet = "/static/style.css"
	}

	err := templates.Layout(templates.PageData{
		PageTitle:     PageTitle,
		Endpoint:      endpoint,
		Authenticated: authenticated,
		View:          snap.View,
		Sort:          snap.Sort,
		Filters:       snap.Filters,
		Posts:         snap.Posts,
		Stylesheet:    stylesheet,
	}).Render(ctx, w)
	if err != nil {
		log.Error().Err(err).Msg("failed to render page")
	}
}

// GetCode maps a controller error to the status of the page rendered after it. The page is
// rendered either way.
func GetCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, controller.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, client.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, client.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, client.ErrNetwork), errors.Is(err, client.ErrNoEndpoint):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// SplitList splits a comma separated form value, dropping blank items. The result is never nil.
func SplitList(s string) []string {
	items := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
