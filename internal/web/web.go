package web

import (
	"github.com/alexedwards/scs"
	"github.com/sidereusnuntius/blogclient/internal/config"
	"github.com/sidereusnuntius/blogclient/internal/controller"
	"github.com/sidereusnuntius/blogclient/internal/session"
)

const (
	HomeRoute     = "/"
	EndpointRoute = "/endpoint"
	RegisterRoute = "/register"
	LoginRoute    = "/login"
	LogoutRoute   = "/logout"
	SortRoute     = "/sort"
	SearchRoute   = "/search"
	PostsPath     = "/posts"
)

// Stores hands out the session store of a profile.
type Stores interface {
	For(profile string) session.Store
}

type Handler struct {
	Config         *config.Configuration
	controller     *controller.Controller
	stores         Stores
	SessionManager *scs.Manager
}

func New(config *config.Configuration, controller *controller.Controller, stores Stores, manager *scs.Manager) Handler {
	return Handler{
		Config:         config,
		controller:     controller,
		stores:         stores,
		SessionManager: manager,
	}
}
