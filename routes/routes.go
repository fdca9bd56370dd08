package routes

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dcode-github/imovel_listing_system/controllers"
	"github.com/dcode-github/imovel_listing_system/middleware"
)

func Routes(router *mux.Router, d controllers.Deps) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/hello", controllers.Hello()).Methods(http.MethodGet)

	api.HandleFunc("/imoveis", controllers.IndexImoveis(d)).Methods(http.MethodGet)
	api.HandleFunc("/imoveis", controllers.CreateImovel(d)).Methods(http.MethodPost)
	api.HandleFunc("/imoveis/{id}", controllers.ShowImovel(d)).Methods(http.MethodGet)
	api.HandleFunc("/imoveis/{id}", controllers.UpdateImovel(d)).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/imoveis/{id}", controllers.DeleteImovel(d)).Methods(http.MethodDelete)
}

// NewRouter returns the full route table wrapped in request logging and
// panic recovery. The middleware sits outside the router so unmatched paths
// and methods are traced and logged too.
func NewRouter(d controllers.Deps, log *slog.Logger) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = controllers.RouteNotFound()
	router.MethodNotAllowedHandler = controllers.MethodNotAllowed()
	Routes(router, d)
	return middleware.Logging(log)(middleware.Recover(router))
}
